// Command repofinder looks up GitHub repositories from the command line.
//
//	repofinder lookup mxstbr octocat
package main

import "github.com/sakif/repo-finder/internal/cli"

func main() {
	cli.Execute()
}
