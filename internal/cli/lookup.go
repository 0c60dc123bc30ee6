package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/repo-finder/internal/config"
	"github.com/sakif/repo-finder/internal/effects"
	"github.com/sakif/repo-finder/internal/gateway"
	"github.com/sakif/repo-finder/internal/homepage"
	"github.com/sakif/repo-finder/internal/service"
	"github.com/sakif/repo-finder/internal/store"
)

// maxConcurrentLookups bounds how many users are fetched at once.
const maxConcurrentLookups = 4

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <username>...",
		Short: "Print the repositories of each GitHub user as a table",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLookup,
	}
	cmd.Flags().Duration("timeout", 0, "Per-user fetch timeout (default FETCH_TIMEOUT or 15s)")
	return cmd
}

func runLookup(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.FetchTimeout = timeout
	}

	github, err := gateway.NewGitHubGateway(gateway.Options{
		Token:             cfg.GitHubToken,
		BaseURL:           cfg.GitHubAPIURL,
		MaxRateLimitSleep: cfg.RateLimitWait,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	repos := service.NewRepoService(github, logger)

	results, err := lookupAll(cmd.Context(), repos, args, cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, page := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printPage(out, args[i], page)
	}
	return nil
}

// lookupAll looks up every username concurrently. Results are in argument
// order.
func lookupAll(ctx context.Context, lister effects.Lister, usernames []string, cfg *config.Config, logger *slog.Logger) ([]*homepage.HomePage, error) {
	results := make([]*homepage.HomePage, len(usernames))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentLookups)

	for i, username := range usernames {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = lookup(egCtx, lister, username, cfg, logger)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("lookup interrupted: %w", err)
	}
	return results, nil
}

// lookup runs one headless home page: type the username, mount (which
// submits), wait for the load and return the page as it ends up.
func lookup(ctx context.Context, lister effects.Lister, username string, cfg *config.Config, logger *slog.Logger) *homepage.HomePage {
	loader := effects.NewRepoLoader(ctx, lister, cfg.FetchTimeout, logger)
	st := store.New(store.Reduce, store.State{}, loader.Middleware())

	homepage.Connect(st).ChangeUsername(homepage.ChangeEvent{
		Target: homepage.EventTarget{Value: username},
	})
	homepage.Connect(st).Mount()
	loader.Wait()

	return homepage.Connect(st)
}

func printPage(out io.Writer, username string, page *homepage.HomePage) {
	props := page.Props()
	fmt.Fprintf(out, "@%s\n", props.Username)

	view := page.View()
	switch view.Kind {
	case homepage.ViewError:
		fmt.Fprintln(out, view.Message)
	case homepage.ViewEmpty:
		fmt.Fprintf(out, "nothing to look up for %q\n", username)
	case homepage.ViewResults:
		if len(view.Items) == 0 {
			fmt.Fprintln(out, "no repositories")
			return
		}
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Repository", "Language", "Stars", "Open Issues", "URL"})
		for _, repo := range view.Items {
			table.Append([]string{
				homepage.RepoLabel(repo, props.CurrentUser),
				repo.Language,
				strconv.Itoa(repo.StargazersCount),
				strconv.Itoa(repo.OpenIssuesCount),
				repo.HTMLURL,
			})
		}
		table.Render()
	}
}
