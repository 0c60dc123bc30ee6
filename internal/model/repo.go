// Package model defines the data structures used throughout the application.
package model

import "time"

// Repo is one GitHub repository as shown in the home page result list.
//
// Only the fields the list item renders are kept; the GitHub API returns
// far more. The json tags are the shape served by GET /api/state.
type Repo struct {
	Name            string    `json:"name"`
	FullName        string    `json:"fullName"`
	OwnerLogin      string    `json:"ownerLogin"`
	HTMLURL         string    `json:"htmlUrl"`
	Description     string    `json:"description,omitempty"`
	Language        string    `json:"language,omitempty"`
	StargazersCount int       `json:"stargazersCount"`
	OpenIssuesCount int       `json:"openIssuesCount"`
	Fork            bool      `json:"fork"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IssuesURL is the link target of the open-issues counter.
func (r Repo) IssuesURL() string {
	return r.HTMLURL + "/issues"
}

// RepoList is a list of repositories that may not have been loaded yet.
//
// The zero value means "not loaded", which is different from a loaded list
// with no items: a user without public repositories still gets an (empty)
// result region, a user whose repositories were never requested gets none.
type RepoList struct {
	Items  []Repo `json:"items"`
	Loaded bool   `json:"loaded"`
}

// LoadedRepos wraps a fetched slice as a loaded RepoList.
func LoadedRepos(items []Repo) RepoList {
	if items == nil {
		items = []Repo{}
	}
	return RepoList{Items: items, Loaded: true}
}
