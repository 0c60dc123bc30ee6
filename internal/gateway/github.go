// Package gateway is repo-finder's only door to the GitHub API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/sakif/repo-finder/internal/apperror"
	"github.com/sakif/repo-finder/internal/model"
)

// MaxPages bounds how many pages of 100 repositories one lookup may fetch.
const MaxPages = 10

// Fetcher lists the public repositories of a GitHub user.
type Fetcher interface {
	ListUserRepos(ctx context.Context, username string) ([]model.Repo, error)
}

// Options configures NewGitHubGateway. Every field is optional.
type Options struct {
	// Token is a GitHub personal access token. Anonymous requests are
	// limited to 60 per hour.
	Token string
	// BaseURL points the client at GitHub Enterprise or a test server.
	BaseURL string
	// MaxRateLimitSleep is the longest single wait for a secondary rate
	// limit to clear before the request fails instead.
	MaxRateLimitSleep time.Duration
}

// GitHubGateway implements Fetcher with the GitHub REST API.
type GitHubGateway struct {
	client *github.Client
	logger *slog.Logger
}

var _ Fetcher = (*GitHubGateway)(nil)

// NewGitHubGateway builds the HTTP stack:
//
//	github.Client → oauth2.Transport (if Token is set) → rate limit waiter → http.DefaultTransport
func NewGitHubGateway(opts Options, logger *slog.Logger) (*GitHubGateway, error) {
	maxSleep := opts.MaxRateLimitSleep
	if maxSleep <= 0 {
		maxSleep = 30 * time.Second
	}

	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil,
		github_ratelimit.WithSingleSleepLimit(maxSleep, func(cbc *github_ratelimit.CallbackContext) {
			logger.Warn("github secondary rate limit exceeds sleep limit",
				slog.Duration("limit", maxSleep),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("gateway: creating rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}

	client := github.NewClient(&http.Client{Transport: transport})
	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("gateway: parsing base URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = base
	}

	return &GitHubGateway{client: client, logger: logger}, nil
}

// ListUserRepos lists every repository of username, most recently updated
// first, following pagination up to MaxPages.
func (g *GitHubGateway) ListUserRepos(ctx context.Context, username string) ([]model.Repo, error) {
	opts := &github.RepositoryListByUserOptions{
		Type:        "all",
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var repos []model.Repo
	for page := 1; ; page++ {
		result, resp, err := g.client.Repositories.ListByUser(ctx, username, opts)
		if err != nil {
			return nil, translateError(username, err)
		}
		for _, r := range result {
			repos = append(repos, toModel(r))
		}

		if resp.NextPage == 0 {
			break
		}
		if page >= MaxPages {
			g.logger.Warn("repository listing truncated",
				slog.String("username", username),
				slog.Int("pages", page),
			)
			break
		}
		opts.Page = resp.NextPage
	}

	if repos == nil {
		repos = []model.Repo{}
	}
	return repos, nil
}

func translateError(username string, err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return apperror.NotFound("github user", username)
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return apperror.Upstream("github rate limit exceeded", err)
	}
	return apperror.Upstream("listing repositories of "+username, err)
}

func toModel(r *github.Repository) model.Repo {
	return model.Repo{
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		OwnerLogin:      r.GetOwner().GetLogin(),
		HTMLURL:         r.GetHTMLURL(),
		Description:     r.GetDescription(),
		Language:        r.GetLanguage(),
		StargazersCount: r.GetStargazersCount(),
		OpenIssuesCount: r.GetOpenIssuesCount(),
		Fork:            r.GetFork(),
		UpdatedAt:       r.GetUpdatedAt().Time,
	}
}
