// Package service contains the business rules of repo-finder, between the
// transports (HTTP, CLI, store effects) and the gateway.
//
//	effects.RepoLoader → RepoService → gateway.Fetcher → GitHub
//
// RepoService takes a gateway.Fetcher interface, so tests hand it a fake
// instead of a live GitHub client.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sakif/repo-finder/internal/apperror"
	"github.com/sakif/repo-finder/internal/gateway"
	"github.com/sakif/repo-finder/internal/model"
)

// MaxUsernameLength is GitHub's limit on login names.
const MaxUsernameLength = 39

// loginPattern is GitHub's login shape: alphanumerics and single inner hyphens.
var loginPattern = regexp.MustCompile(`^[A-Za-z0-9](?:-?[A-Za-z0-9])*$`)

// RepoService looks up repositories of GitHub users.
type RepoService struct {
	fetcher gateway.Fetcher
	logger  *slog.Logger
}

// NewRepoService creates a RepoService.
func NewRepoService(fetcher gateway.Fetcher, logger *slog.Logger) *RepoService {
	return &RepoService{
		fetcher: fetcher,
		logger:  logger,
	}
}

// ListForUser validates username and returns its repositories.
//
// A username that GitHub could never accept is rejected here with
// apperror.ErrValidation instead of costing an API call.
func (s *RepoService) ListForUser(ctx context.Context, username string) ([]model.Repo, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if !loginPattern.MatchString(username) {
		return nil, apperror.ValidationFailed("username", "username is not a valid GitHub login")
	}

	start := time.Now()
	repos, err := s.fetcher.ListUserRepos(ctx, username)
	if err != nil {
		s.logger.Warn("failed to list repositories",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	s.logger.Info("repositories listed",
		slog.String("username", username),
		slog.Int("count", len(repos)),
		slog.Duration("duration", time.Since(start)),
	)

	return repos, nil
}
