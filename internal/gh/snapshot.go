package gh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v82/github"

	"github.com/frankwiles/gg/internal/model"
)

// FetchSnapshot downloads the full set of organizations and repositories
// the token can see. The result feeds store.Refresh; a partial listing is
// never returned.
func FetchSnapshot(ctx context.Context, client *github.Client, logger *slog.Logger) (*model.Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	orgs, err := fetchOrgs(ctx, client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	repos, err := fetchRepos(ctx, client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	return &model.Snapshot{
		Orgs:      orgs,
		Repos:     repos,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func fetchOrgs(ctx context.Context, client *github.Client, logger *slog.Logger) ([]model.Org, error) {
	var out []model.Org

	// The authenticated user owns repos too; list it alongside its orgs
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, err
	}

	out = append(out, model.Org{ID: user.GetID(), Login: user.GetLogin()})

	opts := &github.ListOptions{PerPage: 100}

	for {
		orgs, resp, err := client.Organizations.List(ctx, "", opts)
		if err != nil {
			if wait, ok := rateLimitWait(err); ok {
				logger.Warn("rate limited, waiting", slog.Duration("wait", wait))

				if err := sleepCtx(ctx, wait); err != nil {
					return nil, err
				}

				continue
			}

			return nil, err
		}

		for _, org := range orgs {
			out = append(out, model.Org{ID: org.GetID(), Login: org.GetLogin()})
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return out, nil
}

func fetchRepos(ctx context.Context, client *github.Client, logger *slog.Logger) ([]model.Repo, error) {
	var out []model.Repo

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		repos, resp, err := client.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			if wait, ok := rateLimitWait(err); ok {
				logger.Warn("rate limited, waiting", slog.Duration("wait", wait))

				if err := sleepCtx(ctx, wait); err != nil {
					return nil, err
				}

				continue
			}

			return nil, err
		}

		for _, repo := range repos {
			out = append(out, model.Repo{
				ID:            repo.GetID(),
				Name:          repo.GetName(),
				FullName:      repo.GetFullName(),
				OwnerLogin:    repo.GetOwner().GetLogin(),
				Private:       repo.GetPrivate(),
				Description:   repo.GetDescription(),
				Language:      repo.GetLanguage(),
				DefaultBranch: repo.GetDefaultBranch(),
			})
		}

		logger.Debug("fetched repository page", slog.Int("count", len(out)))

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return out, nil
}

// rateLimitWait extracts the wait duration from a rate-limit error.
func rateLimitWait(err error) (time.Duration, bool) {
	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return time.Until(rateLimitErr.Rate.Reset.Time) + time.Second, true
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.RetryAfter != nil {
		return *abuseErr.RetryAfter, true
	}

	return 0, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
