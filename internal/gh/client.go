package gh

import (
	"context"
	"errors"
	"os"

	ghauth "github.com/cli/go-gh/v2/pkg/auth"
	"github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"
)

// NewClient creates an authenticated GitHub client using the provided token.
func NewClient(ctx context.Context, token string) *github.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	return github.NewClient(tc)
}

// ResolveToken finds a GitHub token from the environment or the gh CLI
// configuration, in that order.
func ResolveToken() (string, error) {
	for _, env := range []string{"GG_GITHUB_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(env); token != "" {
			return token, nil
		}
	}

	if token, _ := ghauth.TokenForHost("github.com"); token != "" {
		return token, nil
	}

	return "", errors.New("no GitHub token found: set GITHUB_TOKEN or run 'gh auth login'")
}
