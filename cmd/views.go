package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frankwiles/gg/internal/browse"
	"github.com/frankwiles/gg/internal/git"
	"github.com/frankwiles/gg/internal/model"
)

// Direct-open subcommands skip the search UI entirely and open a view of
// whatever repository the working directory's origin remote points at.
var directViews = []struct {
	use   string
	short string
	view  browse.ViewKind
}{
	{"issues", "Open the current repository's issues", browse.ViewIssues},
	{"prs", "Open the current repository's pull requests", browse.ViewPulls},
	{"actions", "Open the current repository's Actions runs", browse.ViewActions},
	{"milestones", "Open the current repository's milestones", browse.ViewMilestones},
	{"settings", "Open the current repository's settings", browse.ViewSettings},
}

func newDirectViewCommand(use, short string, view browse.ViewKind) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := currentRepoURL(view)
			if err != nil {
				return err
			}

			fmt.Println(url)

			return browse.OpenURL(url)
		},
	}
}

// currentRepoURL resolves the origin remote and builds the view's address.
func currentRepoURL(view browse.ViewKind) (string, error) {
	repo, err := git.CurrentRepo()
	if err != nil {
		return "", err
	}

	return browse.URLFor(repoCandidate(repo), view), nil
}

func repoCandidate(repo git.Repo) model.Candidate {
	return model.Candidate{
		Kind:     model.TargetRepo,
		FullName: repo.FullName(),
		Name:     repo.Name,
	}
}

func init() {
	for _, v := range directViews {
		rootCmd.AddCommand(newDirectViewCommand(v.use, v.short, v.view))
	}
}
