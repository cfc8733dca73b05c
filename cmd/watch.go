package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/frankwiles/gg/internal/gh"
	"github.com/frankwiles/gg/internal/git"
	"github.com/frankwiles/gg/internal/watch"
)

var watchBranch string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the latest CI run for the current branch until it finishes",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := git.CurrentRepo()
		if err != nil {
			return err
		}

		branch := watchBranch
		if branch == "" {
			if branch, err = git.CurrentBranch(); err != nil {
				return err
			}
		}

		token, err := gh.ResolveToken()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		client := gh.NewClient(ctx, token)
		provider := gh.NewRunStatusProvider(client, repo.Owner, repo.Name)
		watcher := watch.New(provider).WithLogger(slog.Default())

		fmt.Printf("Watching %s @ %s\n", repo.FullName(), branch)

		for n := range watcher.Watch(ctx, branch) {
			switch n.Phase {
			case watch.PhaseLocating:
				fmt.Println("Locating most recent workflow run...")

			case watch.PhasePolling:
				if n.Err != nil {
					fmt.Printf("  poll %d: %v (retrying in %s)\n", n.Attempt+1, n.Err, n.NextPoll)
				} else if !n.Status.Terminal() {
					fmt.Printf("  poll %d: %s is %s (next check in %s)\n", n.Attempt+1, n.Run.Workflow, n.Status, n.NextPoll)
				}

			case watch.PhaseCompleted:
				fmt.Printf("%s on %s finished: %s\n", n.Run.Workflow, n.Run.Branch, n.Conclusion)
				fmt.Println(n.Run.URL)

				if n.Conclusion != watch.StatusSuccess {
					return fmt.Errorf("workflow concluded with %s", n.Conclusion)
				}

			case watch.PhaseFailed:
				if n.Err != nil {
					return fmt.Errorf("watch failed (%s): %w", n.Reason, n.Err)
				}

				return fmt.Errorf("watch failed: %s", n.Reason)
			}
		}

		return nil
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchBranch, "branch", "b", "", "branch to watch (defaults to the current branch)")
	rootCmd.AddCommand(watchCmd)
}
