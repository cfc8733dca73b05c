package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/frankwiles/gg/internal/gh"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch organizations and repositories into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := gh.ResolveToken()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client := gh.NewClient(ctx, token)

		fmt.Println("Fetching organizations and repositories...")

		snap, err := gh.FetchSnapshot(ctx, client, slog.Default())
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Refresh(*snap); err != nil {
			return err
		}

		fmt.Printf("Cached %d repositories across %d organizations\n", len(snap.Repos), len(snap.Orgs))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
