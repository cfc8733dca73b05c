package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache contents and last refresh time",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		status, err := st.Status()
		if err != nil {
			return err
		}

		fmt.Printf("Organizations: %d\n", status.Orgs)
		fmt.Printf("Repositories:  %d\n", status.Repos)
		fmt.Printf("Usage events:  %d\n", status.UsageEvents)

		if status.LastRefresh.IsZero() {
			fmt.Println("Last refresh:  never (run 'gg refresh')")
		} else {
			fmt.Printf("Last refresh:  %s\n", status.LastRefresh.Local().Format("2006-01-02 15:04:05"))
		}

		fmt.Printf("Cache file:    %s (%d bytes)\n", status.Path, status.SizeBytes)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
