package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached organizations, repositories and usage history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			fmt.Print("Clear the entire cache including usage history? [y/N]: ")

			var response string
			_, _ = fmt.Scanln(&response)

			if response != "y" && response != "Y" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Clear(); err != nil {
			return err
		}

		fmt.Println("Cache cleared.")

		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}
