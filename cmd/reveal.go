package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frankwiles/gg/internal/store"
)

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Print the cache file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := store.DefaultPath()
		if err != nil {
			return err
		}

		fmt.Println(path)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(revealCmd)
}
