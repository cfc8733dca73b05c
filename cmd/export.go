package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the full cache contents as JSON to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		export, err := st.Export()
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(data))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
