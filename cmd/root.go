package cmd

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/frankwiles/gg/internal/application"
	"github.com/frankwiles/gg/internal/browse"
	"github.com/frankwiles/gg/internal/cli"
	"github.com/frankwiles/gg/internal/store"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "Jump to GitHub repositories from your terminal",
	Long: `gg keeps a local cache of every organization and repository your
GitHub token can see and lets you jump to any of them with a few
keystrokes. Run it with no arguments to search; pick a result to open
it in your browser.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	RunE: runSearch,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	addVerboseFlag(rootCmd.PersistentFlags())
}

func addVerboseFlag(fs *pflag.FlagSet) {
	fs.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// openStore opens the cache at its default location.
func openStore() (store.Store, error) {
	path, err := store.DefaultPath()
	if err != nil {
		return nil, err
	}

	return store.Open(path)
}

func runSearch(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	m := cli.NewSearch(st)

	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	session := finalModel.(cli.SearchModel)

	if session.Cancelled() || session.Outcome() == nil {
		return nil
	}

	if err := session.RecordErr(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warning: failed to record usage: %v\n", err)
	}

	outcome := session.Outcome()
	url := browse.URLFor(outcome.Candidate, outcome.View)

	fmt.Println(url)

	return browse.OpenURL(url)
}
