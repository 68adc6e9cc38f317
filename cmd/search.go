package cmd

import (
	"fmt"

	"github.com/clyde-pm/clyde/pkg/store"
	"github.com/clyde-pm/clyde/pkg/term"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:          "search QUERY",
	Short:        "Search the descriptor store by name or description",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	h := resolveHome()
	if err := h.Validate(); err != nil {
		printCommandError(err)
		return err
	}

	s := store.New(h.Store)
	results, malformed := s.Search(args[0])

	w, closeW := term.Writer()
	defer closeW()
	for _, r := range results {
		fmt.Fprintf(w, "%s: %s\n", r.Name, r.Description)
	}
	for _, err := range malformed {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	return nil
}
