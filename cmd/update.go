package cmd

import (
	"context"
	"fmt"

	"github.com/clyde-pm/clyde/pkg/lock"
	"github.com/clyde-pm/clyde/pkg/store"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:          "update",
	Short:        "Fast-forward the descriptor store to its latest revision",
	SilenceUsage: true,
	RunE:         runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	h := resolveHome()
	if err := h.Validate(); err != nil {
		printCommandError(err)
		return err
	}

	l, err := lock.Acquire(context.Background(), h.Root, lockTimeout)
	if err != nil {
		printCommandError(err)
		return err
	}
	defer l.Release()

	s := store.New(h.Store)
	if err := s.Update(); err != nil {
		printCommandError(err)
		return err
	}

	fmt.Println("Descriptor store updated.")
	return nil
}
