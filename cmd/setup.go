package cmd

import (
	"fmt"

	"github.com/clyde-pm/clyde/pkg/activate"
	"github.com/clyde-pm/clyde/pkg/dbstore"
	"github.com/clyde-pm/clyde/pkg/store"
	"github.com/spf13/cobra"
)

const defaultStoreURL = "https://github.com/agateau/clyde-store"

var (
	setupStoreURL      string
	setupUpdateScripts bool
)

var setupCmd = &cobra.Command{
	Use:          "setup",
	Short:        "Create a new Clyde home, or regenerate its activation scripts",
	SilenceUsage: true,
	RunE:         runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().StringVar(&setupStoreURL, "url", defaultStoreURL, "Descriptor store git URL")
	setupCmd.Flags().BoolVar(&setupUpdateScripts, "update-scripts", false, "Only regenerate the activation snippet for an existing home")
}

func runSetup(cmd *cobra.Command, args []string) error {
	h := resolveHome()

	if setupUpdateScripts {
		if err := h.Validate(); err != nil {
			printCommandError(err)
			return err
		}
		if err := activate.Write(h.Scripts, h.BinDir()); err != nil {
			printCommandError(err)
			return err
		}
		fmt.Printf("Regenerated activation script at %s\n", activate.Path(h.Scripts))
		return nil
	}

	if err := h.Create(); err != nil {
		printCommandError(err)
		return err
	}

	s := store.New(h.Store)
	if err := s.Setup(setupStoreURL); err != nil {
		printCommandError(err)
		return err
	}

	db, err := dbstore.Open(h.DBPath)
	if err != nil {
		printCommandError(err)
		return err
	}
	defer db.Close()

	if err := activate.Write(h.Scripts, h.BinDir()); err != nil {
		printCommandError(err)
		return err
	}

	fmt.Printf("Clyde set up at %s\n", h.Root)
	fmt.Printf("Source %s to add Clyde's bin directory to your PATH.\n", activate.Path(h.Scripts))
	return nil
}
