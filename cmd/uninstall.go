package cmd

import (
	"fmt"

	"github.com/clyde-pm/clyde/pkg/installer"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:          "uninstall PKG...",
	Short:        "Remove one or more installed packages",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	h, s, db, release, err := openHome()
	if err != nil {
		printCommandError(err)
		return err
	}
	defer release()

	inst := installer.New(s, db, h)
	for _, name := range args {
		if err := inst.Uninstall(name); err != nil {
			printCommandError(err)
			return err
		}
		fmt.Printf("Uninstalled %s\n", name)
	}
	return nil
}
