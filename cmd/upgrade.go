package cmd

import (
	"context"
	"fmt"

	"github.com/clyde-pm/clyde/pkg/installer"
	"github.com/clyde-pm/clyde/pkg/upgrade"
	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:          "upgrade",
	Short:        "Upgrade every installed package to its best matching version",
	SilenceUsage: true,
	RunE:         runUpgrade,
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	h, s, db, release, err := openHome()
	if err != nil {
		printCommandError(err)
		return err
	}
	defer release()

	inst := installer.New(s, db, h)
	plan, err := upgrade.Run(context.Background(), inst, s, db)
	if err != nil {
		printCommandError(err)
		return err
	}

	for _, entry := range plan {
		switch entry.Status {
		case upgrade.Upgradable:
			fmt.Printf("%s: upgraded %s -> %s\n", entry.Name, entry.InstalledVersion, entry.TargetVersion)
		case upgrade.Blocked:
			fmt.Printf("%s: blocked at %s (pinned to %q, %s available)\n", entry.Name, entry.InstalledVersion, entry.RequestedVersion, entry.TargetVersion)
		case upgrade.Failed:
			fmt.Printf("%s: warning: %v\n", entry.Name, entry.Err)
		case upgrade.UpToDate:
			fmt.Printf("%s: up to date at %s\n", entry.Name, entry.InstalledVersion)
		}
	}
	return nil
}
