package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/clyde-pm/clyde/pkg/term"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:          "list",
	Short:        "List installed packages",
	SilenceUsage: true,
	RunE:         runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print machine-readable JSON")
}

type listEntry struct {
	Name             string `json:"name"`
	InstalledVersion string `json:"installed_version"`
	RequestedVersion string `json:"requested_version"`
}

func runList(cmd *cobra.Command, args []string) error {
	_, _, db, release, err := openHome()
	if err != nil {
		printCommandError(err)
		return err
	}
	defer release()

	packages, err := db.GetInstalledPackages()
	if err != nil {
		printCommandError(err)
		return err
	}

	if listJSON {
		entries := make([]listEntry, 0, len(packages))
		for _, pkg := range packages {
			entries = append(entries, listEntry{
				Name:             pkg.Name,
				InstalledVersion: pkg.InstalledVersion.Original(),
				RequestedVersion: pkg.RequestedVersion,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	w, closeW := term.Writer()
	defer closeW()
	for _, pkg := range packages {
		fmt.Fprintf(w, "%s %s (requested %s)\n", pkg.Name, pkg.InstalledVersion.Original(), pkg.RequestedVersion)
	}
	return nil
}
