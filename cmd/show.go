package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/clyde-pm/clyde/pkg/term"
	"github.com/spf13/cobra"
)

var (
	showList bool
	showJSON bool
)

var showCmd = &cobra.Command{
	Use:          "show PKG",
	Short:        "Show a package's descriptor metadata and install state",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showList, "list", false, "List the files owned by this package, if installed")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print machine-readable JSON")
}

type showOutput struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Homepage         string   `json:"homepage,omitempty"`
	Versions         []string `json:"versions"`
	InstalledVersion string   `json:"installed_version,omitempty"`
	RequestedVersion string   `json:"requested_version,omitempty"`
	Files            []string `json:"files,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	name := args[0]

	_, s, db, release, err := openHome()
	if err != nil {
		printCommandError(err)
		return err
	}
	defer release()

	d, _, err := s.Get(name)
	if err != nil {
		printCommandError(err)
		return err
	}

	versions := d.SortedReleaseVersions()
	out := showOutput{
		Name:        d.Name,
		Description: d.Description,
		Homepage:    d.Homepage,
	}
	for _, v := range versions {
		out.Versions = append(out.Versions, v.Original())
	}

	if pkg, err := db.GetPackage(name); err == nil && pkg != nil {
		out.InstalledVersion = pkg.InstalledVersion.Original()
		out.RequestedVersion = pkg.RequestedVersion
		if showList {
			files, err := db.GetPackageFiles(name)
			if err != nil {
				printCommandError(err)
				return err
			}
			out.Files = files
		}
	}

	if showJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w, closeW := term.Writer()
	defer closeW()
	fmt.Fprintf(w, "%s: %s\n", out.Name, out.Description)
	if out.Homepage != "" {
		fmt.Fprintf(w, "Homepage: %s\n", out.Homepage)
	}
	fmt.Fprintf(w, "Available versions: %v\n", out.Versions)
	if out.InstalledVersion != "" {
		fmt.Fprintf(w, "Installed: %s (requested %s)\n", out.InstalledVersion, out.RequestedVersion)
		if showList {
			fmt.Fprintln(w, "Files:")
			for _, f := range out.Files {
				fmt.Fprintf(w, "  %s\n", f)
			}
		}
	} else {
		fmt.Fprintln(w, "Not installed")
	}
	return nil
}
