// Command clydetools hosts the auxiliary collaborators spec.md §1 scopes
// out of the install core: fetching candidate new releases for a
// descriptor (spec.md §9's Fetcher contract) and running a descriptor's
// `tests` commands against an already-installed package. Never imported
// by, nor imports, cmd/clyde.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "clydetools",
		Short:        "Auxiliary tooling for maintaining Clyde descriptors",
		SilenceUsage: true,
	}
	root.AddCommand(fetchCmd, checkCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "clydetools: %v\n", err)
		os.Exit(1)
	}
}
