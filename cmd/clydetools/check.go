package main

import (
	"fmt"

	"github.com/clyde-pm/clyde/pkg/archos"
	"github.com/clyde-pm/clyde/pkg/dbstore"
	"github.com/clyde-pm/clyde/pkg/fetcher"
	"github.com/clyde-pm/clyde/pkg/home"
	"github.com/clyde-pm/clyde/pkg/store"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:          "check PKG",
	Short:        "Run an installed package's descriptor-declared smoke tests",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	name := args[0]

	h := home.Discover()
	if err := h.Validate(); err != nil {
		return err
	}

	db, err := dbstore.Open(h.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	pkg, err := db.GetPackage(name)
	if err != nil {
		return err
	}
	if pkg == nil {
		return fmt.Errorf("%s is not installed", name)
	}

	s := store.New(h.Store)
	d, _, err := s.Get(name)
	if err != nil {
		return err
	}

	spec, ok := d.ResolveInstallSpec(pkg.InstalledVersion.Original(), archos.Current())
	if !ok {
		return fmt.Errorf("%s: no install spec for installed version %s", name, pkg.InstalledVersion.Original())
	}
	if len(spec.Tests) == 0 {
		fmt.Printf("%s: no tests declared\n", name)
		return nil
	}

	if err := fetcher.RunTests(h.BinDir(), spec.Tests); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	fmt.Printf("%s: all tests passed\n", name)
	return nil
}
