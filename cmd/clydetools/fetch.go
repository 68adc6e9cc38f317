package main

import (
	"context"
	"fmt"

	"github.com/clyde-pm/clyde/pkg/fetcher"
	"github.com/clyde-pm/clyde/pkg/home"
	"github.com/clyde-pm/clyde/pkg/store"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:          "fetch PKG",
	Short:        "Check a descriptor's upstream source for a newer release",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	h := home.Discover()
	if err := h.Validate(); err != nil {
		return err
	}

	s := store.New(h.Store)
	d, _, err := s.Get(args[0])
	if err != nil {
		return err
	}

	f, err := fetcher.Resolve(d)
	if err != nil {
		return err
	}

	status, err := f.Fetch(context.Background(), d)
	if err != nil {
		return err
	}

	if status.UpToDate {
		fmt.Printf("%s: up to date\n", d.Name)
		return nil
	}

	fmt.Printf("%s: new release %s\n", d.Name, status.Version)
	for ao, url := range status.URLs {
		digest, err := fetcher.DiscoverChecksum(context.Background(), url)
		if err != nil {
			fmt.Printf("  %s: %s (checksum discovery failed: %v)\n", ao, url, err)
			continue
		}
		fmt.Printf("  %s: %s\n    sha256: %s\n", ao, url, digest)
	}
	return nil
}
