// Package cmd wires Clyde's command surface: setup, update, install,
// uninstall, upgrade, list, show, search — each a thin cobra command
// delegating to pkg/home, pkg/lock, pkg/store, pkg/dbstore,
// pkg/installer, pkg/upgrade and pkg/activate. Grounded on the teacher's
// cmd/root.go for the persistent-flags-plus-PersistentPreRun shape,
// narrowed from the teacher's config-file/platform-override flag set to
// the single --home override spec.md §6 calls for.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/flanksource/clicky"
	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/clyde-pm/clyde/pkg/dbstore"
	"github.com/clyde-pm/clyde/pkg/home"
	"github.com/clyde-pm/clyde/pkg/lock"
	"github.com/clyde-pm/clyde/pkg/store"
	"github.com/spf13/cobra"
)

var (
	homeOverride string
	lockTimeout  = 10 * time.Second
)

// VersionInfo mirrors the teacher's build-time version metadata plumbing.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

var versionInfo VersionInfo

// SetVersion records build-time version metadata, called from main.go's
// ldflags-populated variables.
func SetVersion(version, commit, date string) {
	versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

var rootCmd = &cobra.Command{
	Use:          "clyde",
	Short:        "A cross-platform package manager for prebuilt end-user binaries",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	clicky.BindAllFlags(rootCmd.PersistentFlags(), "tasks", "!format")
	rootCmd.PersistentFlags().StringVar(&homeOverride, "home", "", "Clyde home directory (default: $CLYDE_HOME or the OS default)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		clicky.Flags.UseFlags()
	}
}

// resolveHome returns the home directory to operate against, honoring
// --home over CLYDE_HOME/the OS default (spec.md §6).
func resolveHome() *home.Home {
	if homeOverride != "" {
		return home.New(homeOverride)
	}
	return home.Discover()
}

// openHome validates an existing home, acquires the home-wide lock
// (spec.md §5), and opens the store and database against it. The
// returned release func must be deferred by the caller.
func openHome() (h *home.Home, s *store.Store, db *dbstore.DB, release func(), err error) {
	h = resolveHome()
	if err = h.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}

	l, err := lock.Acquire(context.Background(), h.Root, lockTimeout)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	db, err = dbstore.Open(h.DBPath)
	if err != nil {
		_ = l.Release()
		return nil, nil, nil, nil, err
	}

	s = store.New(h.Store)
	release = func() {
		db.Close()
		_ = l.Release()
	}
	return h, s, db, release, nil
}

func printCommandError(err error) {
	if kind, ok := clydeerr.KindOf(err); ok {
		fmt.Fprintf(os.Stderr, "clyde: %s: %v\n", kind, err)
		return
	}
	fmt.Fprintf(os.Stderr, "clyde: %v\n", err)
}
