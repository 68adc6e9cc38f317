// Package home implements spec.md §4.10 and §6: locating, creating and
// validating the Clyde home directory (store/inst/tmp/download/scripts
// plus the installation database), and the CLYDE_HOME discovery rule.
package home

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/flanksource/commons/logger"
)

// Home is a validated Clyde home directory and its well-known
// subdirectories, mirroring the layout spec.md §3 names.
type Home struct {
	Root     string
	Store    string
	Inst     string
	Tmp      string
	Download string
	Scripts  string
	DBPath   string
}

const dbFileName = "clyde.db"

// New builds a Home value rooted at root without touching the
// filesystem. Use Validate to confirm it is usable, or Create to
// initialize a fresh one.
func New(root string) *Home {
	return &Home{
		Root:     root,
		Store:    filepath.Join(root, "store"),
		Inst:     filepath.Join(root, "inst"),
		Tmp:      filepath.Join(root, "tmp"),
		Download: filepath.Join(root, "download"),
		Scripts:  filepath.Join(root, "scripts"),
		DBPath:   filepath.Join(root, dbFileName),
	}
}

// Discover resolves the home directory the way the teacher's cmd/root.go
// resolves BIN_DIR/APP_DIR: an explicit environment variable first, then a
// computed per-user default (spec.md §6).
func Discover() *Home {
	if dir := os.Getenv("CLYDE_HOME"); dir != "" {
		return New(dir)
	}
	return New(defaultRoot())
}

func defaultRoot() string {
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "clyde")
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		userHome = "."
	}
	return filepath.Join(userHome, ".clyde")
}

// Exists reports whether the home's root directory is already present.
func (h *Home) Exists() bool {
	info, err := os.Stat(h.Root)
	return err == nil && info.IsDir()
}

// Validate enforces "a home must exist before any command other than
// setup runs" (spec.md §3).
func (h *Home) Validate() error {
	if !h.Exists() {
		return clydeerr.New(clydeerr.HomeMissing, "", fmt.Sprintf("clyde home %s does not exist; run 'clyde setup' first", h.Root), nil)
	}
	return nil
}

// Create lays out a brand new home's directory tree. It refuses to run
// if the root already exists (spec.md §4.10).
func (h *Home) Create() error {
	if h.Exists() {
		return clydeerr.New(clydeerr.HomeAlreadyExists, "", fmt.Sprintf("clyde home %s already exists", h.Root), nil)
	}
	for _, dir := range []string{h.Root, h.Store, h.Inst, h.Tmp, h.Download, h.Scripts} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("creating %s: %w", dir, err))
		}
	}
	logger.Debugf("created clyde home at %s", h.Root)
	return nil
}

// BinDir is the directory callers prepend to their search path via the
// generated activation snippet (spec.md §6).
func (h *Home) BinDir() string {
	return filepath.Join(h.Inst, "bin")
}
