// Package term provides the pager-aware output helper used by `search`
// and `list`: long output is piped through $PAGER when stdout is a
// terminal, otherwise written directly so piping/redirecting a command's
// output behaves normally. Grounded on original_source/src/pager.rs's
// isatty-then-exec-pager shape; the terminal check itself has no
// idiomatic Go library in this pack's domain aside from the isatty
// detector already pulled in transitively by flanksource/clicky, so it
// is used directly rather than duplicated.
package term

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/mattn/go-isatty"
)

// IsInteractive reports whether stdout is attached to a terminal.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Writer returns a writer for command output: $PAGER piped through when
// stdout is a terminal and $PAGER is set, otherwise os.Stdout directly.
// The returned close func must be called (and its error checked) once
// writing is complete.
func Writer() (w io.Writer, close func() error) {
	pager := os.Getenv("PAGER")
	if pager == "" || !IsInteractive() {
		return os.Stdout, func() error { return nil }
	}

	cmd := exec.Command("sh", "-c", pager)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return os.Stdout, func() error { return nil }
	}
	if err := cmd.Start(); err != nil {
		return os.Stdout, func() error { return nil }
	}

	return stdin, func() error {
		if err := stdin.Close(); err != nil {
			return err
		}
		return cmd.Wait()
	}
}

// Fprintln is a small convenience matching the teacher's table-printing
// call sites, so command code reads like a plain fmt.Println call.
func Fprintln(w io.Writer, args ...interface{}) {
	fmt.Fprintln(w, args...)
}
