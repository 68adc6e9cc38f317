// Package activate generates the shell-agnostic activation snippet
// spec.md §4.10/§6 describes: a small script that, when sourced,
// prepends <home>/inst/bin to the caller's search path. Grounded on the
// teacher's cmd/root.go conventions for writing generated files under a
// well-known config directory (same MkdirAll-then-WriteFile shape).
package activate

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
)

const fileName = "activate.sh"

// Path returns the activation snippet's location under a home's scripts
// directory.
func Path(scriptsDir string) string {
	return filepath.Join(scriptsDir, fileName)
}

// Write renders and writes the activation snippet for binDir (normally
// <home>/inst/bin) into scriptsDir.
func Write(scriptsDir, binDir string) error {
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", err)
	}

	quoted := quote(translate(binDir))
	content := fmt.Sprintf(`# Generated by clyde setup. Source this file to add Clyde's
# install prefix to your PATH:
#   . %s
case ":$PATH:" in
  *":%s:"*) ;;
  *) export PATH=%s:"$PATH" ;;
esac
`, Path(scriptsDir), binDir, quoted)

	if err := os.WriteFile(Path(scriptsDir), []byte(content), 0o644); err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	return nil
}

// quote wraps path in double quotes, escaping embedded `"`, `$` and `` ` ``
// so the snippet survives spaces and non-ASCII characters when sourced by
// a POSIX shell.
func quote(path string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`").Replace(path)
	return `"` + escaped + `"`
}

// translate converts a Windows path into its shell's POSIX-style form
// when a translator (cygpath) is available, per spec.md §4.10's "on
// Windows hosts the path is first translated ... when such a translator
// is available". When no translator is present the original path is
// used unchanged; the generated snippet still works under cmd.exe/
// PowerShell callers that source it via a POSIX-compatible shell like
// Git Bash or MSYS, which is the only case this snippet is meant for.
func translate(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}
	out, err := exec.Command("cygpath", "-u", path).Output()
	if err != nil {
		return path
	}
	return strings.TrimSpace(string(out))
}
