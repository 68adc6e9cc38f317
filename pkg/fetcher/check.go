package fetcher

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func envPath() string { return os.Getenv("PATH") }

// RunTests runs a resolved install-spec's `tests` commands with the
// package's prefix bin directory prepended to PATH, for `clydetools
// check` — the post-install smoke-test tooling spec.md §1 scopes out of
// the install core ("the auxiliary tooling that ... runs post-install
// smoke tests"). A command containing shell operators is run through
// `sh -c`; a plain command is exec'd directly, avoiding an unnecessary
// shell fork for the common case.
//
// Grounded on the teacher's pkg/version/check.go command-shape detection
// (ContainsShellOperators), simplified: the teacher's version used this
// to resolve and probe a `--version` command across several package-
// manager install layouts. A descriptor's `tests` commands are plain,
// author-supplied strings run against one known prefix, so the binary-
// path resolution machinery that existed to search several candidate
// install directories is not needed here.
func RunTests(binDir string, tests []string) error {
	for _, cmd := range tests {
		if err := runOne(binDir, cmd); err != nil {
			return fmt.Errorf("test %q: %w", cmd, err)
		}
	}
	return nil
}

func runOne(binDir, command string) error {
	var cmd *exec.Cmd
	if containsShellOperators(command) {
		cmd = exec.Command("sh", "-c", command)
	} else {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return nil
		}
		cmd = exec.Command(fields[0], fields[1:]...)
	}
	env := cmd.Environ()
	filtered := env[:0]
	for _, kv := range env {
		if !strings.HasPrefix(kv, "PATH=") {
			filtered = append(filtered, kv)
		}
	}
	cmd.Env = append(filtered, "PATH="+binDir+string(filepath.ListSeparator)+envPath())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(out))
	}
	return nil
}

func containsShellOperators(cmd string) bool {
	for _, op := range []string{"|", ">", "<", "&&", "||", ";", "`", "$("} {
		if strings.Contains(cmd, op) {
			return true
		}
	}
	return false
}
