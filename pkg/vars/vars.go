// Package vars implements the ${name} variable expansion used by the
// file-placement engine (spec.md §4.6). A pure text substitution, not a
// templating engine: known variables are substituted textually and any
// ${...} token surviving expansion is a fatal error.
package vars

import (
	"fmt"
	"regexp"
	"strings"
)

// Map is a set of known variable values, keyed by name without the
// surrounding ${}.
type Map map[string]string

var tokenPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// Expand substitutes every ${name} occurrence in src with vars[name].
// Each known name is replaced by its value, textually, everywhere it
// appears.
func Expand(src string, vars Map) string {
	dst := src
	for name, value := range vars {
		dst = strings.ReplaceAll(dst, "${"+name+"}", value)
	}
	return dst
}

// CheckResolved scans dst for any remaining ${...} token after expansion.
// spec.md §4.6: an unresolved token after expansion is fatal, so a
// descriptor referring to a variable this core doesn't know about is
// rejected rather than silently leaving the literal token in place.
func CheckResolved(dst string) error {
	if m := tokenPattern.FindStringSubmatch(dst); m != nil {
		return fmt.Errorf("unknown variable %q in %q", m[1], dst)
	}
	return nil
}

// ExpandChecked expands src and fails if any token is left unresolved.
func ExpandChecked(src string, known Map) (string, error) {
	out := Expand(src, known)
	if err := CheckResolved(out); err != nil {
		return "", err
	}
	return out, nil
}
