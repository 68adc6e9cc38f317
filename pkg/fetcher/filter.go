package fetcher

import (
	"fmt"

	"github.com/flanksource/gomplate/v3"
)

// ApplyVersionExpr filters and/or renames release candidates with a
// descriptor-supplied CEL expression, evaluated once per candidate with
// `tag`, `version`, `prerelease`, and `published` bound in scope. A
// boolean result includes/excludes the candidate unchanged; any other
// non-empty string result replaces the candidate's Version.
//
// Grounded on the teacher's pkg/version/filter.go ApplyVersionExpr,
// narrowed to the Candidate type this package discovers releases into,
// and kept on the teacher's own CEL evaluator (flanksource/gomplate/v3,
// the same dependency pkg/pipeline/cel.go and config.go's templating use
// elsewhere in the corpus) rather than reaching for a different
// expression engine.
func ApplyVersionExpr(candidates []Candidate, expr string) ([]Candidate, error) {
	if expr == "" {
		return candidates, nil
	}

	var out []Candidate
	for _, c := range candidates {
		data := map[string]interface{}{
			"tag":        c.Tag,
			"version":    c.Version,
			"prerelease": c.Prerelease,
			"published":  c.Published,
		}

		evaluated, err := gomplate.RunTemplate(data, gomplate.Template{Expression: expr})
		if err != nil {
			return nil, fmt.Errorf("evaluating version_expr for tag %s: %w", c.Tag, err)
		}

		switch evaluated {
		case "true":
			out = append(out, c)
		case "false", "":
			continue
		default:
			c.Version = evaluated
			out = append(out, c)
		}
	}
	return out, nil
}
