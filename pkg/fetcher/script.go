package fetcher

import (
	"context"
	"fmt"

	"github.com/clyde-pm/clyde/pkg/descriptor"
	"github.com/google/cel-go/cel"
)

// ScriptFetcher backs a descriptor's `Script{command: "<cel expr>"}`
// fetcher tag: the command is a CEL boolean expression evaluated once per
// arch-os entry of the underlying fetcher's result, with `name` bound to
// the arch-os key (e.g. "x86_64-linux"), `url` to the asset URL and `tag`
// to the discovered version. Entries for which it is not true are
// dropped. It only filters assets that detectArchOs already classified;
// assets the heuristics did not recognize never reach the predicate.
//
// Grounded on pkg/pipeline/cel.go's cel.NewEnv/cel.Variable/Program
// pattern (the teacher's only other direct google/cel-go consumer),
// narrowed from that package's full scripting DSL (glob/unarchive/move/
// chdir/...) to a single boolean-predicate evaluation since a fetcher's
// job here is classification, not running an install pipeline.
type ScriptFetcher struct {
	underlying Fetcher
}

// NewScriptFetcher wraps another discovery fetcher (GitHub or GitLab),
// re-filtering its asset URLs through the descriptor's CEL predicate.
func NewScriptFetcher(underlying Fetcher) *ScriptFetcher {
	return &ScriptFetcher{underlying: underlying}
}

func (f *ScriptFetcher) CanFetch(d *descriptor.Descriptor) bool {
	return d.Fetcher.Kind == descriptor.FetcherScript && d.Fetcher.Command != ""
}

func (f *ScriptFetcher) Fetch(ctx context.Context, d *descriptor.Descriptor) (UpdateStatus, error) {
	status, err := f.underlying.Fetch(ctx, d)
	if err != nil || status.UpToDate {
		return status, err
	}

	prg, err := compilePredicate(d.Fetcher.Command)
	if err != nil {
		return UpdateStatus{}, fmt.Errorf("compiling script predicate for %s: %w", d.Name, err)
	}

	for ao, url := range status.URLs {
		ok, _, err := prg.Eval(map[string]interface{}{
			"name": ao.String(),
			"url":  url,
			"tag":  status.Version,
		})
		if err != nil {
			return UpdateStatus{}, fmt.Errorf("evaluating script predicate for %s: %w", d.Name, err)
		}
		if b, isBool := ok.Value().(bool); !isBool || !b {
			delete(status.URLs, ao)
		}
	}
	if len(status.URLs) == 0 {
		return UpdateStatus{UpToDate: true}, nil
	}
	return status, nil
}

func compilePredicate(expr string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("url", cel.StringType),
		cel.Variable("tag", cel.StringType),
	)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return env.Program(ast)
}
