package installer

import "github.com/flanksource/clicky/task"

// InstallOptions configures a single Install call, in the teacher's
// functional-options idiom (pkg/installer/options.go before adaptation).
type InstallOptions struct {
	Reinstall bool
	Task      *task.Task
}

// InstallOption mutates InstallOptions.
type InstallOption func(*InstallOptions)

// WithReinstall allows installing over an already-installed version,
// spec.md §4.7 step 4's --reinstall flag.
func WithReinstall(reinstall bool) InstallOption {
	return func(o *InstallOptions) { o.Reinstall = reinstall }
}

// WithTask attaches a progress-reporting task to the install.
func WithTask(t *task.Task) InstallOption {
	return func(o *InstallOptions) { o.Task = t }
}

func defaultOptions() InstallOptions {
	return InstallOptions{}
}
