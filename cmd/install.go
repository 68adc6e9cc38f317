package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/clyde-pm/clyde/pkg/installer"
	"github.com/spf13/cobra"
)

var installReinstall bool

var installCmd = &cobra.Command{
	Use:          "install PKG[@REQUIREMENT]...",
	Short:        "Install one or more packages",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().BoolVar(&installReinstall, "reinstall", false, "Reinstall even if the requested version is already installed")
}

// parsePackageArg splits a `NAME@REQUIREMENT` argument per spec.md §6's
// argument grammar; an absent `@REQUIREMENT` means the unconstrained `*`.
func parsePackageArg(arg string) (name, requirement string) {
	if idx := strings.Index(arg, "@"); idx >= 0 {
		return arg[:idx], arg[idx+1:]
	}
	return arg, ""
}

func runInstall(cmd *cobra.Command, args []string) error {
	h, s, db, release, err := openHome()
	if err != nil {
		printCommandError(err)
		return err
	}
	defer release()

	inst := installer.New(s, db, h)

	var opts []installer.InstallOption
	if installReinstall {
		opts = append(opts, installer.WithReinstall(true))
	}

	for _, arg := range args {
		name, requirement := parsePackageArg(arg)
		var installErr error
		task.StartTask(fmt.Sprintf("install %s", name), func(ctx flanksourceContext.Context, t *task.Task) (interface{}, error) {
			taskOpts := append(append([]installer.InstallOption{}, opts...), installer.WithTask(t))
			installErr = inst.Install(context.Background(), name, requirement, taskOpts...)
			return nil, installErr
		})
		if installErr != nil {
			printCommandError(installErr)
			return installErr
		}
		fmt.Printf("Installed %s\n", name)
	}

	return nil
}
