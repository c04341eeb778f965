// Command systemctl is a drop-in replacement for the systemd/sysv service
// manager CLI, sized for containers that have no real init daemon: it reads
// unit descriptors straight off disk and, if invoked as PID 1, also takes
// over minimal init duties. Flag and verb plumbing follows the teacher's own
// Controller/Daemonizer split, rebuilt as a single binary instead of a
// library, using spf13/cobra for argument parsing in place of the teacher's
// hand-rolled os.Args walk.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/svcinit/systemctl/catalog"
	"github.com/svcinit/systemctl/engine"
	"github.com/svcinit/systemctl/initmode"
	"github.com/svcinit/systemctl/internal/logging"
	"github.com/svcinit/systemctl/runtimeconfig"
)

// exit codes per the teacher's convention of separating "ran but reported a
// problem" from "crashed".
const (
	exitOK       = 0
	exitFailure  = 1
	exitInactive = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := runtimeconfig.Default()

	root := &cobra.Command{
		Use:           "systemctl",
		Short:         "manage service units",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, patterns []string) error {
			return defaultVerb(cmd, &cfg, patterns)
		},
	}

	root.PersistentFlags().BoolVar(&cfg.Force, "force", false, "remove existing enable symlinks before recreating them")
	root.PersistentFlags().BoolVar(&cfg.Quiet, "quiet", false, "suppress informational output")
	root.PersistentFlags().BoolVar(&cfg.Full, "full", false, "do not truncate output fields")
	root.PersistentFlags().StringVarP(&cfg.PropertyFilter, "property", "p", "", "restrict 'show' output to this property")
	root.PersistentFlags().CountVarP(&cfg.Verbosity, "verbose", "v", "raise log verbosity (repeatable)")
	var showVersion bool
	root.PersistentFlags().BoolVar(&showVersion, "version", false, "print version and exit")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if showVersion {
			fmt.Fprintln(cmd.OutOrStdout(), versionString)
			os.Exit(exitOK)
		}
		return nil
	}

	exitCode := exitOK
	addVerbCommands(root, &cfg, &exitCode)

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return exitCode
}

// newEngine wires a fresh Catalog/Tracker/Registry stack per invocation,
// matching the stateless, filesystem-is-state design: nothing about service
// state is cached across process runs.
func newEngine(cfg runtimeconfig.RuntimeConfig) *engine.Engine {
	log := logging.New(cfg.Verbosity)
	cat := catalog.New()
	return engine.New(cat, cfg, log)
}

// defaultVerb implements "invoked with no verb": list-units, unless the
// current process is PID 0 or 1, in which case it runs as init.
func defaultVerb(cmd *cobra.Command, cfg *runtimeconfig.RuntimeConfig, patterns []string) error {
	pid := os.Getpid()
	if pid == 0 || pid == 1 {
		return runInit(cfg)
	}
	return listUnits(cmd, *cfg)
}

func runInit(cfg *runtimeconfig.RuntimeConfig) error {
	eng := newEngine(*cfg)
	log := logging.New(cfg.Verbosity)

	r := initmode.New(eng, log)
	notifyShutdown(r.Signals)

	return r.Run()
}
