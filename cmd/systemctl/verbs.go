package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/svcinit/systemctl/engine"
	"github.com/svcinit/systemctl/runtimeconfig"
)

const versionString = "systemctl (svcinit) 1.0.0"

// engineHandle is the type every verb closure receives; kept as a local
// alias so this file reads close to spec.md §6's own verb table rather than
// repeating the import-qualified type everywhere.
type engineHandle = engine.Engine

// addVerbCommands registers one cobra.Command per verb spec.md §6 names,
// each sharing the same RuntimeConfig and writing its outcome into
// *exitCode rather than returning an error for "ran fine but reports
// failure" cases, matching the 0/1/3 exit-code contract.
func addVerbCommands(root *cobra.Command, cfg *runtimeconfig.RuntimeConfig, exitCode *int) {
	root.AddCommand(
		simpleBatchCmd(cfg, exitCode, "start", "start one or more units", func(eng *engineHandle, name string) error { return eng.Start(name) }),
		simpleBatchCmd(cfg, exitCode, "stop", "stop one or more units", func(eng *engineHandle, name string) error { return eng.Stop(name) }),
		simpleBatchCmd(cfg, exitCode, "reload", "reload one or more units", func(eng *engineHandle, name string) error { return eng.Reload(name) }),
		simpleBatchCmd(cfg, exitCode, "restart", "restart one or more units", func(eng *engineHandle, name string) error { return eng.Restart(name) }),
		simpleBatchCmd(cfg, exitCode, "try-restart", "restart one or more units only if active", func(eng *engineHandle, name string) error { return eng.TryRestart(name) }),
		simpleBatchCmd(cfg, exitCode, "reload-or-restart", "reload, or restart if reload is unsupported", func(eng *engineHandle, name string) error { return eng.ReloadOrRestart(name) }),
		simpleBatchCmd(cfg, exitCode, "reload-or-try-restart", "reload-or-restart only if active", func(eng *engineHandle, name string) error { return eng.ReloadOrTryRestart(name) }),
		simpleBatchCmd(cfg, exitCode, "kill", "send TERM/KILL to one or more units", func(eng *engineHandle, name string) error { return eng.Kill(name) }),
		simpleBatchCmd(cfg, exitCode, "enable", "enable one or more units for auto-start", func(eng *engineHandle, name string) error { return eng.Enable(name) }),
		simpleBatchCmd(cfg, exitCode, "disable", "disable one or more units", func(eng *engineHandle, name string) error { return eng.Disable(name) }),

		boolQueryCmd(cfg, exitCode, "is-active", "report whether a unit is active", func(eng *engineHandle, name string) (bool, error) { return eng.IsActive(name) }),
		boolQueryCmd(cfg, exitCode, "is-failed", "report whether a unit is failed", func(eng *engineHandle, name string) (bool, error) { return eng.IsFailed(name) }),
		boolQueryCmd(cfg, exitCode, "is-enabled", "report whether a unit is enabled", func(eng *engineHandle, name string) (bool, error) { return eng.IsEnabled(name) }),

		listUnitsCmd(cfg, exitCode),
		showCmd(cfg, exitCode),
		statusCmd(cfg, exitCode),
		catCmd(cfg, exitCode),
		daemonReloadCmd(),
		versionCmd(),
		defaultCmd(cfg, exitCode),
		haltCmd(cfg, exitCode),
	)
}

func simpleBatchCmd(cfg *runtimeconfig.RuntimeConfig, exitCode *int, use, short string, fn func(*engineHandle, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " UNIT...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, patterns []string) error {
			eng := newEngine(*cfg)
			ok := eng.Batch(patterns, func(name string) error { return fn(eng, name) })
			if !ok {
				*exitCode = exitFailure
			}
			return nil
		},
	}
}

func boolQueryCmd(cfg *runtimeconfig.RuntimeConfig, exitCode *int, use, short string, fn func(*engineHandle, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " UNIT...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, names []string) error {
			eng := newEngine(*cfg)
			allTrue := true
			for _, name := range names {
				result, err := fn(eng, name)
				if err != nil {
					return err
				}
				if !cfg.Quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %t\n", name, result)
				}
				if !result {
					allTrue = false
				}
			}
			if !allTrue {
				*exitCode = exitFailure
			}
			return nil
		},
	}
}

func listUnitsCmd(cfg *runtimeconfig.RuntimeConfig, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "list-units",
		Short: "list known units and their load state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listUnits(cmd, *cfg)
		},
	}
}

func listUnits(cmd *cobra.Command, cfg runtimeconfig.RuntimeConfig) error {
	eng := newEngine(cfg)
	units, err := eng.ListUnits()
	if err != nil {
		return err
	}
	for _, u := range units {
		loaded := "loaded"
		if !u.Loaded {
			loaded = "not-found"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-40s %-10s %s\n", u.Name, loaded, u.Description)
	}
	return nil
}

func showCmd(cfg *runtimeconfig.RuntimeConfig, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "show UNIT...",
		Short: "show properties of one or more units",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, names []string) error {
			eng := newEngine(*cfg)
			for _, name := range names {
				props, err := eng.Show(name)
				if err != nil {
					*exitCode = exitFailure
					continue
				}
				for _, p := range props {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
			}
			return nil
		},
	}
}

func statusCmd(cfg *runtimeconfig.RuntimeConfig, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "status UNIT...",
		Short: "show runtime status of one or more units",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, names []string) error {
			eng := newEngine(*cfg)
			worst := exitOK
			for _, name := range names {
				text, code, err := eng.Status(name)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
				if code > worst {
					worst = code
				}
			}
			if worst != exitOK {
				*exitCode = worst
			}
			return nil
		},
	}
}

func catCmd(cfg *runtimeconfig.RuntimeConfig, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "cat UNIT...",
		Short: "print the raw descriptor file of one or more units",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, names []string) error {
			eng := newEngine(*cfg)
			for _, name := range names {
				text, err := eng.Cat(name)
				if err != nil {
					*exitCode = exitFailure
					continue
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
			}
			return nil
		},
	}
}

// daemon-reload has nothing to reload (descriptors are read fresh on every
// invocation already), so it is accepted and does nothing, matching the
// compatibility requirement in spec.md §6.
func daemonReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon-reload",
		Short: "reload unit descriptors (accepted, no-op)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return nil
		},
	}
}

// default (with its aliases 0 and 1) is the explicit spelling of init mode,
// useful when this binary is exec'd by another init rather than being PID 1
// itself. halt stops every known unit; it does not use init mode's
// K-prefixed halt set.
func defaultCmd(cfg *runtimeconfig.RuntimeConfig, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "default",
		Short: "run init mode: start the wants set and idle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runInit(cfg); err != nil {
				*exitCode = exitFailure
				return err
			}
			return nil
		},
	}
	// "0" and "1" are systemd's own runlevel-style aliases for this verb.
	cmd.Aliases = []string{"0", "1"}
	return cmd
}

func haltCmd(cfg *runtimeconfig.RuntimeConfig, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "halt",
		Short: "stop every known unit, in name order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng := newEngine(*cfg)
			units, err := eng.ListUnits()
			if err != nil {
				return err
			}
			names := make([]string, 0, len(units))
			for _, u := range units {
				names = append(names, u.Name)
			}
			sort.Strings(names)
			if !eng.Batch(names, eng.Stop) {
				*exitCode = exitFailure
			}
			return nil
		},
	}
}
