// Package engine is the execution engine: the state-machine driver that,
// given a parsed descriptor, runs one of the lifecycle verbs. It is the
// core of the service lifecycle system described in SPEC_FULL.md.
package engine

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/svcinit/systemctl/catalog"
	"github.com/svcinit/systemctl/proctrack"
	"github.com/svcinit/systemctl/registry"
	"github.com/svcinit/systemctl/runtimeconfig"
)

// Engine is stateless and re-entrant across process invocations: every
// verb re-derives state from the filesystem rather than caching liveness
// or enablement across calls, per Design Note "Stateless runtime,
// filesystem as state".
type Engine struct {
	Catalog  *catalog.Catalog
	Tracker  *proctrack.Tracker
	Registry *registry.Registry
	Config   runtimeconfig.RuntimeConfig
	Log      logrus.FieldLogger
}

// New builds an Engine from a runtime configuration. A nil log defaults to
// a logrus.Logger discarding its own output, so callers (including tests)
// that don't care about logging can pass nil without risking a nil-interface
// method call elsewhere in the engine.
func New(cat *catalog.Catalog, cfg runtimeconfig.RuntimeConfig, log logrus.FieldLogger) *Engine {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	tracker := proctrack.New(log)
	if cfg.WaitProcFileIterations > 0 {
		tracker.WaitProcFileIterations = cfg.WaitProcFileIterations
	}
	if cfg.WaitKillProcIterations > 0 {
		tracker.WaitKillProcIterations = cfg.WaitKillProcIterations
	}

	return &Engine{
		Catalog:  cat,
		Tracker:  tracker,
		Registry: registry.New(cfg.Force),
		Config:   cfg,
		Log:      log,
	}
}

func (e *Engine) loadContext(name string) (*unitContext, error) {
	desc, err := e.Catalog.Load(name)
	if err != nil {
		return nil, err
	}

	pidFile := desc.GetDefault("Service", "PIDFile", "")
	if pidFile == "" {
		// Name the default pid file after the resolved unit, so "demo" and
		// "demo.service" share one pid file.
		unitName := name
		if desc.Loaded() && !strings.HasSuffix(unitName, ".service") {
			unitName += ".service"
		}
		pidFile = proctrack.DefaultPidFile(unitName)
	}

	return &unitContext{
		eng:     e,
		name:    name,
		desc:    desc,
		pidFile: pidFile,
		legacy:  e.Catalog.IsLegacy(name),
	}, nil
}

func (e *Engine) dispatch(name string, run func(st serviceType, ctx *unitContext) error) error {
	ctx, err := e.loadContext(name)
	if err != nil {
		return err
	}
	st, err := resolveType(ctx.desc)
	if err != nil {
		return err
	}
	return run(st, ctx)
}

// Start, Stop, Reload, Restart dispatch on Service.Type per spec.md §4.5.
func (e *Engine) Start(name string) error {
	return e.dispatch(name, func(st serviceType, ctx *unitContext) error { return st.Start(ctx) })
}

func (e *Engine) Stop(name string) error {
	return e.dispatch(name, func(st serviceType, ctx *unitContext) error { return st.Stop(ctx) })
}

func (e *Engine) Reload(name string) error {
	return e.dispatch(name, func(st serviceType, ctx *unitContext) error { return st.Reload(ctx) })
}

func (e *Engine) Restart(name string) error {
	return e.dispatch(name, func(st serviceType, ctx *unitContext) error { return st.Restart(ctx) })
}

// TryRestart restarts only if the unit is currently active; otherwise it
// succeeds silently.
func (e *Engine) TryRestart(name string) error {
	active, err := e.IsActive(name)
	if err != nil {
		return err
	}
	if !active {
		return nil
	}
	return e.Restart(name)
}

// ReloadOrRestart reloads if the unit is active and declares ExecReload;
// starts it if it is not active; otherwise restarts it.
func (e *Engine) ReloadOrRestart(name string) error {
	active, err := e.IsActive(name)
	if err != nil {
		return err
	}
	if !active {
		return e.Start(name)
	}

	ctx, err := e.loadContext(name)
	if err != nil {
		return err
	}
	if values, _ := ctx.desc.GetList("Service", "ExecReload"); len(values) > 0 {
		return e.Reload(name)
	}
	return e.Restart(name)
}

// ReloadOrTryRestart reloads if ExecReload is declared; otherwise restarts
// only if active, succeeding silently when inactive.
func (e *Engine) ReloadOrTryRestart(name string) error {
	ctx, err := e.loadContext(name)
	if err != nil {
		return err
	}
	if values, _ := ctx.desc.GetList("Service", "ExecReload"); len(values) > 0 {
		return e.Reload(name)
	}

	active, err := e.IsActive(name)
	if err != nil {
		return err
	}
	if !active {
		return nil
	}
	return e.Restart(name)
}

// Kill reads the unit's PID and kills it with TERM->KILL escalation.
func (e *Engine) Kill(name string) error {
	ctx, err := e.loadContext(name)
	if err != nil {
		return err
	}
	pid, ok := e.Tracker.ReadPid(ctx.pidFile)
	if !ok {
		return nil
	}
	return e.Tracker.KillPid(pid)
}

// IsActive reports whether the unit's pid file resolves to a live process.
func (e *Engine) IsActive(name string) (bool, error) {
	ctx, err := e.loadContext(name)
	if err != nil {
		return false, err
	}
	return ctx.isActive(), nil
}

// IsFailed is the inverse of IsActive; a unit whose descriptor did not
// load is always "failed".
func (e *Engine) IsFailed(name string) (bool, error) {
	ctx, err := e.loadContext(name)
	if err != nil {
		return true, err
	}
	if !ctx.desc.Loaded() {
		return true, nil
	}
	return !ctx.isActive(), nil
}

// IsEnabled reports whether name's enable symlink exists.
func (e *Engine) IsEnabled(name string) (bool, error) {
	ctx, err := e.loadContext(name)
	if err != nil {
		return false, err
	}
	if ctx.legacy {
		return e.Registry.IsEnabledLegacy(baseUnitName(name)), nil
	}
	return e.Registry.IsEnabledModern(ctx.desc, ctx.desc.Primary()), nil
}

// Enable enables name for auto-start: modern units get a wants-directory
// symlink; legacy units get S50/K50 runlevel symlinks.
func (e *Engine) Enable(name string) error {
	ctx, err := e.loadContext(name)
	if err != nil {
		return err
	}
	if ctx.legacy {
		return e.Registry.EnableLegacy(baseUnitName(name), ctx.desc.Primary())
	}
	_, err = e.Registry.EnableModern(ctx.desc, ctx.desc.Primary())
	return err
}

// Disable removes name's enable symlink(s), if present.
func (e *Engine) Disable(name string) error {
	ctx, err := e.loadContext(name)
	if err != nil {
		return err
	}
	if ctx.legacy {
		return e.Registry.DisableLegacy(baseUnitName(name))
	}
	return e.Registry.DisableModern(ctx.desc, ctx.desc.Primary())
}

func baseUnitName(name string) string {
	return strings.TrimSuffix(name, ".service")
}

// Cat returns the raw text of the primary descriptor file.
func (e *Engine) Cat(name string) (string, error) {
	ctx, err := e.loadContext(name)
	if err != nil {
		return "", err
	}
	if !ctx.desc.Loaded() {
		return "", fmt.Errorf("unit %s not found", name)
	}
	contents, err := os.ReadFile(ctx.desc.Primary())
	if err != nil {
		return "", err
	}
	return string(contents), nil
}

// Status renders the multi-line human text spec.md §4.5 describes and
// returns the exit code that should accompany it: 0 if active, 3
// otherwise (including when the descriptor did not load).
func (e *Engine) Status(name string) (string, int, error) {
	ctx, err := e.loadContext(name)
	if err != nil {
		return "", 1, err
	}

	if !ctx.desc.Loaded() {
		return fmt.Sprintf("%s - not found\n   Loaded: not-found\n   Active: inactive (dead)\n", name), 3, nil
	}

	desc := ctx.desc.GetDefault("Unit", "Description", "")
	active := ctx.isActive()

	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", name, desc)

	enabledState := "static"
	if !registry.IsStaticModern(ctx.desc) || ctx.legacy {
		if enabled, _ := e.IsEnabled(name); enabled {
			enabledState = "enabled"
		} else {
			enabledState = "disabled"
		}
	}
	fmt.Fprintf(&b, "   Loaded: loaded (%s; %s)\n", ctx.desc.Primary(), enabledState)

	if active {
		pid, _ := e.Tracker.ReadPid(ctx.pidFile)
		fmt.Fprintf(&b, "   Active: active (PID %d)\n", pid)
		return b.String(), 0, nil
	}

	fmt.Fprintf(&b, "   Active: inactive (dead)\n")
	return b.String(), 3, nil
}

// Show enumerates the properties spec.md §4.5 names, filtered to
// Config.PropertyFilter when set.
func (e *Engine) Show(name string) ([]string, error) {
	ctx, err := e.loadContext(name)
	if err != nil {
		return nil, err
	}

	active := ctx.isActive()
	mainPID := "0"
	subState := "dead"
	activeState := "dead"
	if active {
		pid, _ := e.Tracker.ReadPid(ctx.pidFile)
		mainPID = itoa(pid)
		subState = fmt.Sprintf("PID %d", pid)
		activeState = "active"
	}
	loadState := "not-loaded"
	if ctx.desc.Loaded() {
		loadState = "loaded"
	}

	props := []struct{ key, value string }{
		{"Id", name},
		{"Names", name},
		{"Description", ctx.desc.GetDefault("Unit", "Description", "")},
		{"MainPID", mainPID},
		{"SubState", subState},
		{"ActiveState", activeState},
		{"LoadState", loadState},
	}

	if envs, ok := ctx.desc.GetList("Service", "Environment"); ok {
		props = append(props, struct{ key, value string }{"Environment", strings.Join(envs, " ")})
	}
	if envFiles, ok := ctx.desc.GetList("Service", "EnvironmentFile"); ok {
		props = append(props, struct{ key, value string }{"EnvironmentFile", strings.Join(envFiles, " ")})
	}

	var out []string
	for _, p := range props {
		if e.Config.PropertyFilter != "" && p.key != e.Config.PropertyFilter {
			continue
		}
		out = append(out, fmt.Sprintf("%s=%s", p.key, p.value))
	}
	return out, nil
}

// UnitSummary is one row of ListUnits output: the unit name, whether its
// descriptor loaded, and its first-line description (a supplement to the
// distilled spec, grounded on the original's show_list_units tuples).
type UnitSummary struct {
	Name        string
	Loaded      bool
	Description string
}

// ListUnits returns every known unit, modern and legacy together, sorted
// by name, with its load state and description.
func (e *Engine) ListUnits() ([]UnitSummary, error) {
	names := e.Catalog.MatchUnits(nil)
	sort.Strings(names)

	out := make([]UnitSummary, 0, len(names))
	for _, name := range names {
		desc, err := e.Catalog.Load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, UnitSummary{
			Name:        name,
			Loaded:      desc.Loaded(),
			Description: desc.GetDefault("Unit", "Description", ""),
		})
	}
	return out, nil
}

// Batch runs verb over every unit matching patterns (in sorted,
// per-dialect order). A single unit's failure is logged and degrades the
// aggregate result to false, but does not stop subsequent units from
// running.
func (e *Engine) Batch(patterns []string, verb func(name string) error) bool {
	units := e.Catalog.MatchUnits(patterns)
	ok := true
	for _, name := range units {
		if err := verb(name); err != nil {
			if e.Log != nil {
				e.Log.WithField("unit", name).WithError(err).Error("verb failed")
			}
			ok = false
		}
	}
	return ok
}
