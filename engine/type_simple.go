package engine

// simpleType implements "simple" and "notify" service types. notify shares
// this implementation (spec.md's dispatch table gives it identical
// behavior); actual sd_notify(3) readiness-protocol handling is out of
// scope (see SPEC_FULL.md §4.5).
type simpleType struct{}

func (simpleType) Start(ctx *unitContext) error {
	if err := ctx.runHooks("ExecStartPre"); err != nil {
		return err
	}

	pid, err := ctx.spawnPrimary("ExecStart")
	if err != nil {
		return err
	}
	if pid != 0 {
		if err := ctx.eng.Tracker.WritePid(ctx.pidFile, pid); err != nil {
			return err
		}
	}

	return ctx.runHooks("ExecStartPost")
}

func (simpleType) Stop(ctx *unitContext) error {
	if err := ctx.runHooks("ExecStopPre"); err != nil {
		return err
	}

	values, _ := ctx.desc.GetList("Service", "ExecStop")
	if len(values) == 0 {
		if err := ctx.killAndRemovePid(); err != nil {
			return err
		}
	} else {
		if _, err := ctx.spawnPrimary("ExecStop"); err != nil {
			return err
		}
	}

	return ctx.runHooks("ExecStopPost")
}

func (simpleType) Reload(ctx *unitContext) error {
	if err := ctx.runHooks("ExecReloadPre"); err != nil {
		return err
	}
	if _, err := ctx.spawnPrimary("ExecReload"); err != nil {
		return err
	}
	return ctx.runHooks("ExecReloadPost")
}

func (s simpleType) Restart(ctx *unitContext) error {
	if err := ctx.runHooks("ExecRestartPre"); err != nil {
		return err
	}

	values, _ := ctx.desc.GetList("Service", "ExecRestart")
	if len(values) == 0 {
		if err := s.Stop(ctx); err != nil {
			return err
		}
		if err := s.Start(ctx); err != nil {
			return err
		}
	} else {
		if _, err := ctx.spawnPrimary("ExecRestart"); err != nil {
			return err
		}
	}

	return ctx.runHooks("ExecRestartPost")
}
