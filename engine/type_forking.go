package engine

// forkingType implements the "forking" service type: the started process
// is expected to daemonize itself and write its own PID file, so the
// engine waits for the launcher command to exit and then polls for the
// PID file to appear.
type forkingType struct{}

func (forkingType) Start(ctx *unitContext) error {
	if err := ctx.runHooks("ExecStartPre"); err != nil {
		return err
	}
	if err := ctx.waitPrimary("ExecStart"); err != nil {
		return err
	}
	if _, ok := ctx.eng.Tracker.WaitForPidFile(ctx.pidFile); !ok {
		ctx.eng.Log.WithField("unit", ctx.name).Warn("timed out waiting for pid file after start")
	}
	return ctx.runHooks("ExecStartPost")
}

func (forkingType) Stop(ctx *unitContext) error {
	if err := ctx.runHooks("ExecStopPre"); err != nil {
		return err
	}

	values, _ := ctx.desc.GetList("Service", "ExecStop")
	if len(values) == 0 {
		if err := ctx.killAndRemovePid(); err != nil {
			return err
		}
	} else {
		wasActive := ctx.isActive()
		if err := ctx.waitChecked("ExecStop", wasActive); err != nil {
			return err
		}
		if _, ok := ctx.eng.Tracker.WaitForPidFile(ctx.pidFile); !ok {
			ctx.eng.Log.WithField("unit", ctx.name).Warn("timed out waiting for pid file after stop")
		}
	}

	return ctx.runHooks("ExecStopPost")
}

func (forkingType) Reload(ctx *unitContext) error {
	if err := ctx.runHooks("ExecReloadPre"); err != nil {
		return err
	}
	if _, err := ctx.spawnPrimary("ExecReload"); err != nil {
		return err
	}
	if _, ok := ctx.eng.Tracker.WaitForPidFile(ctx.pidFile); !ok {
		ctx.eng.Log.WithField("unit", ctx.name).Warn("timed out waiting for pid file after reload")
	}
	return ctx.runHooks("ExecReloadPost")
}

func (f forkingType) Restart(ctx *unitContext) error {
	if err := ctx.runHooks("ExecRestartPre"); err != nil {
		return err
	}

	values, _ := ctx.desc.GetList("Service", "ExecRestart")
	if len(values) == 0 {
		if err := f.Stop(ctx); err != nil {
			return err
		}
		if err := f.Start(ctx); err != nil {
			return err
		}
	} else {
		if err := ctx.waitPrimary("ExecRestart"); err != nil {
			return err
		}
		if _, ok := ctx.eng.Tracker.WaitForPidFile(ctx.pidFile); !ok {
			ctx.eng.Log.WithField("unit", ctx.name).Warn("timed out waiting for pid file after restart")
		}
	}

	return ctx.runHooks("ExecRestartPost")
}
