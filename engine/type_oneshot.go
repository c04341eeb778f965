package engine

// oneshotType implements the "oneshot" service type: every Exec* command
// is waited on rather than left running.
type oneshotType struct{}

func (oneshotType) Start(ctx *unitContext) error {
	if err := ctx.runHooks("ExecStartPre"); err != nil {
		return err
	}
	if err := ctx.waitPrimary("ExecStart"); err != nil {
		return err
	}
	return ctx.runHooks("ExecStartPost")
}

func (oneshotType) Stop(ctx *unitContext) error {
	if err := ctx.runHooks("ExecStopPre"); err != nil {
		return err
	}

	values, _ := ctx.desc.GetList("Service", "ExecStop")
	if len(values) == 0 {
		if err := ctx.killAndRemovePid(); err != nil {
			return err
		}
	} else {
		if err := ctx.waitPrimary("ExecStop"); err != nil {
			return err
		}
	}

	return ctx.runHooks("ExecStopPost")
}

func (oneshotType) Reload(ctx *unitContext) error {
	if err := ctx.runHooks("ExecReloadPre"); err != nil {
		return err
	}
	if err := ctx.waitPrimary("ExecReload"); err != nil {
		return err
	}
	return ctx.runHooks("ExecReloadPost")
}

func (o oneshotType) Restart(ctx *unitContext) error {
	if err := ctx.runHooks("ExecRestartPre"); err != nil {
		return err
	}

	values, _ := ctx.desc.GetList("Service", "ExecRestart")
	if len(values) == 0 {
		if err := o.Stop(ctx); err != nil {
			return err
		}
		if err := o.Start(ctx); err != nil {
			return err
		}
	} else {
		if err := ctx.waitPrimary("ExecRestart"); err != nil {
			return err
		}
	}

	return ctx.runHooks("ExecRestartPost")
}
