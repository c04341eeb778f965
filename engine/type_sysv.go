package engine

// sysvType implements the "sysv" service type synthesized for legacy
// init.d descriptors: every verb invokes the init.d script itself with the
// matching argument and waits for it to exit, wrapped in the same
// Pre/Post hook pair every other service type honors.
type sysvType struct{}

const sysvSkipRedirectEnv = "SYSTEMCTL_SKIP_REDIRECT=yes"

func (sysvType) invoke(ctx *unitContext, verb string) error {
	script := ctx.sysvScriptPath()
	env, err := ctx.buildEnv()
	if err != nil {
		return err
	}
	env = append(env, sysvSkipRedirectEnv)

	if err := runWait([]string{script, verb}, env); err != nil {
		return wrapCommandError(script+" "+verb, err)
	}
	return nil
}

func (s sysvType) Start(ctx *unitContext) error {
	if err := ctx.runHooks("ExecStartPre"); err != nil {
		return err
	}
	if err := s.invoke(ctx, "start"); err != nil {
		return err
	}
	return ctx.runHooks("ExecStartPost")
}

func (s sysvType) Stop(ctx *unitContext) error {
	if err := ctx.runHooks("ExecStopPre"); err != nil {
		return err
	}
	if err := s.invoke(ctx, "stop"); err != nil {
		return err
	}
	return ctx.runHooks("ExecStopPost")
}

func (s sysvType) Reload(ctx *unitContext) error {
	if err := ctx.runHooks("ExecReloadPre"); err != nil {
		return err
	}
	if err := s.invoke(ctx, "reload"); err != nil {
		return err
	}
	return ctx.runHooks("ExecReloadPost")
}

func (s sysvType) Restart(ctx *unitContext) error {
	if err := ctx.runHooks("ExecRestartPre"); err != nil {
		return err
	}
	if err := s.invoke(ctx, "restart"); err != nil {
		return err
	}
	return ctx.runHooks("ExecRestartPost")
}
