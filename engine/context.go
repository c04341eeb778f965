package engine

import (
	"github.com/svcinit/systemctl/descriptor"
)

// unitContext bundles everything a serviceType implementation needs to act
// on one resolved unit.
type unitContext struct {
	eng     *Engine
	name    string
	desc    *descriptor.Descriptor
	pidFile string
	legacy  bool
}

// user/group from Service.User / Service.Group, used for runuser wrapping.
func (c *unitContext) user() string {
	return c.desc.GetDefault("Service", "User", "")
}

func (c *unitContext) group() string {
	return c.desc.GetDefault("Service", "Group", "")
}

// buildEnv assembles the child environment for this unit's commands,
// including MAINPID from the pid file's current contents (possibly "").
func (c *unitContext) buildEnv() ([]string, error) {
	chunks, _ := c.desc.GetList("Service", "Environment")
	files, _ := c.desc.GetList("Service", "EnvironmentFile")

	mainPID := ""
	if pid, ok := c.eng.Tracker.ReadPid(c.pidFile); ok {
		mainPID = itoa(pid)
	}

	return environmentAssemble(chunks, files, mainPID)
}

// runHooks runs every value of section.option (always waited on,
// regardless of service type), honoring each command's check flag.
func (c *unitContext) runHooks(option string) error {
	values, _ := c.desc.GetList("Service", option)
	if len(values) == 0 {
		return nil
	}
	env, err := c.buildEnv()
	if err != nil {
		return err
	}
	for _, raw := range values {
		cmd := parseCommand(raw)
		argv := wrapUserGroup(cmd.argv, c.user(), c.group())
		if err := runWait(argv, env); err != nil && cmd.check {
			return wrapCommandError(raw, err)
		}
	}
	return nil
}

// spawnPrimary spawns each value of Service.<option>, without waiting, and
// returns the PID of the last one spawned (or 0 if option has no values).
func (c *unitContext) spawnPrimary(option string) (int, error) {
	values, _ := c.desc.GetList("Service", option)
	env, err := c.buildEnv()
	if err != nil {
		return 0, err
	}

	lastPid := 0
	for _, raw := range values {
		cmd := parseCommand(raw)
		argv := wrapUserGroup(cmd.argv, c.user(), c.group())
		pid, err := runSpawn(argv, env)
		if err != nil && cmd.check {
			return 0, wrapCommandError(raw, err)
		}
		if err == nil {
			lastPid = pid
		}
	}
	return lastPid, nil
}

// waitPrimary runs each value of Service.<option>, waiting for each to
// exit, honoring each command's check flag.
func (c *unitContext) waitPrimary(option string) error {
	values, _ := c.desc.GetList("Service", option)
	env, err := c.buildEnv()
	if err != nil {
		return err
	}
	for _, raw := range values {
		cmd := parseCommand(raw)
		argv := wrapUserGroup(cmd.argv, c.user(), c.group())
		if err := runWait(argv, env); err != nil && cmd.check {
			return wrapCommandError(raw, err)
		}
	}
	return nil
}

// waitChecked is waitPrimary but only honors each command's check flag
// when honorCheck is true (used by forking's stop, where the check flag is
// only honored while the unit is currently active).
func (c *unitContext) waitChecked(option string, honorCheck bool) error {
	values, _ := c.desc.GetList("Service", option)
	env, err := c.buildEnv()
	if err != nil {
		return err
	}
	for _, raw := range values {
		cmd := parseCommand(raw)
		argv := wrapUserGroup(cmd.argv, c.user(), c.group())
		if err := runWait(argv, env); err != nil && cmd.check && honorCheck {
			return wrapCommandError(raw, err)
		}
	}
	return nil
}

// killAndRemovePid implements the "ExecStop empty" stop behavior shared by
// simple, oneshot, and forking: kill the PID from the pid file (with
// TERM->KILL escalation) and remove the pid file.
func (c *unitContext) killAndRemovePid() error {
	if pid, ok := c.eng.Tracker.ReadPid(c.pidFile); ok {
		if err := c.eng.Tracker.KillPid(pid); err != nil {
			return err
		}
	}
	return c.eng.Tracker.RemovePid(c.pidFile)
}

// isActive reports whether the pid file resolves to a live process.
func (c *unitContext) isActive() bool {
	pid, ok := c.eng.Tracker.ReadPid(c.pidFile)
	if !ok {
		return false
	}
	alive, err := pidAlive(pid)
	return err == nil && alive
}

// sysvScriptPath returns the init.d script file backing a legacy
// descriptor.
func (c *unitContext) sysvScriptPath() string {
	return c.desc.Primary()
}
