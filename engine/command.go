package engine

import (
	"fmt"
	"os/exec"
	"strings"
)

// parsedCommand is one Exec*= line split into its check flag and argv,
// per the command-prefix invariant: a leading '-' means "ignore non-zero
// exit status"; the dash is stripped before execution and the check flag
// is false.
type parsedCommand struct {
	check bool
	argv  []string
}

func parseCommand(raw string) parsedCommand {
	check := true
	if strings.HasPrefix(raw, "-") {
		check = false
		raw = strings.TrimPrefix(raw, "-")
	}
	return parsedCommand{check: check, argv: splitArgv(raw)}
}

// splitArgv tokenizes a shell-style command line, honoring single and
// double quoting, without invoking an actual shell.
func splitArgv(line string) []string {
	var (
		argv          []string
		current       strings.Builder
		hasCurrent    bool
		inSingleQuote bool
		inDoubleQuote bool
	)

	flush := func() {
		if hasCurrent {
			argv = append(argv, current.String())
			current.Reset()
			hasCurrent = false
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			hasCurrent = true
		case c == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			hasCurrent = true
		case c == ' ' && !inSingleQuote && !inDoubleQuote:
			flush()
		default:
			current.WriteByte(c)
			hasCurrent = true
		}
	}
	flush()

	return argv
}

// wrapUserGroup prefixes argv with a runuser invocation when user and/or
// group is set, per spec.md §4.5's exact prefix: "/usr/sbin/runuser -g
// <grp> -u <usr> -- ", with degenerate forms when only one is set.
func wrapUserGroup(argv []string, user, group string) []string {
	var prefix []string
	switch {
	case group != "" && user != "":
		prefix = []string{"/usr/sbin/runuser", "-g", group, "-u", user, "--"}
	case group != "":
		prefix = []string{"/usr/sbin/runuser", "-g", group, "--"}
	case user != "":
		prefix = []string{"/usr/sbin/runuser", "-u", user, "--"}
	default:
		return argv
	}
	return append(prefix, argv...)
}

// runSpawn starts argv with the given environment and does not wait for it
// to exit. It returns the spawned PID.
func runSpawn(argv []string, env []string) (pid int, err error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	go cmd.Wait() // reap without blocking the caller
	return cmd.Process.Pid, nil
}

// runWait starts argv and waits for it to exit, returning the exit error
// (nil on success).
func runWait(argv []string, env []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	return cmd.Run()
}
