// Package proctrack reads and writes PID files and manages process
// liveness, grounded on the signal-zero / TERM-then-KILL escalation pattern
// the teacher used in its System V daemon support.
package proctrack

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// DefaultWaitProcFileIterations and DefaultWaitKillProcIterations match the
// source's "_waitprocfile"/"_waitkillproc" globals.
const (
	DefaultWaitProcFileIterations = 100
	DefaultWaitKillProcIterations = 10
)

// Tracker manages PID files for services. The iteration counts are
// configurable (replacing the source's process-wide globals) but default to
// the source's own constants.
type Tracker struct {
	WaitProcFileIterations int
	WaitKillProcIterations int
	Sleep                  func(time.Duration)
	Log                    logrus.FieldLogger
}

// New returns a Tracker with the source's default wait iteration counts.
func New(log logrus.FieldLogger) *Tracker {
	return &Tracker{
		WaitProcFileIterations: DefaultWaitProcFileIterations,
		WaitKillProcIterations: DefaultWaitKillProcIterations,
		Sleep:                  time.Sleep,
		Log:                    log,
	}
}

// DefaultPidFile returns "/var/run/<unit>.pid".
func DefaultPidFile(unit string) string {
	return fmt.Sprintf("/var/run/%s.pid", unit)
}

// PidAlive reports whether pid refers to a live process, using a signal-zero
// probe. A "no such process" error means dead; "permission denied" means
// alive (the process exists but we can't signal it); any other error
// propagates.
func PidAlive(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true, nil
	}
	if err == unix.ESRCH {
		return false, nil
	}
	if err == unix.EPERM {
		return true, nil
	}
	return false, err
}

// ReadPid reads the first non-blank line of path and parses it as a PID.
// Malformed content is logged; both it and a missing file are treated as
// "no PID" rather than a fatal error.
func (t *Tracker) ReadPid(path string) (int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			if t.Log != nil {
				t.Log.WithField("path", path).WithField("line", line).Warn("malformed pid file contents")
			}
			return 0, false
		}
		return pid, true
	}
	return 0, false
}

// WritePid writes "<pid>\n" to path, creating the parent directory if
// missing.
func (t *Tracker) WritePid(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create pid file directory: %w", err)
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", pid)), 0o644)
}

// RemovePid removes the PID file, ignoring a not-exist error.
func (t *Tracker) RemovePid(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WaitForPidFile polls up to WaitProcFileIterations times (sleeping 1s
// between attempts) for path's parent directory to exist and contain a PID
// that is alive. It returns the first live PID found, or ok=false if
// exhausted.
func (t *Tracker) WaitForPidFile(path string) (pid int, ok bool) {
	for i := 0; i < t.WaitProcFileIterations; i++ {
		t.sleep(time.Second)

		if _, err := os.Stat(filepath.Dir(path)); err != nil {
			continue
		}

		candidate, found := t.ReadPid(path)
		if !found {
			continue
		}

		alive, err := PidAlive(candidate)
		if err != nil || !alive {
			continue
		}

		return candidate, true
	}
	return 0, false
}

// KillPid escalates from SIGTERM to SIGKILL, sleeping 1s between each
// signal and liveness re-check, up to WaitKillProcIterations times per
// signal.
func (t *Tracker) KillPid(pid int) error {
	if err := t.escalate(pid, unix.SIGTERM); err != nil {
		return err
	}
	return t.escalate(pid, unix.SIGKILL)
}

func (t *Tracker) escalate(pid int, sig unix.Signal) error {
	for i := 0; i < t.WaitKillProcIterations; i++ {
		alive, err := PidAlive(pid)
		if err != nil {
			return err
		}
		if !alive {
			return nil
		}

		if sigErr := unix.Kill(pid, sig); sigErr != nil && sigErr != unix.ESRCH {
			return sigErr
		}

		t.sleep(time.Second)
	}
	return nil
}

func (t *Tracker) sleep(d time.Duration) {
	if t.Sleep != nil {
		t.Sleep(d)
		return
	}
	time.Sleep(d)
}
