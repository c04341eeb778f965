// Package initmode implements the minimal PID-1 behavior this binary takes
// on when there is no real init daemon in the container: start the
// multi-user wants set, reap zombie children, and on SIGTERM/SIGINT stop the
// halt wants set. Grounded on the teacher's System V daemon lifecycle
// (control/controller_systemv_linux.go's start/stop sequencing) generalized
// from "manage one daemon" to "manage the wants set", with the zombie-reap
// and signal-handling loop adapted from the signal-zero / non-blocking wait
// idiom proctrack already uses via golang.org/x/sys/unix.
package initmode

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

	"github.com/svcinit/systemctl/engine"
	"github.com/svcinit/systemctl/registry"
)

const sweepInterval = 10 * time.Second

// ignoreList is the union of the always-on and distribution-specific unit
// name globs excluded from the rc3 portion of both the start (S-prefixed)
// and halt (K-prefixed) wants sets.
var ignoreList = []string{
	// always
	"network*", "dbus", "systemd-*",
	// centos
	"netconsole", "network",
	// opensuse
	"raw", "pppoe", "*.local", "boot.*", "rpmconf*",
	// ubuntu
	"mount*", "umount*", "ondemand", "*.local",
}

// Runner drives the init-mode start/idle/halt sequence against an Engine.
type Runner struct {
	Eng *engine.Engine
	Log logrus.FieldLogger

	// Signals receives the process's TERM/INT notifications. Tests inject
	// a buffered channel instead of os/signal's real delivery.
	Signals chan os.Signal

	// Tick produces the sweep-interval timer channel; tests substitute a
	// channel that never fires so the loop only waits on Signals.
	Tick func(time.Duration) <-chan time.Time

	// Getpid is injectable so zombie reap tests can target a fake PPid.
	Getpid func() int
}

// New returns a Runner with production defaults (real timer, real getpid).
func New(eng *engine.Engine, log logrus.FieldLogger) *Runner {
	return &Runner{
		Eng:     eng,
		Log:     log,
		Signals: make(chan os.Signal, 1),
		Tick:    time.After,
		Getpid:  os.Getpid,
	}
}

// Run starts the wants set, then loops sweeping for zombies every 10 seconds
// until a TERM or INT signal arrives, at which point it stops the halt set
// and returns. It blocks until that happens.
func (r *Runner) Run() error {
	// Batch treats an empty pattern list as "every unit", so an empty wants
	// set is skipped rather than passed on.
	if names := wantsSetStart(); len(names) > 0 {
		if ok := r.Eng.Batch(names, r.Eng.Start); !ok && r.Log != nil {
			r.Log.Warn("one or more wanted services failed to start")
		}
	}

	for {
		select {
		case <-r.Signals:
			if r.Log != nil {
				r.Log.Info("received shutdown signal, running halt sequence")
			}
			return r.halt()
		case <-r.Tick(sweepInterval):
			r.reapZombies()
		}
	}
}

func (r *Runner) halt() error {
	names := wantsSetHalt()
	if len(names) == 0 {
		return nil
	}
	ok := r.Eng.Batch(names, r.Eng.Stop)
	if !ok {
		return fmt.Errorf("one or more services failed to stop during halt")
	}
	return nil
}

// wantsSetStart returns the glob patterns matching the multi-user.target
// wants directory plus the rc3 S-prefixed entries, excluding ignoreList.
func wantsSetStart() []string {
	return unionWantsSet("S", true)
}

// wantsSetHalt returns the rc3 K-prefixed halt patterns, with the same
// ignore list applied as the start set.
func wantsSetHalt() []string {
	return unionWantsSet("K", true)
}

func unionWantsSet(rcPrefix string, applyIgnore bool) []string {
	var names []string

	wantsDir := filepath.Join(registry.SystemdSystemDir, "multi-user.target.wants")
	if entries, err := os.ReadDir(wantsDir); err == nil {
		for _, e := range entries {
			if !strings.HasSuffix(e.Name(), ".service") {
				continue
			}
			names = append(names, e.Name())
		}
	}

	for _, dir := range []string{registry.Rc3PrimaryDir, registry.Rc3FallbackDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			base := e.Name()
			if !strings.HasPrefix(base, rcPrefix) || len(base) < 3 {
				continue
			}
			if _, err := strconv.Atoi(base[1:3]); err != nil {
				continue
			}
			name := base[3:]
			if applyIgnore && matchesAny(name, ignoreList) {
				continue
			}
			names = append(names, name)
		}
		break
	}

	return names
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}

// reapZombies enumerates numeric /proc entries, reading /proc/<pid>/status
// to find zombie children of this process, and reaps each with a
// non-blocking wait.
func (r *Runner) reapZombies() {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return
	}

	self := r.Getpid()

	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}

		state, ppid, ok := readProcStatus(pid)
		if !ok || !strings.HasPrefix(state, "Z") || ppid != self {
			continue
		}

		var ws unix.WaitStatus
		if _, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil); err != nil && r.Log != nil {
			r.Log.WithField("pid", pid).WithError(err).Warn("failed to reap zombie child")
		}
	}
}

func readProcStatus(pid int) (state string, ppid int, ok bool) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return "", 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "State:"):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				state = fields[1]
			}
		case strings.HasPrefix(line, "PPid:"):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				ppid, _ = strconv.Atoi(fields[1])
			}
		}
	}
	return state, ppid, true
}
