package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/svcinit/systemctl/catalog"
	"github.com/svcinit/systemctl/runtimeconfig"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	modernDir := t.TempDir()

	cat := catalog.New()
	// catalog's modern search path is a package-level var; point it at our
	// temp directory for the duration of this test.
	origModern := catalog.ModernSearchPaths
	catalog.ModernSearchPaths = []string{modernDir}
	t.Cleanup(func() { catalog.ModernSearchPaths = origModern })
	cat = catalog.New()

	eng := New(cat, runtimeconfig.Default(), nil)
	eng.Tracker.Sleep = func(time.Duration) {}
	eng.Tracker.WaitProcFileIterations = 2
	eng.Tracker.WaitKillProcIterations = 2

	return eng, modernDir
}

func writeUnit(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStartSimpleRecordsPid(t *testing.T) {
	eng, dir := newTestEngine(t)
	pidFile := filepath.Join(t.TempDir(), "demo.pid")
	writeUnit(t, dir, "demo.service", "[Unit]\nDescription=demo\n[Service]\nType=simple\nPIDFile="+pidFile+"\nExecStart=/bin/sleep 5\n")

	if err := eng.Start("demo"); err != nil {
		t.Fatal(err)
	}

	pid, ok := eng.Tracker.ReadPid(pidFile)
	if !ok || pid == 0 {
		t.Fatalf("expected a pid to be recorded, got %d ok=%v", pid, ok)
	}

	active, err := eng.IsActive("demo")
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Fatal("expected demo to be active after start")
	}

	if err := eng.Stop("demo"); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Fatal("expected pid file to be removed after stop")
	}
}

func TestUnknownServiceTypeFails(t *testing.T) {
	eng, dir := newTestEngine(t)
	writeUnit(t, dir, "demo.service", "[Service]\nType=bogus\nExecStart=/bin/true\n")

	err := eng.Start("demo")
	if err == nil {
		t.Fatal("expected unknown service type to fail")
	}
}

func TestOneshotWaitsForExit(t *testing.T) {
	eng, dir := newTestEngine(t)
	marker := filepath.Join(t.TempDir(), "ran")
	writeUnit(t, dir, "demo.service", "[Service]\nType=oneshot\nExecStart=/usr/bin/touch "+marker+"\n")

	if err := eng.Start("demo"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("expected oneshot ExecStart to have run synchronously: %v", err)
	}
}

func TestBatchAggregatesFalseButRunsAll(t *testing.T) {
	eng, dir := newTestEngine(t)
	markerB := filepath.Join(t.TempDir(), "b-ran")
	writeUnit(t, dir, "a.service", "[Service]\nType=bogus\nExecStart=/bin/true\n")
	writeUnit(t, dir, "b.service", "[Service]\nType=oneshot\nExecStart=/usr/bin/touch "+markerB+"\n")

	ok := eng.Batch(nil, eng.Start)
	if ok {
		t.Fatal("expected batch result to be false due to a.service failing")
	}
	if _, err := os.Stat(markerB); err != nil {
		t.Fatal("expected b.service to still run despite a.service failing")
	}
}

func TestIsFailedForMissingUnit(t *testing.T) {
	eng, _ := newTestEngine(t)

	failed, err := eng.IsFailed("nonexistent")
	if err != nil {
		t.Fatal(err)
	}
	if !failed {
		t.Fatal("expected a missing unit to be reported as failed")
	}
}
