package proctrack

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestTracker() *Tracker {
	t := New(nil)
	t.Sleep = func(time.Duration) {}
	return t
}

func TestPidRoundTrip(t *testing.T) {
	tr := newTestTracker()
	path := filepath.Join(t.TempDir(), "sub", "demo.pid")

	if err := tr.WritePid(path, 4242); err != nil {
		t.Fatal(err)
	}

	pid, ok := tr.ReadPid(path)
	if !ok || pid != 4242 {
		t.Fatalf("ReadPid = %d, %v", pid, ok)
	}
}

func TestReadPidMalformedIsNoPid(t *testing.T) {
	tr := newTestTracker()
	path := filepath.Join(t.TempDir(), "demo.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, ok := tr.ReadPid(path)
	if ok {
		t.Fatal("expected malformed pid file to yield ok=false")
	}
}

func TestPidAliveSelf(t *testing.T) {
	alive, err := PidAlive(os.Getpid())
	if err != nil {
		t.Fatal(err)
	}
	if !alive {
		t.Fatal("expected self pid to be alive")
	}
}

func TestWaitForPidFileFindsLivePid(t *testing.T) {
	tr := newTestTracker()
	tr.WaitProcFileIterations = 3
	path := filepath.Join(t.TempDir(), "demo.pid")

	if err := tr.WritePid(path, os.Getpid()); err != nil {
		t.Fatal(err)
	}

	pid, ok := tr.WaitForPidFile(path)
	if !ok || pid != os.Getpid() {
		t.Fatalf("WaitForPidFile = %d, %v", pid, ok)
	}
}

func TestWaitForPidFileExhausts(t *testing.T) {
	tr := newTestTracker()
	tr.WaitProcFileIterations = 2
	path := filepath.Join(t.TempDir(), "missing.pid")

	_, ok := tr.WaitForPidFile(path)
	if ok {
		t.Fatal("expected exhaustion for a pid file that never appears")
	}
}
