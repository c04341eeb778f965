package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/svcinit/systemctl/descriptor"
)

func withSystemdSystemDir(t *testing.T, dir string) {
	t.Helper()
	orig := SystemdSystemDir
	SystemdSystemDir = dir
	t.Cleanup(func() { SystemdSystemDir = orig })
}

func withRunlevelDirs(t *testing.T, rc3, rc5 string) {
	t.Helper()
	origRc3Primary, origRc3Fallback := Rc3PrimaryDir, Rc3FallbackDir
	origRc5Primary, origRc5Fallback := Rc5PrimaryDir, Rc5FallbackDir
	Rc3PrimaryDir, Rc3FallbackDir = rc3, rc3
	Rc5PrimaryDir, Rc5FallbackDir = rc5, rc5
	t.Cleanup(func() {
		Rc3PrimaryDir, Rc3FallbackDir = origRc3Primary, origRc3Fallback
		Rc5PrimaryDir, Rc5FallbackDir = origRc5Primary, origRc5Fallback
	})
}

func TestEnableDisableModernRoundTrip(t *testing.T) {
	dir := t.TempDir()
	unitPath := filepath.Join(dir, "demo.service")
	if err := os.WriteFile(unitPath, []byte("[Install]\nWantedBy=multi-user.target\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := descriptor.Parse(unitPath)
	if err != nil {
		t.Fatal(err)
	}

	withSystemdSystemDir(t, t.TempDir())

	r := New(false)

	enabled, err := r.EnableModern(d, unitPath)
	if err != nil {
		t.Fatal(err)
	}
	if !enabled {
		t.Fatal("expected enable to report true")
	}
	if !r.IsEnabledModern(d, unitPath) {
		t.Fatal("expected is-enabled true after enable")
	}

	if err := r.DisableModern(d, unitPath); err != nil {
		t.Fatal(err)
	}
	if r.IsEnabledModern(d, unitPath) {
		t.Fatal("expected is-enabled false after disable")
	}
}

func TestEnableModernForceRecreatesLink(t *testing.T) {
	dir := t.TempDir()
	unitPath := filepath.Join(dir, "demo.service")
	if err := os.WriteFile(unitPath, []byte("[Install]\nWantedBy=multi-user.target\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := descriptor.Parse(unitPath)
	if err != nil {
		t.Fatal(err)
	}

	withSystemdSystemDir(t, t.TempDir())

	r := New(true)
	if _, err := r.EnableModern(d, unitPath); err != nil {
		t.Fatal(err)
	}
	if _, err := r.EnableModern(d, unitPath); err != nil {
		t.Fatalf("expected force enable to tolerate an existing link: %v", err)
	}
}

func TestEnableModernStaticUnit(t *testing.T) {
	dir := t.TempDir()
	unitPath := filepath.Join(dir, "demo.service")
	if err := os.WriteFile(unitPath, []byte("[Service]\nExecStart=/bin/true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := descriptor.Parse(unitPath)
	if err != nil {
		t.Fatal(err)
	}

	withSystemdSystemDir(t, t.TempDir())

	r := New(false)
	enabled, err := r.EnableModern(d, unitPath)
	if err != nil {
		t.Fatal(err)
	}
	if enabled {
		t.Fatal("expected enable to be a no-op for a unit with no WantedBy")
	}
	if !IsStaticModern(d) {
		t.Fatal("expected unit with no WantedBy to be reported static")
	}
}

func TestEnableDisableLegacyRoundTrip(t *testing.T) {
	withRunlevelDirs(t, t.TempDir(), t.TempDir())

	r := New(false)
	if err := r.EnableLegacy("demo", "/etc/init.d/demo"); err != nil {
		t.Fatal(err)
	}
	if !r.IsEnabledLegacy("demo") {
		t.Fatal("expected is-enabled true after legacy enable")
	}

	if entries, _ := os.ReadDir(Rc3PrimaryDir); len(entries) != 2 {
		t.Fatalf("expected S and K links in rc3 dir, got %d entries", len(entries))
	}

	if err := r.DisableLegacy("demo"); err != nil {
		t.Fatal(err)
	}
	if r.IsEnabledLegacy("demo") {
		t.Fatal("expected is-enabled false after legacy disable")
	}
}

func TestEnableLegacyReusesExistingNumbering(t *testing.T) {
	rc3 := t.TempDir()
	withRunlevelDirs(t, rc3, t.TempDir())

	if err := os.Symlink("/etc/init.d/demo", filepath.Join(rc3, "S87demo")); err != nil {
		t.Fatal(err)
	}

	r := New(false)
	if err := r.EnableLegacy("demo", "/etc/init.d/demo"); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Lstat(filepath.Join(rc3, "S50demo")); !os.IsNotExist(err) {
		t.Fatal("expected the existing S87demo entry to be reused rather than a new S50demo created")
	}
	if _, err := os.Lstat(filepath.Join(rc3, "S87demo")); err != nil {
		t.Fatal("expected the pre-existing numbered link to survive")
	}
}
