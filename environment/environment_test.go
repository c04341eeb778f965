package environment

import (
	"os"
	"path/filepath"
	"testing"
)

func findEnv(env []string, name string) (string, bool) {
	for _, e := range env {
		if n, v, ok := cut(e); ok && n == name {
			return v, true
		}
	}
	return "", false
}

func cut(e string) (string, string, bool) {
	for i := range e {
		if e[i] == '=' {
			return e[:i], e[i+1:], true
		}
	}
	return "", "", false
}

func TestAssembleEnvironmentChunk(t *testing.T) {
	env, err := Assemble([]string{"A=1\nB=2"}, nil, "123")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := findEnv(env, "A"); !ok || v != "1" {
		t.Fatalf("A = %q, %v", v, ok)
	}
	if v, ok := findEnv(env, "B"); !ok || v != "2" {
		t.Fatalf("B = %q, %v", v, ok)
	}
	if v, ok := findEnv(env, "MAINPID"); !ok || v != "123" {
		t.Fatalf("MAINPID = %q, %v", v, ok)
	}
}

func TestAssembleQuotedForms(t *testing.T) {
	env, err := Assemble([]string{`A='one'` + "\n" + `B="two"` + "\n" + `C=three`}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]string{"A": "one", "B": "two", "C": "three"} {
		if v, ok := findEnv(env, name); !ok || v != want {
			t.Fatalf("%s = %q, %v, want %q", name, v, ok, want)
		}
	}
}

func TestDropInEnvironmentSurvivesEmptyBase(t *testing.T) {
	env, err := Assemble([]string{"A=1"}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := findEnv(env, "A"); !ok || v != "1" {
		t.Fatalf("A = %q, %v", v, ok)
	}
}

func TestMissingEnvironmentFileToleratedWithDash(t *testing.T) {
	env, err := Assemble(nil, []string{"-" + filepath.Join(t.TempDir(), "missing")}, "")
	if err != nil {
		t.Fatalf("unexpected error for tolerated missing file: %v", err)
	}
	if _, ok := findEnv(env, "MAINPID"); !ok {
		t.Fatal("expected MAINPID to be set")
	}
}

func TestMissingEnvironmentFileWithoutDashErrors(t *testing.T) {
	_, err := Assemble(nil, []string{filepath.Join(t.TempDir(), "missing")}, "")
	if err == nil {
		t.Fatal("expected error for missing environment file without leading '-'")
	}
}

func TestEnvironmentFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env")
	if err := os.WriteFile(path, []byte("A=fromfile\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env, err := Assemble([]string{"A=fromchunk"}, []string{path}, "")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := findEnv(env, "A"); !ok || v != "fromfile" {
		t.Fatalf("expected EnvironmentFile to overwrite Environment, got %q", v)
	}
}
