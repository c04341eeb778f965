// Package registry manages the on-disk symlinks that mark a unit enabled:
// the per-target "wants" directory for modern descriptors, and the pair of
// runlevel directories for legacy descriptors. Grounded on the teacher's
// own Install/Uninstall symlink management in
// control/controller_systemd_linux.go (wants-dir) and the chkconfig /
// update-rc.d dance in daemon_systemv_linux.go (legacy dialect), adapted
// from "manage one daemon's own unit" to "manage an arbitrary resolved
// unit".
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/svcinit/systemctl/descriptor"
)

// These are package-level variables (not constants) so tests can redirect
// them at a temporary directory, following the same pattern
// catalog.ModernSearchPaths/LegacySearchPaths uses.
var (
	SystemdSystemDir = "/etc/systemd/system"
	Rc3PrimaryDir     = "/etc/rc3.d"
	Rc3FallbackDir    = "/etc/init.d/rc3.d"
	Rc5PrimaryDir     = "/etc/rc5.d"
	Rc5FallbackDir    = "/etc/init.d/rc5.d"
)

// Registry performs enable/disable/is-enabled operations.
type Registry struct {
	Force bool
}

// New returns a Registry honoring force (remove-then-recreate on enable).
func New(force bool) *Registry {
	return &Registry{Force: force}
}

// EnableModern reads Install.WantedBy (first value) and, if set, creates a
// symlink named after unitPath's basename in
// "/etc/systemd/system/<wantedby>.wants/" pointing at unitPath. If
// WantedBy is empty, there is nothing to enable: it returns enabled=false
// without error (the unit is "static").
func (r *Registry) EnableModern(desc *descriptor.Descriptor, unitPath string) (enabled bool, err error) {
	wantedBy, ok := desc.Get("Install", "WantedBy")
	if !ok || wantedBy == "" {
		return false, nil
	}
	if !strings.HasSuffix(wantedBy, ".wants") {
		wantedBy += ".wants"
	}

	wantsDir := filepath.Join(SystemdSystemDir, wantedBy)
	if err := os.MkdirAll(wantsDir, 0o755); err != nil {
		return false, fmt.Errorf("create wants directory %s: %w", wantsDir, err)
	}

	link := filepath.Join(wantsDir, filepath.Base(unitPath))
	if r.Force {
		_ = os.Remove(link)
	} else if _, err := os.Lstat(link); err == nil {
		return true, nil
	}

	if err := os.Symlink(unitPath, link); err != nil {
		return false, fmt.Errorf("symlink %s: %w", link, err)
	}
	return true, nil
}

// DisableModern removes the enable symlink, if present.
func (r *Registry) DisableModern(desc *descriptor.Descriptor, unitPath string) error {
	wantedBy, ok := desc.Get("Install", "WantedBy")
	if !ok || wantedBy == "" {
		return nil
	}
	if !strings.HasSuffix(wantedBy, ".wants") {
		wantedBy += ".wants"
	}

	link := filepath.Join(SystemdSystemDir, wantedBy, filepath.Base(unitPath))
	err := os.Remove(link)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsEnabledModern reports whether the enable symlink exists. A descriptor
// with no WantedBy is reported enabled (nothing to check against) for the
// is-enabled verb.
func (r *Registry) IsEnabledModern(desc *descriptor.Descriptor, unitPath string) bool {
	wantedBy, ok := desc.Get("Install", "WantedBy")
	if !ok || wantedBy == "" {
		return true
	}
	if !strings.HasSuffix(wantedBy, ".wants") {
		wantedBy += ".wants"
	}

	link := filepath.Join(SystemdSystemDir, wantedBy, filepath.Base(unitPath))
	_, err := os.Lstat(link)
	return err == nil
}

// IsStaticModern reports whether the unit has no WantedBy at all (reported
// "static" for show/status, as distinct from is-enabled's "enabled"
// convention for the same situation).
func IsStaticModern(desc *descriptor.Descriptor) bool {
	wantedBy, ok := desc.Get("Install", "WantedBy")
	return !ok || wantedBy == ""
}

func rc3Dir() string { return preferExisting(Rc3PrimaryDir, Rc3FallbackDir) }
func rc5Dir() string { return preferExisting(Rc5PrimaryDir, Rc5FallbackDir) }

func preferExisting(primary, fallback string) string {
	if info, err := os.Stat(primary); err == nil && info.IsDir() {
		return primary
	}
	return fallback
}

// EnableLegacy creates S50<name> and K50<name> symlinks in the rc3 and rc5
// directories if not already present under any numbering. If a
// differently-numbered entry for the same name already exists, it is
// reused verbatim rather than replaced.
func (r *Registry) EnableLegacy(name, scriptPath string) error {
	for _, dir := range []string{rc3Dir(), rc5Dir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create runlevel directory %s: %w", dir, err)
		}
		if err := ensureNumberedLink(dir, "S", name, scriptPath); err != nil {
			return err
		}
		if err := ensureNumberedLink(dir, "K", name, scriptPath); err != nil {
			return err
		}
	}
	return nil
}

// DisableLegacy unlinks both the S and K symlinks for name in the rc3 and
// rc5 directories, under whatever numbering they were found.
func (r *Registry) DisableLegacy(name string) error {
	for _, dir := range []string{rc3Dir(), rc5Dir()} {
		if existing := findNumberedLink(dir, "S", name); existing != "" {
			if err := os.Remove(filepath.Join(dir, existing)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		if existing := findNumberedLink(dir, "K", name); existing != "" {
			if err := os.Remove(filepath.Join(dir, existing)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}

// IsEnabledLegacy reports whether an S-prefixed link for name exists in the
// rc3 directory, under any numbering.
func (r *Registry) IsEnabledLegacy(name string) bool {
	return findNumberedLink(rc3Dir(), "S", name) != ""
}

// findNumberedLink returns the basename of an existing "<prefix>##name"
// entry in dir, or "" if none exists.
func findNumberedLink(dir, prefix, name string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		base := e.Name()
		if !strings.HasPrefix(base, prefix) {
			continue
		}
		rest := base[len(prefix):]
		if len(rest) < 2 {
			continue
		}
		if rest[2:] == name {
			return base
		}
	}
	return ""
}

func ensureNumberedLink(dir, prefix, name, scriptPath string) error {
	if existing := findNumberedLink(dir, prefix, name); existing != "" {
		return nil
	}
	link := filepath.Join(dir, fmt.Sprintf("%s50%s", prefix, name))
	return os.Symlink(scriptPath, link)
}
