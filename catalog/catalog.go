// Package catalog resolves service unit names to on-disk descriptor files,
// scanning two search directories per dialect (modern and legacy) and
// caching both the directory scans and the parsed descriptors.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/svcinit/systemctl/descriptor"
)

const defaultSuffix = ".service"

var (
	// ModernSearchPaths are scanned in order; a unit found in the second
	// directory overrides one of the same name found in the first.
	ModernSearchPaths = []string{
		"/usr/lib/systemd/system",
		"/etc/systemd/system",
	}

	// LegacySearchPaths are scanned in order, same override rule.
	LegacySearchPaths = []string{
		"/etc/init.d",
		"/var/run/init.d",
	}
)

// Catalog scans the search paths once per process and caches both the name
// -> path mappings and the parsed descriptors keyed by the resolved unit
// file path.
type Catalog struct {
	modernPaths []string
	legacyPaths []string

	mu          sync.Mutex
	modernUnits map[string]string
	legacyUnits map[string]string
	scanned     bool

	descCache map[string]*descriptor.Descriptor
}

// New returns a Catalog using the default search paths.
func New() *Catalog {
	return &Catalog{
		modernPaths: ModernSearchPaths,
		legacyPaths: LegacySearchPaths,
		descCache:   make(map[string]*descriptor.Descriptor),
	}
}

func (c *Catalog) scan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scanned {
		return
	}
	c.modernUnits = scanDir(c.modernPaths, false)
	c.legacyUnits = scanDir(c.legacyPaths, true)
	c.scanned = true
}

// scanDir walks each directory in order, later directories overriding
// earlier ones for the same basename. legacy appends ".service" to every
// basename so legacy and modern names can be compared uniformly.
func scanDir(dirs []string, legacy bool) map[string]string {
	units := make(map[string]string)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if legacy {
				if strings.HasSuffix(name, ".conf") || strings.HasPrefix(name, ".") {
					continue
				}
				name += defaultSuffix
			} else if !strings.HasSuffix(name, defaultSuffix) {
				continue
			}
			units[name] = filepath.Join(dir, e.Name())
		}
	}
	return units
}

// Resolve looks up name, then name+".service", modern dialect first, then
// legacy. It returns "" if neither dialect has the unit.
func (c *Catalog) Resolve(name string) (path string, legacy bool, ok bool) {
	c.scan()

	for _, candidate := range []string{name, name + defaultSuffix} {
		if p, found := c.modernUnits[candidate]; found {
			return p, false, true
		}
	}
	for _, candidate := range []string{name, name + defaultSuffix} {
		if p, found := c.legacyUnits[candidate]; found {
			return p, true, true
		}
	}
	return "", false, false
}

// Load resolves name and parses its descriptor, using and populating the
// per-process descriptor cache keyed by the resolved unit file path
// (the base file, not a drop-in). Unresolvable names
// yield an empty, unloaded descriptor rather than an error, matching the
// "unit not found" policy so higher-level verbs like status/show can still
// render "not-loaded" output.
func (c *Catalog) Load(name string) (*descriptor.Descriptor, error) {
	path, legacy, ok := c.Resolve(name)
	if !ok {
		return descriptor.New(), nil
	}

	c.mu.Lock()
	if cached, found := c.descCache[path]; found {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var (
		d   *descriptor.Descriptor
		err error
	)
	if legacy {
		d, err = descriptor.ParseLegacy(path)
	} else {
		d, err = descriptor.Parse(path)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.descCache[path] = d
	c.mu.Unlock()

	return d, nil
}

// MatchUnits returns the ordered, de-duplicated set of unit names matching
// patterns. An empty pattern list returns every known unit, modern dialect
// first, each dialect's names sorted. A nonempty pattern list yields, per
// dialect in sorted order, units where any pattern glob-matches the name or
// any pattern+defaultSuffix equals the name.
func (c *Catalog) MatchUnits(patterns []string) []string {
	c.scan()

	seen := make(map[string]bool)
	var out []string

	appendDialect := func(units map[string]string) {
		names := make([]string, 0, len(units))
		for name := range units {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if len(patterns) == 0 {
				if !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
				continue
			}
			for _, p := range patterns {
				matched, _ := filepath.Match(p, name)
				if matched || p+defaultSuffix == name {
					if !seen[name] {
						seen[name] = true
						out = append(out, name)
					}
					break
				}
			}
		}
	}

	appendDialect(c.modernUnits)
	appendDialect(c.legacyUnits)

	return out
}

// IsLegacy reports whether name resolves via the legacy dialect.
func (c *Catalog) IsLegacy(name string) bool {
	_, legacy, ok := c.Resolve(name)
	return ok && legacy
}
