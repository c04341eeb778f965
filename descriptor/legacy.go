package descriptor

import (
	"bufio"
	"os"
	"strings"
)

const (
	beginMarker = "BEGIN INIT INFO"
	endMarker   = "END INIT INFO"
)

// ParseLegacy reads a sysv init.d script at path, lifting its
// "BEGIN INIT INFO"/"END INIT INFO" header comment block into a synthetic
// "init.d" section, then derives the modern Unit/Install/Service sections
// from it per the legacy-to-modern translation table. A nonexistent path
// yields an empty, unloaded Descriptor, matching Parse's contract.
func ParseLegacy(path string) (*Descriptor, error) {
	d := New()

	info, statErr := os.Stat(path)
	if statErr != nil || info.IsDir() {
		return d, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw := make(map[string]string)

	scanner := bufio.NewScanner(f)
	inBlock := false
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(trimmed, "#") {
			continue
		}

		if strings.Contains(line, beginMarker) {
			inBlock = true
			continue
		}
		if strings.Contains(line, endMarker) {
			inBlock = false
			continue
		}
		if !inBlock {
			continue
		}

		body := strings.TrimPrefix(trimmed, "#")
		body = strings.TrimSpace(body)

		key, value, ok := strings.Cut(body, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		raw[key] = value
		d.appendValue("init.d", key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	synthesize(d, raw)

	d.Sources = append(d.Sources, path)
	return d, nil
}

// synthesize applies the legacy header -> modern section.key translation
// table from spec.md §3.
func synthesize(d *Descriptor, raw map[string]string) {
	if desc, ok := raw["Description"]; ok {
		d.set("Unit", "Description", []string{desc})
	}

	requiredStart := raw["Required-Start"]
	if strings.Contains(requiredStart, "$network") {
		d.appendValue("Unit", "After", "network.target")
	}
	if strings.Contains(requiredStart, "$remote_fs") {
		d.appendValue("Unit", "After", "remote-fs.target")
	}
	if strings.Contains(requiredStart, "$local_fs") {
		d.appendValue("Unit", "After", "local-fs.target")
	}
	if strings.Contains(requiredStart, "$timer") {
		d.appendValue("Unit", "Requires", "basic.target")
	}

	if provides, ok := raw["Provides"]; ok {
		d.set("Install", "Alias", []string{provides})
	}

	defaultStart := raw["Default-Start"]
	fields := strings.Fields(defaultStart)
	for _, f := range fields {
		switch f {
		case "5":
			d.appendValue("Install", "WantedBy", "graphical.target")
		case "3":
			d.appendValue("Install", "WantedBy", "multi-user.target")
		}
	}

	d.set("Service", "Type", []string{"sysv"})
}
