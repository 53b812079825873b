package persona

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load scans dir for persona definition files (*.yaml, *.yml) and returns a
// [Registry] containing every well-formed definition.
//
// A definition is well-formed when it parses as YAML and carries a non-empty
// id and name. Malformed files are logged at warn level and skipped — a single
// broken definition must not prevent the rest from loading. Two files
// declaring the same id abort the load with [ErrDuplicateID]: a duplicate is
// an operator mistake that would otherwise be resolved by silent overwrite.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("persona: read definitions dir %q: %w", dir, err)
	}

	reg := NewRegistry()
	for _, name := range definitionFiles(entries) {
		path := filepath.Join(dir, name)

		p, err := loadFile(path)
		if err != nil {
			slog.Warn("skipping persona definition", "path", path, "err", err)
			continue
		}

		if err := reg.Register(p); err != nil {
			if errors.Is(err, ErrDuplicateID) {
				return nil, fmt.Errorf("persona: %q redefines id %q: %w", path, p.ID, ErrDuplicateID)
			}
			slog.Warn("skipping persona definition", "path", path, "err", err)
			continue
		}
		slog.Info("loaded persona", "id", p.ID, "agent_name", p.AgentName, "path", path)
	}

	return reg, nil
}

// loadFile reads and parses a single persona definition file.
func loadFile(path string) (Persona, error) {
	f, err := os.Open(path)
	if err != nil {
		return Persona{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a single persona definition from r and checks it is
// well-formed. The reader is consumed entirely.
func Parse(r io.Reader) (Persona, error) {
	var p Persona
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&p); err != nil {
		return Persona{}, fmt.Errorf("decode yaml: %w", err)
	}
	if p.ID == "" {
		return Persona{}, fmt.Errorf("definition has no id")
	}
	if p.Name == "" {
		return Persona{}, fmt.Errorf("definition %q has no name", p.ID)
	}
	return p, nil
}

// definitionFiles filters and sorts directory entries down to YAML definition
// files. Sorting keeps load order (and therefore duplicate-id attribution)
// deterministic across platforms.
func definitionFiles(entries []fs.DirEntry) []string {
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".yaml", ".yml":
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
