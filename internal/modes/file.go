package modes

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type modesFile struct {
	Tracks []Entry `yaml:"tracks"`
	Topics []Entry `yaml:"topics"`
}

// Load returns the built-in registries, replaced section by section by the
// YAML file at path when one is given. A section absent from the file keeps
// its defaults.
func Load(path string) (Set, error) {
	set := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return set, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read modes file: %w", err)
	}
	var doc modesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Set{}, fmt.Errorf("parse modes file %s: %w", path, err)
	}
	for i, e := range append(append([]Entry{}, doc.Tracks...), doc.Topics...) {
		if strings.TrimSpace(e.Trigger) == "" || strings.TrimSpace(e.Directive) == "" {
			return Set{}, fmt.Errorf("modes file %s: entry %d needs trigger and directive", path, i)
		}
	}

	if len(doc.Tracks) > 0 {
		set.Tracks = NewRegistry(doc.Tracks...)
	}
	if len(doc.Topics) > 0 {
		set.Topics = NewRegistry(doc.Topics...)
	}
	return set, nil
}
