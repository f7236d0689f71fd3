package confnode

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromYAML parses a YAML document into a configuration tree.
func FromYAML(data []byte) (Map, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("confnode: parse yaml: %w", err)
	}
	return Map(raw), nil
}

// FromJSON parses a JSON document into a configuration tree.
func FromJSON(data []byte) (Map, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("confnode: parse json: %w", err)
	}
	return Map(raw), nil
}

// ToYAML renders the tree as a YAML document.
func (m Map) ToYAML() ([]byte, error) {
	return yaml.Marshal(map[string]any(m))
}

// ToJSON renders the tree as an indented JSON document.
func (m Map) ToJSON() ([]byte, error) {
	return json.MarshalIndent(map[string]any(m), "", "  ")
}

// LoadFile reads a configuration document, picking the parser by extension.
// Unknown extensions are treated as YAML, which also covers JSON input.
func LoadFile(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FromJSON(data)
	}
	return FromYAML(data)
}
