package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Markers is the YAML shape of a topic-filter override file:
//
//	medical:
//	  - "should i"
//	policy:
//	  - "insurance"
//
// A list that is absent from the file keeps its compiled-in default.
type Markers struct {
	Medical []string `yaml:"medical"`
	Policy  []string `yaml:"policy"`
}

// LoadMarkers reads the marker override file. An empty path returns nil
// without error.
func LoadMarkers(path string) (*Markers, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read markers file: %w", err)
	}
	return ParseMarkers(data)
}

// ParseMarkers decodes a marker override document.
func ParseMarkers(data []byte) (*Markers, error) {
	var m Markers
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("config: parse markers: %w", err)
	}
	return &m, nil
}
