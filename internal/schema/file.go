package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat is the YAML layout accepted by LoadFile.
//
//	version: v2
//	numeric: [likes, comments]
//	dimensions:
//	  - name: media_type
//	    values: [Photo, Reel]
type fileFormat struct {
	Version    string      `yaml:"version"`
	Numeric    []string    `yaml:"numeric"`
	Dimensions []Dimension `yaml:"dimensions"`
}

// LoadFile reads a schema definition from a YAML file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}

	s, err := New(f.Version, f.Numeric, f.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// Resolve returns the schema at path, or Default when path is empty.
func Resolve(path string) (*Schema, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
