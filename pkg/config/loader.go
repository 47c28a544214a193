package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FromFile loads the configuration at the given path on top of the defaults.
func FromFile(path string) (Configuration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), fmt.Errorf("read config: %w", err)
	}

	cfg, err := parse(b, Defaults())
	if err != nil {
		return cfg, fmt.Errorf("read config at %s: %w", path, err)
	}

	return cfg, nil
}

// parse applies the YAML document to cfg.
// The document is converted to JSON so that the struct's json tags apply and unknown keys are rejected.
func parse(yamlDoc []byte, cfg Configuration) (Configuration, error) {
	m := map[string]any{}

	if err := yaml.Unmarshal(yamlDoc, &m); err != nil {
		return cfg, err
	}

	if len(m) == 0 {
		return cfg, nil
	}

	jsonDoc, err := json.Marshal(m)
	if err != nil {
		return cfg, fmt.Errorf("convert to json: %w", err)
	}

	d := json.NewDecoder(bytes.NewReader(jsonDoc))
	d.DisallowUnknownFields()

	if err := d.Decode(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
