package router

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadKeymap reads a YAML file mapping command names to key combinations:
//
//	submit: ctrl+s
//	skip: ctrl+shift+s
func LoadKeymap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keymap: %w", err)
	}
	return ParseKeymap(data)
}

// ParseKeymap decodes a YAML keymap document.
func ParseKeymap(data []byte) (map[string]string, error) {
	var keymap map[string]string
	if err := yaml.Unmarshal(data, &keymap); err != nil {
		return nil, fmt.Errorf("failed to parse keymap: %w", err)
	}
	return keymap, nil
}
