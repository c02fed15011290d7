package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/relay/pkg/schema"
	"gopkg.in/yaml.v3"
)

// ProcessConfig declares an external command exposed as an operation.
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	// Input maps argument names to type names ("string", "int", "email", ...).
	Input       schema.Schema     `yaml:"input" json:"input"`
	// Timeout bounds a single run, as a Go duration string. Empty means none.
	Timeout     string            `yaml:"timeout" json:"timeout"`
}

// ConfigFile represents the structure of tools.yaml
type ConfigFile struct {
	Tools []ProcessConfig `yaml:"tools" json:"tools"`
}

// LoadTools reads a configuration file (YAML or JSON) and returns the
// declared tools in file order. A missing file yields no tools.
func LoadTools(path string) ([]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}
	return ParseTools(data, filepath.Ext(path))
}

// ParseTools decodes a tools document. ext selects JSON (".json") or YAML.
func ParseTools(data []byte, ext string) ([]ProcessConfig, error) {
	var cfg ConfigFile
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse tools.json: %w", err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse tools.yaml: %w", err)
		}
	}

	tools := make([]ProcessConfig, 0, len(cfg.Tools))
	seen := make(map[string]bool)
	for _, tool := range cfg.Tools {
		if tool.Name == "" {
			continue
		}
		if tool.Command == "" {
			return nil, fmt.Errorf("tool %q: command is required", tool.Name)
		}
		if seen[tool.Name] {
			return nil, fmt.Errorf("tool %q declared twice", tool.Name)
		}
		seen[tool.Name] = true
		tools = append(tools, tool)
	}
	return tools, nil
}
