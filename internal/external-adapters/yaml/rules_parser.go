// Package yaml provides YAML-based alert rule parsing and repository implementations.
package yaml

import (
	"bytes"
	"fmt"

	"github.com/ochairo/fetchrun/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// RulesParser reads and writes Prometheus rule files
type RulesParser struct{}

// NewRulesParser creates a new YAML parser
func NewRulesParser() *RulesParser {
	return &RulesParser{}
}

// Parse parses YAML bytes into an AlertFile. A document without groups
// is rejected.
func (p *RulesParser) Parse(data []byte) (*entities.AlertFile, error) {
	var file entities.AlertFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(file.Groups) == 0 {
		return nil, fmt.Errorf("rule file has no groups")
	}

	return &file, nil
}

// Marshal renders an AlertFile as YAML with two-space indentation
func (p *RulesParser) Marshal(file *entities.AlertFile) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return buf.String(), nil
}
