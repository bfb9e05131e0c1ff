// Package parser parses and overrides scenario YAML files, grounded on the
// teacher's pkg/scenario/parser: ${VAR}/$VAR substitution against parser
// variables and the environment, then --set key=value CLI overrides applied
// after parse.
package parser

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jihwankim/vanet-sim/pkg/scenario"
)

// Parser parses scenario YAML with variable substitution.
type Parser struct {
	Variables map[string]string
}

// New creates a parser with optional seed variables.
func New(variables map[string]string) *Parser {
	if variables == nil {
		variables = make(map[string]string)
	}
	return &Parser{Variables: variables}
}

// ParseFile reads and parses a scenario file.
func (p *Parser) ParseFile(path string) (*scenario.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return p.Parse(data)
}

// Parse parses scenario YAML bytes.
func (p *Parser) Parse(data []byte) (*scenario.Scenario, error) {
	substituted := p.substituteVariables(string(data))

	var s scenario.Scenario
	if err := yaml.Unmarshal([]byte(substituted), &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := p.validateRequiredFields(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func (p *Parser) substituteVariables(content string) string {
	return varPattern.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}
		if val, ok := p.Variables[varName]; ok {
			return val
		}
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// SetVariable sets a single substitution variable.
func (p *Parser) SetVariable(key, value string) {
	p.Variables[key] = value
}

// ParseOverrides parses --set key=value strings into a map.
func ParseOverrides(overrides []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, override := range overrides {
		parts := strings.SplitN(override, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid override format: %s (expected key=value)", override)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			return nil, fmt.Errorf("empty key in override: %s", override)
		}
		result[key] = value
	}
	return result, nil
}

// ApplyOverrides applies CLI overrides to a parsed scenario. "ticks" (or
// "spec.ticks") overrides Spec.Ticks directly; every other key, "seed"
// included, is folded into Spec.ConfigOverrides, which the run command
// applies against the Config struct's own yaml tags before constructing the
// Simulator.
func ApplyOverrides(s *scenario.Scenario, overrides map[string]string) error {
	for key, value := range overrides {
		switch key {
		case "ticks", "spec.ticks":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ticks override: %w", err)
			}
			s.Spec.Ticks = n
		default:
			if s.Spec.ConfigOverrides == nil {
				s.Spec.ConfigOverrides = make(map[string]string)
			}
			s.Spec.ConfigOverrides[key] = value
		}
	}
	return nil
}

func (p *Parser) validateRequiredFields(s *scenario.Scenario) error {
	if s.APIVersion == "" {
		return fmt.Errorf("apiVersion is required")
	}
	if s.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if s.Metadata.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if s.Spec.Ticks == 0 {
		return fmt.Errorf("spec.ticks is required and must be > 0")
	}
	if len(s.Spec.Nodes) == 0 {
		return fmt.Errorf("spec.nodes is required and must have at least one node")
	}
	for i, n := range s.Spec.Nodes {
		if n.ID == "" {
			return fmt.Errorf("spec.nodes[%d].id is required", i)
		}
	}
	return nil
}
