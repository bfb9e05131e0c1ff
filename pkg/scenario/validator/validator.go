// Package validator runs structural and semantic checks over a parsed
// Scenario beyond ParseFile's required-field check, grounded on the
// teacher's pkg/scenario/validator: accumulate Errors/Warnings, report both,
// fail only on Errors.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jihwankim/vanet-sim/pkg/adversary"
	"github.com/jihwankim/vanet-sim/pkg/scenario"
)

// Validator accumulates scenario validation findings.
type Validator struct {
	Warnings []string
	Errors   []string
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{Warnings: make([]string, 0), Errors: make([]string, 0)}
}

// Validate runs every check against s, resetting prior findings.
func (v *Validator) Validate(s *scenario.Scenario) error {
	v.Warnings = v.Warnings[:0]
	v.Errors = v.Errors[:0]

	v.validateKind(s)
	v.validateMetadata(s)
	v.validateNodes(s)
	v.validateAdversary(s)
	v.checkDangerousScenarios(s)

	if len(v.Errors) > 0 {
		return fmt.Errorf("validation failed with %d errors", len(v.Errors))
	}
	return nil
}

// HasWarnings reports whether any non-fatal issues were found.
func (v *Validator) HasWarnings() bool {
	return len(v.Warnings) > 0
}

// GetReport formats the accumulated findings for display.
func (v *Validator) GetReport() string {
	var sb strings.Builder
	if len(v.Errors) > 0 {
		sb.WriteString("ERRORS:\n")
		for _, e := range v.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", e))
		}
	}
	if len(v.Warnings) > 0 {
		sb.WriteString("\nWARNINGS:\n")
		for _, w := range v.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", w))
		}
	}
	if len(v.Errors) == 0 && len(v.Warnings) == 0 {
		sb.WriteString("Validation passed with no issues.\n")
	}
	return sb.String()
}

func (v *Validator) validateKind(s *scenario.Scenario) {
	if s.Kind != "" && s.Kind != "VanetScenario" {
		v.Warnings = append(v.Warnings, fmt.Sprintf("kind '%s' may not be supported (expected: VanetScenario)", s.Kind))
	}
}

var nameRegex = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

func (v *Validator) validateMetadata(s *scenario.Scenario) {
	if s.Metadata.Name != "" && !nameRegex.MatchString(s.Metadata.Name) {
		v.Errors = append(v.Errors, "metadata.name must be lowercase alphanumeric with hyphens")
	}
}

func (v *Validator) validateNodes(s *scenario.Scenario) {
	seen := make(map[string]bool)
	for i, n := range s.Spec.Nodes {
		if n.ID == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.nodes[%d].id is required", i))
			continue
		}
		if seen[n.ID] {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.nodes[%d].id '%s' is duplicated", i, n.ID))
		}
		seen[n.ID] = true

		if n.BandwidthMbps < 0 || n.ProcessingGHz < 0 {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.nodes[%d] bandwidth/processing must be non-negative", i))
		}
		for _, f := range []struct {
			name string
			val  float64
		}{{"authenticity", n.Authenticity}, {"cooperation", n.Cooperation}, {"behavior_consistency", n.BehaviorConsistency}} {
			if f.val < 0 || f.val > 1 {
				v.Errors = append(v.Errors, fmt.Sprintf("spec.nodes[%d].%s must be in [0,1]", i, f.name))
			}
		}
	}
	if len(s.Spec.Nodes) < 2 {
		v.Warnings = append(v.Warnings, "fewer than 2 nodes: no cluster can ever form (min_cluster_size is >= 2)")
	}
}

func (v *Validator) validateAdversary(s *scenario.Scenario) {
	nodeIDs := make(map[string]bool, len(s.Spec.Nodes))
	for _, n := range s.Spec.Nodes {
		nodeIDs[n.ID] = true
	}
	for i, a := range s.Spec.Adversary {
		if !nodeIDs[a.NodeID] {
			v.Errors = append(v.Errors, fmt.Sprintf("spec.adversary[%d].node_id '%s' references no node in spec.nodes", i, a.NodeID))
		}
		switch a.Kind {
		case adversary.KindMalicious, adversary.KindSleeper, adversary.KindErratic:
		default:
			v.Errors = append(v.Errors, fmt.Sprintf("spec.adversary[%d].kind '%s' is invalid", i, a.Kind))
		}
	}
}

func (v *Validator) checkDangerousScenarios(s *scenario.Scenario) {
	if s.Spec.Ticks > 1_000_000 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("spec.ticks is very large (%d) - run may take a long time", s.Spec.Ticks))
	}
	maliciousFraction := 0.0
	if len(s.Spec.Nodes) > 0 {
		maliciousFraction = float64(len(s.Spec.Adversary)) / float64(len(s.Spec.Nodes))
	}
	if maliciousFraction > 0.5 {
		v.Warnings = append(v.Warnings, "more than half the population is adversarial - trust/election invariants may never stabilize")
	}
}
