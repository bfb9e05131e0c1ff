package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jihwankim/vanet-sim/pkg/scenario/parser"
	"github.com/jihwankim/vanet-sim/pkg/scenario/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Args:  cobra.NoArgs,
	Short: "Parse and validate a scenario without running it",
	RunE:  validateScenario,
}

func init() {
	validateCmd.Flags().String("scenario", "", "path to scenario YAML file (required)")
}

func validateScenario(cmd *cobra.Command, args []string) error {
	scenarioPath, _ := cmd.Flags().GetString("scenario")
	if scenarioPath == "" {
		return fmt.Errorf("--scenario flag is required")
	}

	p := parser.New(nil)
	sc, err := p.ParseFile(scenarioPath)
	if err != nil {
		return fmt.Errorf("failed to parse scenario: %w", err)
	}

	v := validator.New()
	if err := v.Validate(sc); err != nil {
		fmt.Fprint(os.Stderr, v.GetReport())
		return fmt.Errorf("scenario validation failed: %w", err)
	}
	fmt.Print(v.GetReport())
	fmt.Printf("scenario %q is valid: %d nodes, %d ticks\n", sc.Metadata.Name, len(sc.Spec.Nodes), sc.Spec.Ticks)
	return nil
}
