package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jihwankim/vanet-sim/pkg/adversary"
	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/simulator"
	"github.com/jihwankim/vanet-sim/pkg/model"
	"github.com/jihwankim/vanet-sim/pkg/reporting"
	"github.com/jihwankim/vanet-sim/pkg/scenario/parser"
	"github.com/jihwankim/vanet-sim/pkg/scenario/validator"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run a simulation scenario",
	Long:  `Loads a scenario YAML file, constructs a Simulator, advances it for the scenario's tick budget, and prints a final snapshot.`,
	RunE:  runSimulation,
}

func init() {
	runCmd.Flags().String("scenario", "", "path to scenario YAML file (required)")
	runCmd.Flags().String("config", "", "path to simulation config YAML (defaults are used if omitted)")
	runCmd.Flags().StringArray("set", []string{}, "override scenario values (e.g., --set ticks=500)")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	scenarioPath, _ := cmd.Flags().GetString("scenario")
	if scenarioPath == "" {
		return fmt.Errorf("--scenario flag is required")
	}
	configPath, _ := cmd.Flags().GetString("config")
	setFlags, _ := cmd.Flags().GetStringArray("set")

	logLevel := reporting.LogLevelInfo
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{Level: logLevel, Format: reporting.LogFormatText, Output: os.Stdout})

	p := parser.New(nil)
	sc, err := p.ParseFile(scenarioPath)
	if err != nil {
		return fmt.Errorf("failed to parse scenario: %w", err)
	}

	if len(setFlags) > 0 {
		overrides, err := parser.ParseOverrides(setFlags)
		if err != nil {
			return fmt.Errorf("failed to parse --set overrides: %w", err)
		}
		if err := parser.ApplyOverrides(sc, overrides); err != nil {
			return fmt.Errorf("failed to apply overrides: %w", err)
		}
	}

	v := validator.New()
	if err := v.Validate(sc); err != nil {
		fmt.Fprint(os.Stderr, v.GetReport())
		return fmt.Errorf("scenario validation failed: %w", err)
	}
	if v.HasWarnings() {
		logger.Warn("scenario has warnings")
		fmt.Fprint(os.Stderr, v.GetReport())
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg = config.DefaultConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if len(sc.Spec.ConfigOverrides) > 0 {
		if err := applyConfigOverrides(cfg, sc.Spec.ConfigOverrides); err != nil {
			return fmt.Errorf("failed to apply config overrides: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	initial := make([]simulator.InitialNode, 0, len(sc.Spec.Nodes))
	for _, n := range sc.Spec.Nodes {
		initial = append(initial, simulator.InitialNode{
			ID:                  model.NodeId(n.ID),
			Position:            model.Point{X: n.X, Y: n.Y},
			Speed:               n.Speed,
			Heading:             n.Heading,
			LaneHint:            n.LaneHint,
			BandwidthMbps:       n.BandwidthMbps,
			ProcessingGHz:       n.ProcessingGHz,
			Authenticity:        n.Authenticity,
			Cooperation:         n.Cooperation,
			BehaviorConsistency: n.BehaviorConsistency,
			EmergencyClass:      n.EmergencyClass,
		})
	}

	sim, err := simulator.New(cfg, initial, logger)
	if err != nil {
		return fmt.Errorf("failed to construct simulator: %w", err)
	}

	var directives []adversary.Directive
	for _, a := range sc.Spec.Adversary {
		directives = append(directives, adversary.Directive{
			NodeID:         model.NodeId(a.NodeID),
			Kind:           a.Kind,
			ActivateAtTick: a.ActivateAtTick,
		})
	}
	inj := adversary.New(directives, cfg.Seed)

	logger.Info("starting simulation", "scenario", sc.Metadata.Name, "ticks", sc.Spec.Ticks, "nodes", len(initial))

	var snap simulator.Snapshot
	for tick := uint64(1); tick <= sc.Spec.Ticks; tick++ {
		inj.Apply(tick, sim.Store())
		snap, err = sim.Advance(tick, nil)
		if err != nil {
			return fmt.Errorf("simulation halted at tick %d: %w", tick, err)
		}
	}

	printSnapshot(snap)
	return nil
}

func printSnapshot(snap simulator.Snapshot) {
	fmt.Printf("tick=%d clusters=%d nodes=%d\n", snap.Tick, len(snap.Clusters), len(snap.Nodes))
	for _, c := range snap.Clusters {
		fmt.Printf("  cluster %s leader=%s members=%d relays=%d boundaries=%d\n",
			c.ID, c.LeaderID, len(c.Members), len(c.Relays), len(c.Boundaries))
	}
	flagged := 0
	for _, n := range snap.Nodes {
		if n.IsFlaggedMalicious {
			flagged++
		}
	}
	fmt.Printf("flagged_malicious=%d\n", flagged)
}

// applyConfigOverrides patches named Config fields (by yaml tag) via a
// marshal/patch/unmarshal round trip through gopkg.in/yaml.v3, so overrides
// use exactly the same keys as the config file itself.
func applyConfigOverrides(cfg *config.Config, overrides map[string]string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var asMap map[string]interface{}
	if err := yaml.Unmarshal(data, &asMap); err != nil {
		return err
	}
	for k, v := range overrides {
		var parsed interface{}
		if err := yaml.Unmarshal([]byte(v), &parsed); err != nil {
			parsed = v
		}
		asMap[k] = parsed
	}
	merged, err := yaml.Marshal(asMap)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(merged, cfg)
}
