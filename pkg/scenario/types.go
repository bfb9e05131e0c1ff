// Package scenario defines the on-disk YAML shape of a simulation run: an
// initial node population, an optional adversary injection list, and a
// tick budget, parsed and validated by pkg/scenario/parser and
// pkg/scenario/validator.
package scenario

// Scenario is a complete simulation run definition.
type Scenario struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   Metadata     `yaml:"metadata"`
	Spec       ScenarioSpec `yaml:"spec"`
}

// Metadata carries descriptive, non-functional scenario fields.
type Metadata struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Author      string   `yaml:"author,omitempty"`
}

// ScenarioSpec is the functional body of a scenario.
type ScenarioSpec struct {
	// Ticks is the number of Simulator.Advance calls to run.
	Ticks uint64 `yaml:"ticks"`

	// Nodes is the initial node population.
	Nodes []NodeSpec `yaml:"nodes"`

	// Mobility names a CSV mobility trace file (tick,node_id,x,y,speed,
	// heading). It is parsed but not read: the run command advances every
	// tick with no mobility input, so node positions stay at their initial
	// values whether or not a trace is named, and headings and speeds change
	// only through adversary directives and message effects.
	Mobility string `yaml:"mobility,omitempty"`

	// Adversary lists nodes to mark malicious, sleeper-agent or erratic,
	// exercising the hidden is_malicious ground truth. The run command
	// applies these directives at the start of every tick.
	Adversary []AdversarySpec `yaml:"adversary,omitempty"`

	// ConfigOverrides patches named Config fields (by yaml tag) before the
	// Simulator is constructed, e.g. {"radio_range_r": "300"}.
	ConfigOverrides map[string]string `yaml:"config_overrides,omitempty"`
}

// NodeSpec is one initial node's starting state.
type NodeSpec struct {
	ID                  string  `yaml:"id"`
	X                   float64 `yaml:"x"`
	Y                   float64 `yaml:"y"`
	Speed               float64 `yaml:"speed"`
	Heading             float64 `yaml:"heading"`
	LaneHint            string  `yaml:"lane_hint,omitempty"`
	BandwidthMbps       float64 `yaml:"bandwidth_mbps"`
	ProcessingGHz       float64 `yaml:"processing_ghz"`
	Authenticity        float64 `yaml:"authenticity"`
	Cooperation         float64 `yaml:"cooperation"`
	BehaviorConsistency float64 `yaml:"behavior_consistency"`
	EmergencyClass      bool    `yaml:"emergency_class,omitempty"`
}

// AdversarySpec injects adversarial ground truth onto an existing node.
type AdversarySpec struct {
	NodeID string `yaml:"node_id"`
	// Kind is one of "malicious", "sleeper", "erratic" — see pkg/adversary.
	Kind string `yaml:"kind"`
	// ActivateAtTick is the tick a sleeper agent flips to active malice; 0
	// means immediate for non-sleeper kinds.
	ActivateAtTick uint64 `yaml:"activate_at_tick,omitempty"`
}
