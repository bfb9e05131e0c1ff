// Package metrics is the simulator's single owned Metrics aggregate: global
// mutable statistics counters, updated only from the main loop's
// post-component hook. It is the exporter side of the prometheus module,
// registering gauges/counters via prometheus/client_golang/prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/model"
)

// Collector owns every exported gauge/counter for one simulation run.
type Collector struct {
	registry *prometheus.Registry

	clusterCount       prometheus.Gauge
	nodeRoleCount       *prometheus.GaugeVec
	flaggedNodeCount    prometheus.Gauge
	sleeperFlaggedCount prometheus.Gauge
	messagesDelivered   prometheus.Counter
	messagesUndeliverable prometheus.Counter
	sleeperDetections   prometheus.Counter
	tick                prometheus.Gauge
}

// New creates a Collector registered against a fresh, private registry (no
// global default-registry pollution across simulation runs in the same
// process).
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		clusterCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vanet_cluster_count",
			Help: "Current number of active clusters.",
		}),
		nodeRoleCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vanet_node_role_count",
			Help: "Current number of nodes holding each display role.",
		}, []string{"role"}),
		flaggedNodeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vanet_flagged_node_count",
			Help: "Current number of nodes flagged malicious by the Authority Monitor.",
		}),
		sleeperFlaggedCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vanet_sleeper_flagged_count",
			Help: "Current number of nodes flagged by the sleeper-spike detector.",
		}),
		messagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vanet_messages_delivered_total",
			Help: "Cumulative count of V2V message deliveries.",
		}),
		messagesUndeliverable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vanet_messages_undeliverable_total",
			Help: "Cumulative count of MessageUndeliverable drops.",
		}),
		sleeperDetections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vanet_sleeper_detections_total",
			Help: "Cumulative count of sleeper-spike detections.",
		}),
		tick: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vanet_tick",
			Help: "The most recently completed simulation tick.",
		}),
	}
	reg.MustRegister(c.clusterCount, c.nodeRoleCount, c.flaggedNodeCount,
		c.sleeperFlaggedCount, c.messagesDelivered, c.messagesUndeliverable,
		c.sleeperDetections, c.tick)
	return c
}

// Registry exposes the private registry for a collaborator-owned
// promhttp.Handler (snapshot serialization/serving is out of the core's
// scope).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe updates every gauge from the current node/cluster population and
// increments counters from the tick's new event-log entries. Called once
// per tick from the simulator's post-component hook, never from within a
// component.
func (c *Collector) Observe(tick uint64, nodes []*model.Node, clusterCount int, newEntries []events.Entry) {
	c.tick.Set(float64(tick))
	c.clusterCount.Set(float64(clusterCount))

	roleCounts := map[string]int{}
	flagged := 0
	sleeperFlagged := 0
	for _, n := range nodes {
		roleCounts[n.DisplayRole()]++
		if n.IsFlaggedMalicious {
			flagged++
		}
		if n.IsSleeperFlagged {
			sleeperFlagged++
		}
	}
	for _, role := range []string{"Leader", "CoLeader", "Boundary", "Relay", "Member", "Unassigned"} {
		c.nodeRoleCount.WithLabelValues(role).Set(float64(roleCounts[role]))
	}
	c.flaggedNodeCount.Set(float64(flagged))
	c.sleeperFlaggedCount.Set(float64(sleeperFlagged))

	for _, e := range newEntries {
		switch e.Kind {
		case events.MessageDelivered:
			c.messagesDelivered.Inc()
		case events.NodeFlagged:
			// NodeFlagged already reflected in the flagged-count gauge above;
			// no separate counter needed.
		}
	}
}

// RecordUndeliverable increments the MessageUndeliverable drop counter.
func (c *Collector) RecordUndeliverable(n int) {
	c.messagesUndeliverable.Add(float64(n))
}

// RecordSleeperDetection increments the sleeper-spike detection counter.
func (c *Collector) RecordSleeperDetection() {
	c.sleeperDetections.Inc()
}
