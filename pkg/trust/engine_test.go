package trust

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/model"
)

func TestRecomputeTrustWithEmptyRing(t *testing.T) {
	e := New(config.DefaultConfig())
	n := &model.Node{SocialTrust: 0.8}
	e.RecomputeTrust(n)
	// historical defaults to 0.5 when the ring is empty.
	require.InDelta(t, 0.5*0.5+0.5*0.8, n.TrustScore, 1e-9)
}

func TestSleeperSpikeScenarioS3(t *testing.T) {
	e := New(config.DefaultConfig())
	n := &model.Node{}
	samples := []float64{0.4, 0.42, 0.41, 0.43, 0.45, 0.44, 0.46, 0.48}
	for i, v := range samples {
		n.History.Push(model.Sample{Tick: uint64(i), Value: v})
	}
	n.SocialTrust = 0.46
	e.RecomputeTrust(n)
	prevTrust := n.TrustScore

	n.History.Push(model.Sample{Tick: uint64(len(samples)), Value: 0.90})

	fired := e.SleeperSpikeCheck(n, uint64(len(samples)))
	require.True(t, fired)
	require.InDelta(t, 0.5*prevTrust, n.TrustScore, 1e-9)
	require.True(t, n.IsSleeperFlagged)
	require.Equal(t, uint64(len(samples))+e.cfg.BanDuration, n.ElectionBannedUntil)
}

func TestSleeperSpikeExemptsAuthorities(t *testing.T) {
	e := New(config.DefaultConfig())
	n := &model.Node{TrustScore: 0.95, SocialTrust: 0.95}
	n.History.Push(model.Sample{Tick: 0, Value: 0.5})
	n.History.Push(model.Sample{Tick: 1, Value: 0.95})
	require.False(t, e.SleeperSpikeCheck(n, 1))
}

func TestCompositeScoreWeights(t *testing.T) {
	e := New(config.DefaultConfig())
	n := &model.Node{
		TrustScore:          1,
		BandwidthMbps:       150,
		ProcessingGHz:       4,
		Authenticity:        1,
		Cooperation:         1,
		BehaviorConsistency: 1,
	}
	score := e.CompositeScore(n, CompositeInputs{
		TimeInClusterNormalized: 1,
		ConnectionQuality:       1,
		DistanceToCentroid:      0,
	})
	require.InDelta(t, 1.0, score, 1e-9)
}

func TestMaliciousEvidenceObservable(t *testing.T) {
	n := &model.Node{Authenticity: 0.2, Cooperation: 0.9, BehaviorConsistency: 0.9}
	require.False(t, MaliciousEvidenceObservable(n)) // only 1/3 indicators bad

	n2 := &model.Node{Authenticity: 0.2, Cooperation: 0.2, BehaviorConsistency: 0.9}
	require.True(t, MaliciousEvidenceObservable(n2)) // 2/3 bad >= 0.5
}
