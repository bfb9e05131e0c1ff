package model

import "github.com/gammazero/deque"

// Sample is one historical composite-trust observation.
type Sample struct {
	Tick  uint64
	Value float64
}

// TrustRing is the 10-entry historical-trust ring buffer backed by
// gammazero/deque. Push evicts the oldest sample once the ring is at
// capacity, holding the last 10 composite-trust samples.
type TrustRing struct {
	buf deque.Deque[Sample]
}

// RingCapacity is the fixed ring size: the last 10 composite-trust samples.
const RingCapacity = 10

// Push appends a new sample, evicting the oldest if the ring is full.
func (r *TrustRing) Push(s Sample) {
	r.buf.PushBack(s)
	for r.buf.Len() > RingCapacity {
		r.buf.PopFront()
	}
}

// Len returns the number of samples currently held.
func (r *TrustRing) Len() int {
	return r.buf.Len()
}

// Mean returns the mean of all samples, or 0.5 if the ring is empty.
func (r *TrustRing) Mean() float64 {
	n := r.buf.Len()
	if n == 0 {
		return 0.5
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += r.buf.At(i).Value
	}
	return sum / float64(n)
}

// Samples returns a copy of the ring contents in insertion order, oldest
// first, for the sleeper-spike scan and for tests.
func (r *TrustRing) Samples() []Sample {
	n := r.buf.Len()
	out := make([]Sample, n)
	for i := 0; i < n; i++ {
		out[i] = r.buf.At(i)
	}
	return out
}

// SleeperSpike reports whether any pair of samples (t_i,v_i), (t_j,v_j) with
// t_j - t_i <= window shows v_j - v_i >= threshold: a sudden trust jump.
// Only forward-in-time pairs within the window
// are considered; the ring is small (<=10) so the O(n^2) scan is cheap.
func (r *TrustRing) SleeperSpike(window uint64, threshold float64) bool {
	n := r.buf.Len()
	for i := 0; i < n; i++ {
		si := r.buf.At(i)
		for j := i + 1; j < n; j++ {
			sj := r.buf.At(j)
			if sj.Tick < si.Tick {
				continue
			}
			if sj.Tick-si.Tick <= window && sj.Value-si.Value >= threshold {
				return true
			}
		}
	}
	return false
}
