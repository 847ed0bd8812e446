// Package plant simulates the physical process: a first-order lag with
// transport delay, multiplicative measurement noise, and output saturation.
// The topology is fixed; only the parameters are configurable.
package plant

import (
	"math/rand"
	"time"
)

// State is the plant's mutable state, owned by the control loop and threaded
// explicitly through each tick.
type State struct {
	PV float64 // current process value
	T  float64 // elapsed simulated time in seconds
}

// Model is a first-order lag discretized with explicit Euler integration.
// Each step applies, in order: integration, multiplicative noise, saturation.
type Model struct {
	Kproc    float64 // process gain
	Tau      float64 // time constant in seconds
	NoisePct float64 // multiplicative noise amplitude, e.g. 0.0025 for ±0.25%
	OutMin   float64
	OutMax   float64

	rng *rand.Rand
}

// NewModel creates a plant model. A nil rng gets a time-seeded source; tests
// pass a fixed-seed source for reproducible noise.
func NewModel(kproc, tau, noisePct, outMin, outMax float64, rng *rand.Rand) *Model {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Model{
		Kproc:    kproc,
		Tau:      tau,
		NoisePct: noisePct,
		OutMin:   outMin,
		OutMax:   outMax,
		rng:      rng,
	}
}

// Step advances the plant one sample period of ts seconds and returns the new
// process value:
//
//	pv' = pv + ts * (Kproc*mv - pv) / Tau
//
// followed by uniform noise on [-NoisePct, +NoisePct] applied multiplicatively
// to the integrated value, then clamping to [OutMin, OutMax]. The ordering
// matters: noise perturbs the post-integration value, saturation comes last.
func (m *Model) Step(pv, mvDelayed, ts float64) float64 {
	next := pv + ts*((m.Kproc*mvDelayed-pv)/m.Tau)

	if m.NoisePct > 0 {
		noise := (m.rng.Float64()*2 - 1) * m.NoisePct
		next *= 1 + noise
	}

	if next < m.OutMin {
		next = m.OutMin
	} else if next > m.OutMax {
		next = m.OutMax
	}
	return next
}
