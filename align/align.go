// Package align represents the latent alignment of a domain to its
// PWM: the register offset of the motif window within the matrix and
// the strand the motif is read from. Alignment values are plain data;
// they are owned and mutated only by the sampler driving a chain.
package align

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// A State is one latent alignment value for a single record: the
// column at which the width-wide motif window starts, and whether the
// window is read from the reverse complement.
type State struct {
	Start int
	Rev   bool
}

// Valid reports whether the state places a width-wide window entirely
// inside a PWM with pwmLen columns.
func (s State) Valid(pwmLen, width int) bool {
	return s.Start >= 0 && s.Start+width <= pwmLen
}

func (s State) String() string {
	strand := "+"
	if s.Rev {
		strand = "-"
	}
	return fmt.Sprintf("%d%s", s.Start, strand)
}

// Candidates enumerates every valid alignment of a width-wide window
// within a PWM of pwmLen columns: all forward offsets followed by all
// reverse-complement offsets. The enumeration order is fixed so that
// seeded sampling over it is reproducible.
func Candidates(pwmLen, width int) []State {
	n := pwmLen - width + 1
	if n <= 0 {
		return nil
	}
	states := make([]State, 0, 2*n)
	for _, rev := range []bool{false, true} {
		for start := 0; start < n; start++ {
			states = append(states, State{Start: start, Rev: rev})
		}
	}
	return states
}

// Random draws a uniformly random valid alignment from the chain's
// own random source.
func Random(rng *rand.Rand, pwmLen, width int) State {
	return State{
		Start: rng.Intn(pwmLen - width + 1),
		Rev:   rng.Intn(2) == 1,
	}
}

// FingerSegment maps a tandem unit index to the motif segment it
// contacts. Tandem zinc fingers bind antiparallel to the strand the
// motif window is read from, so the N-terminal finger contacts the
// last segment. Single-unit domains always map to segment 0.
func FingerSegment(finger, numFingers int) int {
	return numFingers - 1 - finger
}
