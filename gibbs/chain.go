// Package gibbs drives the joint inference: independent Markov chains
// that alternate between resampling each record's latent alignment and
// refitting the recognition model, tracking a joint score until it
// stabilizes. Chains share only read-only inputs; each owns its
// alignment states, model, and random source outright.
package gibbs

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/MHunt-tools/rCLAMPS/align"
	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/glm"
)

// Status is the terminal state of a chain.
type Status int

const (
	// Converged means the joint score stabilized within tolerance over
	// the convergence window.
	Converged Status = iota
	// MaxIterReached means the iteration budget ran out first. The
	// result is still usable, just lower confidence.
	MaxIterReached
	// Failed means the chain hit a degenerate state (a model fit with
	// no finite solution) and produced no result.
	Failed
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxIterReached:
		return "max-iter-reached"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// A Result is the terminal state of one chain: the best-scoring
// alignment states seen, the model refit to them, and the score trace
// for convergence diagnostics.
type Result struct {
	Chain     int
	Status    Status
	Err       error
	Score     float64
	Iters     int
	States    map[string]align.State
	Model     *glm.Model
	Trace     []float64
	Agreement []float64
	MSE       []float64
}

// chainSeed derives a chain's private random seed from the master
// seed, so a multi-chain run is exactly reproducible while chains stay
// decorrelated. The multiplier is the splitmix64 constant.
func chainSeed(master uint64, chain int) uint64 {
	return master ^ (uint64(chain+1) * 0x9e3779b97f4a7c15)
}

// runChain executes one full chain and never shares mutable state with
// its caller beyond the returned Result.
func runChain(
	chain int,
	d *glm.Design,
	ds *dataset.Dataset,
	seeds map[string]align.State,
	cfg Config,
) Result {
	res := Result{Chain: chain}
	src := rand.NewSource(chainSeed(cfg.Seed, chain))
	rng := rand.New(src)

	// Initial alignments: seeded records are pinned, everything else
	// starts uniformly at random.
	states := make(map[string]align.State, ds.Len())
	fixed := make(map[string]bool, len(seeds))
	for _, r := range ds.Records {
		span := d.Span(r)
		if st, ok := seeds[r.Name]; ok && st.Valid(r.PWM.Len(), span) {
			states[r.Name] = st
			fixed[r.Name] = true
			continue
		}
		states[r.Name] = align.Random(rng, r.PWM.Len(), span)
	}

	best := cloneStates(states)
	bestScore := math.Inf(-1)
	var trace []float64

	converged := false
	iters := 0
	for iters < cfg.MaxIter && !converged {
		groups := groupOrder(ds, rng, cfg.RandomOrder)
		for _, g := range groups {
			weights, err := d.Weights(states)
			if err != nil {
				return res.fail(err)
			}
			model, err := d.Fit(weights, g.Core)
			if err != nil {
				return res.fail(err)
			}
			for _, name := range g.Members {
				if fixed[name] {
					continue
				}
				r, _ := ds.Record(name)
				st, err := sampleAlignment(rng, model, r, d.Span(r), cfg.Sample)
				if err != nil {
					return res.fail(err)
				}
				states[name] = st
			}
		}
		iters++

		// Refit to the new alignments and score the joint state.
		weights, err := d.Weights(states)
		if err != nil {
			return res.fail(err)
		}
		model, err := d.Fit(weights, "")
		if err != nil {
			return res.fail(err)
		}
		score, err := model.TotalLogLik(d, states, cfg.Sample)
		if err != nil {
			return res.fail(err)
		}
		if score > bestScore {
			bestScore = score
			best = cloneStates(states)
		}
		trace = append(trace, score)
		converged = stabilized(trace, cfg.Tol, cfg.Window)
	}

	// Report the best state visited, refit to it.
	weights, err := d.Weights(best)
	if err != nil {
		return res.fail(err)
	}
	model, err := d.Fit(weights, "")
	if err != nil {
		return res.fail(err)
	}

	res.Status = MaxIterReached
	if converged {
		res.Status = Converged
	}
	res.Score = bestScore
	res.Iters = iters
	res.States = best
	res.Model = model
	res.Trace = trace
	res.Agreement = model.Agreement(d, weights)
	res.MSE = model.MSE(d, weights)
	return res
}

func (r Result) fail(err error) Result {
	return Result{Chain: r.Chain, Status: Failed, Err: err}
}

// sampleAlignment draws a new alignment for one record from its
// categorical posterior under the current model: the normalized
// likelihood over every valid (offset, orientation). Sampling, rather
// than taking the maximum, is what lets chains escape local registers.
func sampleAlignment(
	rng *rand.Rand,
	model *glm.Model,
	r dataset.Record,
	span, sample int,
) (align.State, error) {
	cands := align.Candidates(r.PWM.Len(), span)
	if len(cands) == 0 {
		return align.State{}, fmt.Errorf(
			"record %s: pwm of %d columns cannot hold a span of %d",
			r.Name, r.PWM.Len(), span)
	}
	lls := make([]float64, len(cands))
	maxLL := math.Inf(-1)
	for i, cand := range cands {
		ll, err := model.RecordLogLik(r, cand, sample)
		if err != nil {
			return align.State{}, err
		}
		lls[i] = ll
		if ll > maxLL {
			maxLL = ll
		}
	}
	// Shift before exponentiating to avoid underflow.
	for i := range lls {
		lls[i] = math.Exp(lls[i] - maxLL)
	}
	i, ok := sampleuv.NewWeighted(lls, rng).Take()
	if !ok {
		return align.State{}, fmt.Errorf(
			"record %s: no candidate alignment has positive weight", r.Name)
	}
	return cands[i], nil
}

// stabilized reports whether the latest score differs by less than tol
// from each of the previous window scores.
func stabilized(trace []float64, tol float64, window int) bool {
	n := len(trace)
	if n < window+1 {
		return false
	}
	latest := trace[n-1]
	for i := 0; i < window; i++ {
		if math.Abs(latest-trace[n-2-i]) >= tol {
			return false
		}
	}
	return true
}

func groupOrder(
	ds *dataset.Dataset,
	rng *rand.Rand,
	random bool,
) []dataset.Group {
	if !random {
		return ds.Groups
	}
	order := make([]dataset.Group, len(ds.Groups))
	for i, j := range rng.Perm(len(ds.Groups)) {
		order[i] = ds.Groups[j]
	}
	return order
}

func cloneStates(states map[string]align.State) map[string]align.State {
	out := make(map[string]align.State, len(states))
	for k, v := range states {
		out[k] = v
	}
	return out
}
