package glm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/pwm"
)

// ridge is a tiny L2 penalty that pins down the over-parameterized
// softmax coefficients without materially regularizing the fit
// (equivalent to an effectively unregularized model).
const ridge = 1e-9

// fitSettings bounds each per-column optimization. The objective is
// convex, so L-BFGS from the zero vector lands on the same optimum
// every call, which keeps refitting idempotent.
var fitSettings = optimize.Settings{
	GradientThreshold: 1e-6,
	MajorIterations:   500,
}

// Fit fits one multinomial logistic model per base position from the
// design's feature rows and the alignment-implied column weights.
// Units belonging to skipCore are left out of every per-position fit
// (pass "" to train on everything). The fit is deterministic.
func (d *Design) Fit(
	weights [][]pwm.Column,
	skipCore string,
) (*Model, error) {
	rows := make([]int, 0, len(d.units))
	for u, unit := range d.units {
		if skipCore != "" && unit.GroupCore == skipCore {
			continue
		}
		rows = append(rows, u)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no training units remain")
	}

	m := &Model{cm: d.cm, width: d.width, cols: make([]*colModel, d.width)}
	for j := 0; j < d.width; j++ {
		col, err := d.fitColumn(j, rows, weights[j])
		if err != nil {
			return nil, fmt.Errorf("base position %d: %s", j, err)
		}
		m.cols[j] = col
	}
	return m, nil
}

// fitColumn fits the model for a single base position over the given
// unit rows.
func (d *Design) fitColumn(
	j int,
	rows []int,
	w []pwm.Column,
) (*colModel, error) {
	edges := d.cm.Edges[j]
	if len(edges) == 0 {
		// No contact edges survive for this position; fall back to the
		// weighted marginal base distribution.
		var sum pwm.Column
		tot := 0.0
		for _, u := range rows {
			for b := 0; b < pwm.NumBases; b++ {
				sum[b] += w[u][b]
				tot += w[u][b]
			}
		}
		if tot == 0 {
			return nil, fmt.Errorf("no weight mass for marginal model")
		}
		for b := 0; b < pwm.NumBases; b++ {
			sum[b] = (sum[b] + ridge) / (tot + pwm.NumBases*ridge)
		}
		return &colModel{probs: sum}, nil
	}

	nfeat := featsPerEdge * len(edges)
	pp := nfeat + 1
	nparam := pwm.NumBases * pp

	objective := func(theta []float64) float64 {
		f := 0.0
		var z [pwm.NumBases]float64
		for _, u := range rows {
			x := d.feats[j][u]
			for b := 0; b < pwm.NumBases; b++ {
				t := theta[b*pp : (b+1)*pp]
				z[b] = t[nfeat]
				for k, xv := range x {
					z[b] += t[k] * xv
				}
			}
			lse := floats.LogSumExp(z[:])
			for b := 0; b < pwm.NumBases; b++ {
				f += w[u][b] * (lse - z[b])
			}
		}
		for _, t := range theta {
			f += 0.5 * ridge * t * t
		}
		return f
	}

	gradient := func(grad, theta []float64) {
		for i := range grad {
			grad[i] = ridge * theta[i]
		}
		var z [pwm.NumBases]float64
		for _, u := range rows {
			x := d.feats[j][u]
			wsum := 0.0
			for b := 0; b < pwm.NumBases; b++ {
				t := theta[b*pp : (b+1)*pp]
				z[b] = t[nfeat]
				for k, xv := range x {
					z[b] += t[k] * xv
				}
				wsum += w[u][b]
			}
			lse := floats.LogSumExp(z[:])
			for b := 0; b < pwm.NumBases; b++ {
				resid := math.Exp(z[b]-lse)*wsum - w[u][b]
				g := grad[b*pp : (b+1)*pp]
				for k, xv := range x {
					g[k] += resid * xv
				}
				g[nfeat] += resid
			}
		}
	}

	problem := optimize.Problem{Func: objective, Grad: gradient}
	result, err := optimize.Minimize(
		problem, make([]float64, nparam), &fitSettings, &optimize.LBFGS{})
	if err != nil {
		return nil, fmt.Errorf("logistic fit failed: %s", err)
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, fmt.Errorf("logistic fit diverged")
	}
	return &colModel{edges: edges, theta: result.X}, nil
}

// ContactMap returns the contact map the model encodes cores against.
func (m *Model) ContactMap() dataset.ContactMap {
	return m.cm
}
