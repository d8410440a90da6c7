package glm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/MHunt-tools/rCLAMPS/align"
	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/pwm"
)

// A colModel is the fitted model for one base position. For positions
// with at least one contact edge, theta holds the coefficient block of
// each base: featsPerEdge weights per edge plus an intercept. For
// edgeless positions the model degenerates to the weighted marginal
// base distribution in probs.
type colModel struct {
	edges []int
	theta []float64
	probs pwm.Column
}

func (c *colModel) paramsPerBase() int {
	return featsPerEdge*len(c.edges) + 1
}

// predict returns the base distribution the column model assigns to a
// unit with the given feature row.
func (c *colModel) predict(x []float64) pwm.Column {
	if c.theta == nil {
		return c.probs
	}
	pp := c.paramsPerBase()
	var z [pwm.NumBases]float64
	for b := 0; b < pwm.NumBases; b++ {
		t := c.theta[b*pp : (b+1)*pp]
		z[b] = t[len(t)-1] // intercept
		for k, xv := range x {
			z[b] += t[k] * xv
		}
	}
	lse := floats.LogSumExp(z[:])
	var p pwm.Column
	for b := 0; b < pwm.NumBases; b++ {
		p[b] = math.Exp(z[b] - lse)
	}
	return p
}

// A Model is one complete fit of the recognition code: a column model
// per motif base position, together with the contact map that defines
// the feature encoding. Models are immutable once fitted.
type Model struct {
	cm    dataset.ContactMap
	width int
	cols  []*colModel
}

// Width returns the motif width the model was fitted for.
func (m *Model) Width() int {
	return m.width
}

// Predict returns the base distribution for motif position j given a
// single unit's core residue tuple.
func (m *Model) Predict(core string, j int) pwm.Column {
	return m.cols[j].predict(encodeCore(core, m.cols[j].edges))
}

// PredictPWM composes the per-position predictions for a record's
// tandem units into a full predicted matrix of width*len(fingers)
// columns, with each finger mapped to its antiparallel segment.
func (m *Model) PredictPWM(name string, fingers []string) pwm.PWM {
	n := len(fingers)
	p := pwm.New(name, m.width*n)
	for seg := 0; seg < n; seg++ {
		finger := fingers[n-1-seg] // inverse of align.FingerSegment
		for j := 0; j < m.width; j++ {
			p.Cols[seg*m.width+j] = m.Predict(finger, j)
		}
	}
	return p
}

// WindowLogLik scores one unit's aligned window columns under the
// model: per position, the observed base distribution is converted to
// pseudo-counts at the given sample depth and dotted with the log
// predicted probabilities.
func (m *Model) WindowLogLik(
	core string,
	window []pwm.Column,
	sample int,
) float64 {
	ll := 0.0
	for j := 0; j < m.width; j++ {
		p := m.Predict(core, j)
		for b := 0; b < pwm.NumBases; b++ {
			n := math.Round(window[j][b] * float64(sample))
			if n > 0 {
				ll += n * math.Log(p[b])
			}
		}
	}
	return ll
}

// RecordLogLik scores a whole record under a candidate alignment: the
// sum of its units' window log-likelihoods at that offset and
// orientation.
func (m *Model) RecordLogLik(
	r dataset.Record,
	st align.State,
	sample int,
) (float64, error) {
	span := m.width * r.NumFingers()
	window, err := r.PWM.Window(st.Start, span, st.Rev)
	if err != nil {
		return 0, err
	}
	ll := 0.0
	for f, core := range r.Fingers {
		seg := align.FingerSegment(f, r.NumFingers())
		ll += m.WindowLogLik(core, window[seg*m.width:(seg+1)*m.width], sample)
	}
	return ll, nil
}

// TotalLogLik scores every record of a design under its current
// alignment. This is the joint score tracked for chain convergence.
func (m *Model) TotalLogLik(
	d *Design,
	states map[string]align.State,
	sample int,
) (float64, error) {
	total := 0.0
	for _, r := range d.ds.Records {
		st, ok := states[r.Name]
		if !ok {
			return 0, fmt.Errorf("no alignment state for record %s", r.Name)
		}
		ll, err := m.RecordLogLik(r, st, sample)
		if err != nil {
			return 0, err
		}
		total += ll
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, fmt.Errorf("joint score is not finite")
	}
	return total, nil
}

// Agreement reports, per motif position, the fraction of units whose
// predicted distribution has Pearson correlation of at least 0.5 with
// the observed column they are aligned to. A convergence diagnostic,
// not part of the fit.
func (m *Model) Agreement(d *Design, weights [][]pwm.Column) []float64 {
	agree := make([]float64, m.width)
	if len(d.units) == 0 {
		return agree
	}
	for j := 0; j < m.width; j++ {
		match := 0
		for u := range d.units {
			pred := m.cols[j].predict(d.feats[j][u])
			if pwm.Corr(pred, weights[j][u]) >= 0.5 {
				match++
			}
		}
		agree[j] = float64(match) / float64(len(d.units))
	}
	return agree
}

// MSE reports, per motif position, the mean squared error between the
// predicted distribution of each unit and the observed column it is
// aligned to. A companion diagnostic to Agreement.
func (m *Model) MSE(d *Design, weights [][]pwm.Column) []float64 {
	mse := make([]float64, m.width)
	if len(d.units) == 0 {
		return mse
	}
	for j := 0; j < m.width; j++ {
		sum := 0.0
		for u := range d.units {
			pred := m.cols[j].predict(d.feats[j][u])
			for b := 0; b < pwm.NumBases; b++ {
				diff := pred[b] - weights[j][u][b]
				sum += diff * diff
			}
		}
		mse[j] = sum / float64(len(d.units)*pwm.NumBases)
	}
	return mse
}

// Coefficients returns the fitted weight of (base b, edge position k,
// amino acid a) at motif position j, for writing the coefficient
// table. Edgeless positions have no coefficients.
func (m *Model) Coefficients(j int) (edges []int, coef [][]float64) {
	c := m.cols[j]
	if c.theta == nil {
		return nil, nil
	}
	pp := c.paramsPerBase()
	coef = make([][]float64, pwm.NumBases)
	for b := 0; b < pwm.NumBases; b++ {
		coef[b] = append([]float64(nil), c.theta[b*pp:(b+1)*pp-1]...)
	}
	return c.edges, coef
}
