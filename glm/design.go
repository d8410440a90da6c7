// Package glm fits the recognition model: one weighted multinomial
// logistic regression per motif base position, relating the identity
// of the core residues with a contact edge to that position to the
// base distribution observed at the aligned PWM column. Fitting is
// deterministic given the alignment state of every record.
package glm

import (
	"fmt"

	"github.com/MHunt-tools/rCLAMPS/align"
	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/pwm"
)

// featsPerEdge is the one-hot width of a single contact edge. The
// twentieth amino acid is the implicit all-zeros reference level, so
// the intercept stays identifiable.
const featsPerEdge = pwm.NumAminos - 1

// A Unit is one observation row of the design: a single domain unit
// (a homeodomain, or one finger of a tandem array) with its core
// residue tuple.
type Unit struct {
	Record    string
	GroupCore string
	Finger    int
	Fingers   int
	Core      string
}

// A Design holds the fixed part of the regression problem: the
// observation units in dataset order and their one-hot feature rows
// per base position. The alignment-dependent response weights are
// supplied separately at fit time.
type Design struct {
	ds *dataset.Dataset
	cm dataset.ContactMap

	width int
	units []Unit
	feats [][][]float64 // [bpos][unit][feature]
}

// NewDesign encodes every record of the dataset against the contact
// map. Each record contributes one unit per finger; units of a record
// and of a group stay contiguous.
func NewDesign(
	ds *dataset.Dataset,
	cm dataset.ContactMap,
) (*Design, error) {
	width := cm.Width()
	if width == 0 {
		return nil, fmt.Errorf("contact map has no base positions")
	}

	var units []Unit
	for _, r := range ds.Records {
		for f, core := range r.Fingers {
			if len(core) != len(cm.CorePos) {
				return nil, fmt.Errorf(
					"record %s finger %d: core has %d residues, "+
						"contact map has %d positions",
					r.Name, f, len(core), len(cm.CorePos))
			}
			units = append(units, Unit{
				Record:    r.Name,
				GroupCore: r.Core,
				Finger:    f,
				Fingers:   r.NumFingers(),
				Core:      core,
			})
		}
	}

	d := &Design{
		ds:    ds,
		cm:    cm,
		width: width,
		units: units,
		feats: make([][][]float64, width),
	}
	for j := 0; j < width; j++ {
		d.feats[j] = make([][]float64, len(units))
		for u, unit := range units {
			d.feats[j][u] = encodeCore(unit.Core, cm.Edges[j])
		}
	}
	return d, nil
}

// encodeCore one-hot encodes the residues of a core tuple at the given
// edge positions.
func encodeCore(core string, edges []int) []float64 {
	x := make([]float64, featsPerEdge*len(edges))
	for k, e := range edges {
		if a := pwm.AminoIndex(core[e]); a >= 0 && a < featsPerEdge {
			x[k*featsPerEdge+a] = 1
		}
	}
	return x
}

// Width returns the motif width of the design.
func (d *Design) Width() int {
	return d.width
}

// Units returns the observation units in design order.
func (d *Design) Units() []Unit {
	return d.units
}

// Span returns the number of PWM columns a record's full tandem array
// covers under this design.
func (d *Design) Span(r dataset.Record) int {
	return d.width * r.NumFingers()
}

// Weights computes the regression responses implied by the given
// alignment states: for each base position and unit, the base
// distribution at the aligned PWM column. A record whose state is
// invalid for its PWM is an error; the sampler never proposes one.
func (d *Design) Weights(
	states map[string]align.State,
) ([][]pwm.Column, error) {
	w := make([][]pwm.Column, d.width)
	for j := range w {
		w[j] = make([]pwm.Column, len(d.units))
	}
	for u, unit := range d.units {
		r, ok := d.ds.Record(unit.Record)
		if !ok {
			return nil, fmt.Errorf("design unit %s not in dataset",
				unit.Record)
		}
		st, ok := states[unit.Record]
		if !ok {
			return nil, fmt.Errorf("no alignment state for record %s",
				unit.Record)
		}
		window, err := r.PWM.Window(st.Start, d.Span(r), st.Rev)
		if err != nil {
			return nil, err
		}
		seg := align.FingerSegment(unit.Finger, unit.Fingers)
		for j := 0; j < d.width; j++ {
			w[j][u] = window[seg*d.width+j]
		}
	}
	return w, nil
}

// UnitRange returns the half-open unit index range [lo, hi) covered by
// the group with the given core, or ok=false if the group is absent.
func (d *Design) UnitRange(groupCore string) (lo, hi int, ok bool) {
	lo = -1
	for u, unit := range d.units {
		if unit.GroupCore == groupCore {
			if lo < 0 {
				lo = u
			}
			hi = u + 1
		}
	}
	return lo, hi, lo >= 0
}
