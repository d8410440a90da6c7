package glm

import (
	"math"
	"testing"

	"github.com/MHunt-tools/rCLAMPS/align"
	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/pwm"
)

const testWidth = 3

// plantedPWM builds a PWM of five columns with a three-column motif
// planted at offset 1: the target base of each motif column carries
// almost all the mass. Flanking columns are uniform.
func plantedPWM(name string, targets [testWidth]int) pwm.PWM {
	p := pwm.New(name, 5)
	for i := range p.Cols {
		for b := 0; b < pwm.NumBases; b++ {
			p.Cols[i][b] = 0.25
		}
	}
	for j, target := range targets {
		for b := 0; b < pwm.NumBases; b++ {
			p.Cols[1+j][b] = 0.01
		}
		p.Cols[1+j][target] = 0.97
	}
	return p
}

func fullContactMap() dataset.ContactMap {
	cm := dataset.ContactMap{
		CorePos: []int{0, 1, 2},
		Edges:   make([][]int, testWidth),
	}
	for j := 0; j < testWidth; j++ {
		cm.Edges[j] = []int{0, 1, 2}
	}
	return cm
}

// testDesign builds the spec's three-record scenario: two records
// sharing core QNR bound to an AAA-like motif and one EAI record
// bound to a CCC-like motif, all planted at offset 1 forward.
func testDesign(t *testing.T) (*Design, *dataset.Dataset, map[string]align.State) {
	t.Helper()
	records := []dataset.Record{
		{Name: "Six3", Fingers: []string{"QNR"}, Core: "QNR",
			PWM: plantedPWM("Six3", [testWidth]int{0, 0, 0})},
		{Name: "Six6", Fingers: []string{"QNR"}, Core: "QNR",
			PWM: plantedPWM("Six6", [testWidth]int{0, 0, 0})},
		{Name: "En1", Fingers: []string{"EAI"}, Core: "EAI",
			PWM: plantedPWM("En1", [testWidth]int{1, 1, 1})},
	}
	ds, err := dataset.New(records, testWidth, dataset.GroupByCore)
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDesign(ds, fullContactMap())
	if err != nil {
		t.Fatal(err)
	}
	states := make(map[string]align.State, ds.Len())
	for _, r := range ds.Records {
		states[r.Name] = align.State{Start: 1}
	}
	return d, ds, states
}

func fitAll(t *testing.T, d *Design, states map[string]align.State) *Model {
	t.Helper()
	weights, err := d.Weights(states)
	if err != nil {
		t.Fatal(err)
	}
	m, err := d.Fit(weights, "")
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestFitIdempotent(t *testing.T) {
	d, _, states := testDesign(t)
	weights, err := d.Weights(states)
	if err != nil {
		t.Fatal(err)
	}
	m1, err := d.Fit(weights, "")
	if err != nil {
		t.Fatal(err)
	}
	m2, err := d.Fit(weights, "")
	if err != nil {
		t.Fatal(err)
	}
	for j := 0; j < testWidth; j++ {
		t1, t2 := m1.cols[j].theta, m2.cols[j].theta
		if len(t1) != len(t2) {
			t.Fatalf("column %d: parameter count differs", j)
		}
		for k := range t1 {
			if t1[k] != t2[k] {
				t.Fatalf("column %d parameter %d: %v != %v",
					j, k, t1[k], t2[k])
			}
		}
	}
}

func TestPredictionsAreDistributions(t *testing.T) {
	d, ds, states := testDesign(t)
	m := fitAll(t, d, states)
	for _, r := range ds.Records {
		pred := m.PredictPWM(r.Name, r.Fingers)
		if err := pred.Validate(1e-6); err != nil {
			t.Errorf("predicted pwm for %s: %s", r.Name, err)
		}
	}
}

func TestSharedCoresSharePredictions(t *testing.T) {
	d, ds, states := testDesign(t)
	m := fitAll(t, d, states)

	six3, _ := ds.Record("Six3")
	six6, _ := ds.Record("Six6")
	en1, _ := ds.Record("En1")
	p3 := m.PredictPWM(six3.Name, six3.Fingers)
	p6 := m.PredictPWM(six6.Name, six6.Fingers)
	pe := m.PredictPWM(en1.Name, en1.Fingers)

	differs := false
	for j := 0; j < testWidth; j++ {
		for b := 0; b < pwm.NumBases; b++ {
			if p3.Cols[j][b] != p6.Cols[j][b] {
				t.Errorf("shared core predictions differ at column %d", j)
			}
			if p3.Cols[j][b] != pe.Cols[j][b] {
				differs = true
			}
		}
	}
	if !differs {
		t.Error("EAI prediction identical to QNR prediction")
	}
}

func TestFitSeparatesCores(t *testing.T) {
	d, ds, states := testDesign(t)
	m := fitAll(t, d, states)

	six3, _ := ds.Record("Six3")
	en1, _ := ds.Record("En1")
	for j := 0; j < testWidth; j++ {
		if got := argmax(m.PredictPWM(six3.Name, six3.Fingers).Cols[j]); got != 0 {
			t.Errorf("QNR column %d: predicted base %d, want A", j, got)
		}
		if got := argmax(m.PredictPWM(en1.Name, en1.Fingers).Cols[j]); got != 1 {
			t.Errorf("EAI column %d: predicted base %d, want C", j, got)
		}
	}
}

func TestHoldoutRowsDoNotInfluenceFit(t *testing.T) {
	d, _, states := testDesign(t)
	weights, err := d.Weights(states)
	if err != nil {
		t.Fatal(err)
	}
	m1, err := d.Fit(weights, "EAI")
	if err != nil {
		t.Fatal(err)
	}

	// Corrupting the held-out group's responses must not move the fit.
	lo, hi, ok := d.UnitRange("EAI")
	if !ok {
		t.Fatal("EAI group missing from design")
	}
	for j := 0; j < testWidth; j++ {
		for u := lo; u < hi; u++ {
			weights[j][u] = pwm.Column{0, 0, 0, 1}
		}
	}
	m2, err := d.Fit(weights, "EAI")
	if err != nil {
		t.Fatal(err)
	}
	for j := 0; j < testWidth; j++ {
		t1, t2 := m1.cols[j].theta, m2.cols[j].theta
		for k := range t1 {
			if t1[k] != t2[k] {
				t.Fatalf("held-out weights leaked into column %d", j)
			}
		}
	}
}

func TestSingleGroupFits(t *testing.T) {
	records := []dataset.Record{
		{Name: "only", Fingers: []string{"QNR"}, Core: "QNR",
			PWM: plantedPWM("only", [testWidth]int{2, 2, 2})},
	}
	ds, err := dataset.New(records, testWidth, dataset.GroupByCore)
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDesign(ds, fullContactMap())
	if err != nil {
		t.Fatal(err)
	}
	states := map[string]align.State{"only": {Start: 1}}
	m := fitAll(t, d, states)
	pred := m.PredictPWM("only", []string{"QNR"})
	if err := pred.Validate(1e-6); err != nil {
		t.Fatal(err)
	}
}

func TestEdgelessColumnFallsBack(t *testing.T) {
	cm := fullContactMap()
	cm.Edges[1] = nil

	records := []dataset.Record{
		{Name: "a", Fingers: []string{"QNR"}, Core: "QNR",
			PWM: plantedPWM("a", [testWidth]int{0, 3, 0})},
		{Name: "b", Fingers: []string{"EAI"}, Core: "EAI",
			PWM: plantedPWM("b", [testWidth]int{1, 3, 1})},
	}
	ds, err := dataset.New(records, testWidth, dataset.GroupByCore)
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDesign(ds, cm)
	if err != nil {
		t.Fatal(err)
	}
	states := map[string]align.State{
		"a": {Start: 1},
		"b": {Start: 1},
	}
	m := fitAll(t, d, states)

	// Column 1 has no edges, so both cores see the marginal.
	pa := m.Predict("QNR", 1)
	pb := m.Predict("EAI", 1)
	for b := 0; b < pwm.NumBases; b++ {
		if pa[b] != pb[b] {
			t.Fatal("edgeless column prediction depends on core")
		}
	}
	if argmax(pa) != 3 {
		t.Errorf("marginal column argmax: got %d, want T", argmax(pa))
	}
}

func TestRecordLogLikPrefersTrueAlignment(t *testing.T) {
	d, ds, states := testDesign(t)
	m := fitAll(t, d, states)

	six3, _ := ds.Record("Six3")
	trueLL, err := m.RecordLogLik(six3, align.State{Start: 1}, 100)
	if err != nil {
		t.Fatal(err)
	}
	for _, cand := range align.Candidates(six3.PWM.Len(), testWidth) {
		if cand == (align.State{Start: 1}) {
			continue
		}
		ll, err := m.RecordLogLik(six3, cand, 100)
		if err != nil {
			t.Fatal(err)
		}
		if ll >= trueLL {
			t.Errorf("candidate %v scores %f, true alignment %f",
				cand, ll, trueLL)
		}
	}
}

func TestTotalLogLikFinite(t *testing.T) {
	d, _, states := testDesign(t)
	m := fitAll(t, d, states)
	weights, err := d.Weights(states)
	if err != nil {
		t.Fatal(err)
	}
	total, err := m.TotalLogLik(d, states, 100)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		t.Fatalf("joint score is not finite: %f", total)
	}
	// A log-likelihood of count data is non-positive.
	if total > 0 {
		t.Errorf("joint score is positive: %f", total)
	}
	agree := m.Agreement(d, weights)
	if len(agree) != testWidth {
		t.Fatalf("agreement has %d entries", len(agree))
	}
	for j, frac := range agree {
		if frac < 0.99 {
			t.Errorf("agreement at column %d only %f", j, frac)
		}
	}

	// A near-perfect fit keeps the companion error diagnostic small.
	mse := m.MSE(d, weights)
	if len(mse) != testWidth {
		t.Fatalf("mse has %d entries", len(mse))
	}
	for j, e := range mse {
		if e < 0 || e > 0.01 {
			t.Errorf("mse at column %d is %f", j, e)
		}
	}
}

func argmax(c pwm.Column) int {
	best := 0
	for b := 1; b < pwm.NumBases; b++ {
		if c[b] > c[best] {
			best = b
		}
	}
	return best
}
