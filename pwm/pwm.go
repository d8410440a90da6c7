package pwm

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// A Column is a probability distribution over the four DNA bases at a
// single motif position.
type Column [NumBases]float64

// A PWM is a position weight matrix: an ordered list of base
// distributions describing a binding motif. Each column should sum to
// 1 after normalization.
type PWM struct {
	Name string
	Cols []Column
}

// New initializes a PWM with the given name and number of columns.
// All entries are zero; call Normalize (or fill the columns) before
// using it.
func New(name string, columns int) PWM {
	return PWM{
		Name: name,
		Cols: make([]Column, columns),
	}
}

// Len returns the number of columns in the PWM.
func (p PWM) Len() int {
	return len(p.Cols)
}

// Copy returns a deep copy of the PWM.
func (p PWM) Copy() PWM {
	cols := make([]Column, len(p.Cols))
	copy(cols, p.Cols)
	return PWM{Name: p.Name, Cols: cols}
}

// Validate returns an error if any column does not describe a
// probability distribution within tolerance tol.
func (p PWM) Validate(tol float64) error {
	for i, col := range p.Cols {
		sum := 0.0
		for _, f := range col {
			if f < 0 {
				return fmt.Errorf(
					"pwm %s: column %d has negative entry %f", p.Name, i, f)
			}
			sum += f
		}
		if math.Abs(sum-1.0) > tol {
			return fmt.Errorf(
				"pwm %s: column %d sums to %f, not 1", p.Name, i, sum)
		}
	}
	return nil
}

// Normalize renormalizes every column to sum to 1 after adding the
// given pseudocount to each entry. A pseudocount of zero on an all-zero
// column produces a uniform column.
func (p PWM) Normalize(pseudocount float64) {
	for i := range p.Cols {
		sum := 0.0
		for b := 0; b < NumBases; b++ {
			p.Cols[i][b] += pseudocount
			sum += p.Cols[i][b]
		}
		if sum == 0 {
			for b := 0; b < NumBases; b++ {
				p.Cols[i][b] = 1.0 / NumBases
			}
			continue
		}
		for b := 0; b < NumBases; b++ {
			p.Cols[i][b] /= sum
		}
	}
}

// ReverseComplement returns the PWM read off the opposite strand:
// columns in reverse order with complementary base entries swapped.
func (p PWM) ReverseComplement() PWM {
	rc := PWM{Name: p.Name, Cols: make([]Column, len(p.Cols))}
	for i, col := range p.Cols {
		j := len(p.Cols) - 1 - i
		for b := 0; b < NumBases; b++ {
			rc.Cols[j][complement[b]] = col[b]
		}
	}
	return rc
}

// Window returns width columns of the PWM starting at offset start,
// taken from the reverse complement when rev is set. The offset always
// indexes the strand being read, so Window(s, w, true) is column s
// through s+w-1 of the reverse complement.
func (p PWM) Window(start, width int, rev bool) ([]Column, error) {
	src := p
	if rev {
		src = p.ReverseComplement()
	}
	if start < 0 || start+width > len(src.Cols) {
		return nil, fmt.Errorf(
			"pwm %s: window [%d,%d) out of range for %d columns",
			p.Name, start, start+width, len(p.Cols))
	}
	cols := make([]Column, width)
	copy(cols, src.Cols[start:start+width])
	return cols, nil
}

// Rescale sharpens every column by raising each entry to a common
// exponent chosen so that a column whose strongest base has
// probability 1/maxSelect or more becomes effectively deterministic,
// and renormalizing. This follows the manuscript's PWM rescaling with
// maxBaseSelect, which compensates for over-smoothed input matrices.
func (p PWM) Rescale(maxSelect float64) {
	if maxSelect <= 1 {
		return
	}
	exp := math.Log(maxSelect) / math.Log(4.0)
	for i := range p.Cols {
		sum := 0.0
		for b := 0; b < NumBases; b++ {
			p.Cols[i][b] = math.Pow(p.Cols[i][b], exp)
			sum += p.Cols[i][b]
		}
		if sum > 0 {
			for b := 0; b < NumBases; b++ {
				p.Cols[i][b] /= sum
			}
		}
	}
}

// Corr returns the Pearson correlation between two base distributions.
// Degenerate (zero variance) columns yield a correlation of 0.
func Corr(a, b Column) float64 {
	r, err := stats.Pearson(a[:], b[:])
	if err != nil || math.IsNaN(r) {
		return 0
	}
	return r
}

// MeanCorr returns the mean per-column Pearson correlation between two
// equal-width column slices.
func MeanCorr(a, b []Column) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		sum += Corr(a[i], b[i])
	}
	return sum / float64(len(a))
}
