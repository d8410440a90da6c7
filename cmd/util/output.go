package util

import (
	"fmt"
	"sort"

	"github.com/MHunt-tools/rCLAMPS/align"
	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/gibbs"
	"github.com/MHunt-tools/rCLAMPS/glm"
	"github.com/MHunt-tools/rCLAMPS/pwm"
)

// WritePWMTable writes a PWM table to the output directory.
func WritePWMTable(name string, pwms map[string]pwm.PWM) {
	f := CreateFile(OutPath(name))
	defer f.Close()
	Assert(pwm.WriteTable(f, pwms), "Could not write '%s'", name)
}

// WriteCoreTab writes the record → core tuple table.
func WriteCoreTab(name string, ds *dataset.Dataset) {
	f := CreateFile(OutPath(name))
	defer f.Close()
	for _, r := range ds.Records {
		_, err := fmt.Fprintf(f, "%s\t%s\n", r.Name, r.Core)
		Assert(err, "Could not write '%s'", name)
	}
}

// WriteGroupTab writes the group → member table.
func WriteGroupTab(name string, ds *dataset.Dataset) {
	f := CreateFile(OutPath(name))
	defer f.Close()
	for _, g := range ds.Groups {
		for _, member := range g.Members {
			_, err := fmt.Fprintf(f, "%s\t%s\n", g.Core, member)
			Assert(err, "Could not write '%s'", name)
		}
	}
}

// WriteStates writes the final alignment of every record in a format
// that round-trips as a seed table.
func WriteStates(name string, states map[string]align.State) {
	f := CreateFile(OutPath(name))
	defer f.Close()
	Assert(align.WriteStates(f, states), "Could not write '%s'", name)
}

// WriteTrace writes every chain's per-iteration score trace, with its
// terminal status, for convergence diagnostics.
func WriteTrace(name string, run *gibbs.Run) {
	f := CreateFile(OutPath(name))
	defer f.Close()
	_, err := fmt.Fprintln(f, "chain\tstatus\titer\tscore")
	Assert(err, "Could not write '%s'", name)
	for _, res := range run.Chains {
		if res.Status == gibbs.Failed {
			_, err := fmt.Fprintf(f, "%d\t%s\t0\tNA\n", res.Chain, res.Status)
			Assert(err, "Could not write '%s'", name)
			continue
		}
		for i, score := range res.Trace {
			_, err := fmt.Fprintf(f, "%d\t%s\t%d\t%f\n",
				res.Chain, res.Status, i+1, score)
			Assert(err, "Could not write '%s'", name)
		}
	}
}

// WriteAgreement writes the best chain's per-position agreement
// diagnostic.
func WriteAgreement(name string, run *gibbs.Run) {
	f := CreateFile(OutPath(name))
	defer f.Close()
	_, err := fmt.Fprintln(f, "bpos\tfracAgree")
	Assert(err, "Could not write '%s'", name)
	for j, frac := range run.Best.Agreement {
		_, err := fmt.Fprintf(f, "%d\t%f\n", j, frac)
		Assert(err, "Could not write '%s'", name)
	}
}

// WriteMSE writes the best chain's per-position mean squared error
// between predicted and aligned observed columns.
func WriteMSE(name string, run *gibbs.Run) {
	f := CreateFile(OutPath(name))
	defer f.Close()
	_, err := fmt.Fprintln(f, "bpos\tmse")
	Assert(err, "Could not write '%s'", name)
	for j, mse := range run.Best.MSE {
		_, err := fmt.Fprintf(f, "%d\t%f\n", j, mse)
		Assert(err, "Could not write '%s'", name)
	}
}

// WriteCoefTable writes the fitted model coefficients, keyed by motif
// position, match-state position, base, and amino acid.
func WriteCoefTable(name string, model *glm.Model) {
	f := CreateFile(OutPath(name))
	defer f.Close()
	_, err := fmt.Fprintln(f, "bpos\taapos\tbase\taa\tcoef")
	Assert(err, "Could not write '%s'", name)

	cm := model.ContactMap()
	for j := 0; j < model.Width(); j++ {
		edges, coef := model.Coefficients(j)
		if coef == nil {
			continue
		}
		for b := 0; b < pwm.NumBases; b++ {
			for k, e := range edges {
				for a := 0; a < pwm.NumAminos-1; a++ {
					_, err := fmt.Fprintf(f, "%d\tA.%d\t%c\t%c\t%f\n",
						j+1, cm.CorePos[e], pwm.Bases[b], pwm.Amino[a],
						coef[b][k*(pwm.NumAminos-1)+a])
					Assert(err, "Could not write '%s'", name)
				}
			}
		}
	}
}

// PredictAll composes the best model's predicted PWM for every record.
func PredictAll(ds *dataset.Dataset, model *glm.Model) map[string]pwm.PWM {
	preds := make(map[string]pwm.PWM, ds.Len())
	names := make([]string, 0, ds.Len())
	for _, r := range ds.Records {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	for _, name := range names {
		r, _ := ds.Record(name)
		preds[name] = model.PredictPWM(r.Name, r.Fingers)
	}
	return preds
}
