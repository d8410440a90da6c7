// Package holdout measures out-of-sample prediction accuracy:
// leave-one-group-out refits of the full sampler, scored against the
// measured PWMs of the withheld records. Holdout is by observation
// group, not by record, so residue information shared within a group
// never leaks into its own evaluation.
package holdout

import (
	"bufio"
	"fmt"
	"io"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/MHunt-tools/rCLAMPS/align"
	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/gibbs"
	"github.com/MHunt-tools/rCLAMPS/pwm"
)

// A Row is one record's holdout evaluation: the predicted matrix, the
// best alignment of that prediction to the measured matrix
// (PredScore), and the agreement at the register the full-data run
// inferred (TransferScore, NaN when no full-data run is supplied).
type Row struct {
	Record        string
	Core          string
	Predicted     pwm.PWM
	PredScore     float64
	TransferScore float64
}

// Evaluate runs the leave-one-group-out protocol: for every group, the
// whole Gibbs+GLM fit is re-run on the remaining groups and the
// resulting model predicts the withheld records' PWMs from core
// identity alone. full, if non-nil, supplies the alignment states of a
// full-data run for transfer scoring. Seeds for withheld records are
// dropped so the training run never sees them.
func Evaluate(
	ds *dataset.Dataset,
	cm dataset.ContactMap,
	seeds map[string]align.State,
	cfg gibbs.Config,
	full *gibbs.Run,
) ([]Row, error) {
	var rows []Row
	for _, g := range ds.Groups {
		train, err := ds.Without(g.Core)
		if err != nil {
			return nil, fmt.Errorf("holdout group %q: %s", g.Core, err)
		}
		log.WithFields(log.Fields{
			"group":   g.Core,
			"members": len(g.Members),
			"train":   train.Len(),
		}).Info("holdout refit")

		run, err := gibbs.Execute(train, cm, pruneSeeds(seeds, g), cfg)
		if err != nil {
			return nil, fmt.Errorf("holdout group %q: %s", g.Core, err)
		}

		for _, name := range g.Members {
			r, ok := ds.Record(name)
			if !ok {
				return nil, fmt.Errorf("holdout record %s not in dataset",
					name)
			}
			pred := run.Best.Model.PredictPWM(r.Name, r.Fingers)
			row := Row{
				Record:        r.Name,
				Core:          r.Core,
				Predicted:     pred,
				PredScore:     bestWindowScore(pred, r.PWM),
				TransferScore: math.NaN(),
			}
			if full != nil {
				if st, ok := full.Best.States[r.Name]; ok {
					if window, err := r.PWM.Window(
						st.Start, pred.Len(), st.Rev); err == nil {
						row.TransferScore = pwm.MeanCorr(pred.Cols, window)
					}
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// bestWindowScore aligns a predicted matrix against the measured one
// over every offset and orientation and returns the best mean
// per-column correlation.
func bestWindowScore(pred, measured pwm.PWM) float64 {
	best := math.Inf(-1)
	for _, cand := range align.Candidates(measured.Len(), pred.Len()) {
		window, err := measured.Window(cand.Start, pred.Len(), cand.Rev)
		if err != nil {
			continue
		}
		if s := pwm.MeanCorr(pred.Cols, window); s > best {
			best = s
		}
	}
	if math.IsInf(best, -1) {
		return math.NaN()
	}
	return best
}

// pruneSeeds drops the withheld group's records from the seed table.
func pruneSeeds(
	seeds map[string]align.State,
	g dataset.Group,
) map[string]align.State {
	if len(seeds) == 0 {
		return seeds
	}
	held := make(map[string]bool, len(g.Members))
	for _, name := range g.Members {
		held[name] = true
	}
	out := make(map[string]align.State, len(seeds))
	for name, st := range seeds {
		if !held[name] {
			out[name] = st
		}
	}
	return out
}

// WriteTable writes the holdout comparison table: one row per record
// with its prediction-only and transfer scores. NaN scores are written
// as NA.
func WriteTable(w io.Writer, rows []Row) error {
	buf := bufio.NewWriter(w)
	_, err := fmt.Fprintln(buf, "prot\tcore\tpredScore\ttransferScore")
	if err != nil {
		return err
	}
	for _, row := range rows {
		_, err := fmt.Fprintf(buf, "%s\t%s\t%s\t%s\n",
			row.Record, row.Core,
			formatScore(row.PredScore), formatScore(row.TransferScore))
		if err != nil {
			return err
		}
	}
	return buf.Flush()
}

func formatScore(s float64) string {
	if math.IsNaN(s) {
		return "NA"
	}
	return fmt.Sprintf("%.6f", s)
}
