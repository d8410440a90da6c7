// rclamps-holdout measures out-of-sample accuracy of the recognition
// model: for every observation group it re-runs the full Gibbs+GLM fit
// with that group withheld, predicts the withheld records' PWMs from
// core identity alone, and writes the comparison table against the
// measured matrices.
package main

import (
	"flag"

	"github.com/MHunt-tools/rCLAMPS/align"
	"github.com/MHunt-tools/rCLAMPS/cmd/util"
	"github.com/MHunt-tools/rCLAMPS/gibbs"
	"github.com/MHunt-tools/rCLAMPS/holdout"
	"github.com/MHunt-tools/rCLAMPS/pwm"
)

var (
	flagContactMap = ""
	flagNoTransfer = false
)

func init() {
	flag.StringVar(&flagContactMap, "contact-map", flagContactMap,
		"A contact map table (bpos/apos pairs). Defaults to the "+
			"canonical homeodomain map.")
	flag.BoolVar(&flagNoTransfer, "no-transfer", flagNoTransfer,
		"Skip the full-data run used for transfer scoring.")
	util.FlagUse(
		"cpu", "width", "seed", "chains", "iter", "sample",
		"random-order", "domain", "group", "unit-len", "offset",
		"pseudo", "rescale", "seeds", "test-file", "out-dir",
	)
	util.FlagParse("protein-fasta pwm-table", "")
	util.AssertNArg(2)
}

func main() {
	ds, cm := util.LoadDataset(util.Arg(0), util.Arg(1), flagContactMap)
	cfg := util.GibbsConfig()

	var seeds map[string]align.State
	if len(util.FlagSeedFile) > 0 {
		seeds = util.SeedsRead(util.FlagSeedFile)
	}

	// The transfer score compares predictions at the register the
	// full-data run inferred, so fit on everything first.
	var full *gibbs.Run
	if !flagNoTransfer {
		var err error
		full, err = gibbs.Execute(ds, cm, seeds, cfg)
		util.Assert(err, "Full-data Gibbs sampling failed")
	}

	rows, err := holdout.Evaluate(ds, cm, seeds, cfg, full)
	util.Assert(err, "Holdout evaluation failed")

	f := util.CreateFile(util.OutPath("holdoutTab.txt"))
	defer f.Close()
	util.Assert(holdout.WriteTable(f, rows),
		"Could not write 'holdoutTab.txt'")

	preds := make(map[string]pwm.PWM, len(rows))
	for _, row := range rows {
		preds[row.Record] = row.Predicted
	}
	util.WritePWMTable("holdoutPWMs.txt", preds)
}
