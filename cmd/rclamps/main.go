// rclamps infers the recognition code for a DNA-binding domain family:
// it jointly aligns each training record's PWM to its core residues
// and fits the per-position recognition model by Gibbs sampling over
// many independent chains, then writes the fitted model, the final
// alignments, and the predicted PWMs.
package main

import (
	"flag"

	"github.com/MHunt-tools/rCLAMPS/align"
	"github.com/MHunt-tools/rCLAMPS/cmd/util"
	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/gibbs"
	"github.com/MHunt-tools/rCLAMPS/pwm"
)

var flagContactMap = ""

func init() {
	flag.StringVar(&flagContactMap, "contact-map", flagContactMap,
		"A contact map table (bpos/apos pairs). Defaults to the "+
			"canonical homeodomain map.")
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

	var seeds map[string]align.State
	if len(util.FlagSeedFile) > 0 {
		seeds = util.SeedsRead(util.FlagSeedFile)
	}

	run, err := gibbs.Execute(ds, cm, seeds, util.GibbsConfig())
	util.Assert(err, "Gibbs sampling failed")

	// Echo the training inputs alongside the results, then write the
	// converged model and its predictions.
	util.WriteCoreTab("coreSeqTab.txt", ds)
	util.WriteGroupTab("obsGrpTab.txt", ds)
	util.WritePWMTable("pwmTab.txt", trainingPWMs(ds))

	util.WriteStates("alignedStarts.txt", run.Best.States)
	util.WriteTrace("scoreTrace.txt", run)
	util.WriteAgreement("posAgreement.txt", run)
	util.WriteMSE("posMSE.txt", run)
	util.WriteCoefTable("modelCoefs.txt", run.Best.Model)
	util.WritePWMTable("predictedPWMs.txt",
		util.PredictAll(ds, run.Best.Model))
}

func trainingPWMs(ds *dataset.Dataset) map[string]pwm.PWM {
	pwms := make(map[string]pwm.PWM, ds.Len())
	for _, r := range ds.Records {
		pwms[r.Name] = r.PWM
	}
	return pwms
}
