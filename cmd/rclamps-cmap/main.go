// rclamps-cmap builds a pruned contact map from weighted structural
// contact tables: match states are kept when enough solved structures
// show them contacting the DNA, the motif frame is anchored on the
// family's invariant base contact, and the surviving edges are written
// in the table format the fitting commands read with -contact-map.
package main

import (
	"flag"

	"github.com/MHunt-tools/rCLAMPS/cmd/util"
	"github.com/MHunt-tools/rCLAMPS/dataset"
)

var (
	flagCutBB      = 0.30
	flagCutBase    = 0.05
	flagMaxPerBase = 0
	flagAnchorAPos = 51
	flagAnchorBCol = 2
)

func init() {
	flag.Float64Var(&flagCutBB, "cut-bb", flagCutBB,
		"The minimum backbone contact weight for an edge to survive.")
	flag.Float64Var(&flagCutBase, "cut-base", flagCutBase,
		"The minimum base contact weight for an edge to survive.")
	flag.IntVar(&flagMaxPerBase, "max-per-base", flagMaxPerBase,
		"Keep only the strongest N edges per base position (0 = all).")
	flag.IntVar(&flagAnchorAPos, "anchor-apos", flagAnchorAPos,
		"The match state whose strongest base contact anchors the "+
			"motif frame.")
	flag.IntVar(&flagAnchorBCol, "anchor-bcol", flagAnchorBCol,
		"The motif column the anchor contact lands on.")
	util.FlagUse("width", "offset", "out-dir")
	util.FlagParse("contact-weights edge-weights", "")
	util.AssertNArg(2)
}

func main() {
	cw := util.ContactWeightsRead(util.Arg(0))
	ew := util.EdgeWeightsRead(util.Arg(1))

	corePos := cw.SelectCorePos(flagCutBB, flagCutBase)
	if len(corePos) == 0 {
		util.Fatalf("No match state passes the contact weight cuts.")
	}

	cm, err := dataset.BuildContactMap(
		ew, corePos, util.FlagWidth, flagCutBB, flagCutBase,
		flagMaxPerBase, flagAnchorAPos, flagAnchorBCol, util.FlagOffset)
	util.Assert(err, "Could not build contact map")

	f := util.CreateFile(util.OutPath("contactMap.txt"))
	defer f.Close()
	util.Assert(dataset.WriteContactMap(f, cm),
		"Could not write 'contactMap.txt'")
}
