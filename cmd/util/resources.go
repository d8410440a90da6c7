package util

import (
	"os"
	"path/filepath"

	"github.com/MHunt-tools/rCLAMPS/align"
	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/pwm"
)

// FastaRead loads a protein fasta file of match-state sequences.
func FastaRead(path string) map[string]string {
	f := OpenFile(path)
	defer f.Close()

	seqs, err := dataset.ReadFasta(f)
	Assert(err, "Could not read protein fasta '%s'", path)
	return seqs
}

// PWMRead loads a PWM table in the long tab format.
func PWMRead(path string) map[string]pwm.PWM {
	f := OpenFile(path)
	defer f.Close()

	pwms, err := pwm.ReadTable(f)
	Assert(err, "Could not read PWM table '%s'", path)
	return pwms
}

// SeedsRead loads a structural seed-alignment table.
func SeedsRead(path string) map[string]align.State {
	f := OpenFile(path)
	defer f.Close()

	seeds, err := align.ReadSeeds(f)
	Assert(err, "Could not read seed alignments '%s'", path)
	return seeds
}

// NamesRead loads a one-name-per-line record list (a test split).
func NamesRead(path string) []string {
	f := OpenFile(path)
	defer f.Close()

	names, err := dataset.ReadNames(f)
	Assert(err, "Could not read name list '%s'", path)
	return names
}

// ContactMapRead loads a precomputed contact map table.
func ContactMapRead(path string, width, offset int) dataset.ContactMap {
	f := OpenFile(path)
	defer f.Close()

	cm, err := dataset.ReadContactMap(f, width, offset)
	Assert(err, "Could not read contact map '%s'", path)
	return cm
}

// ContactWeightsRead loads a per-position structural contact table.
func ContactWeightsRead(path string) dataset.ContactWeights {
	f := OpenFile(path)
	defer f.Close()

	cw, err := dataset.ReadContactWeights(f)
	Assert(err, "Could not read contact weights '%s'", path)
	return cw
}

// EdgeWeightsRead loads a pairwise structural contact table.
func EdgeWeightsRead(path string) dataset.EdgeWeights {
	f := OpenFile(path)
	defer f.Close()

	ew, err := dataset.ReadEdgeWeights(f)
	Assert(err, "Could not read edge weights '%s'", path)
	return ew
}

func OpenFile(path string) *os.File {
	f, err := os.Open(path)
	Assert(err, "Could not open file '%s'", path)
	return f
}

func CreateFile(path string) *os.File {
	f, err := os.Create(path)
	Assert(err, "Could not create file '%s'", path)
	return f
}

// OutPath joins the output directory flag with a file name, creating
// the directory on first use.
func OutPath(name string) string {
	Assert(os.MkdirAll(FlagOutDir, 0755),
		"Could not create output directory '%s'", FlagOutDir)
	return filepath.Join(FlagOutDir, name)
}
