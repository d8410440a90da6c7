package util

import (
	"github.com/MHunt-tools/rCLAMPS/dataset"
)

// LoadDataset reads the protein and PWM tables, applies the PWM
// preprocessing flags, derives core tuples from the contact map, and
// builds the grouped training dataset. An empty cmapPath selects the
// canonical fully connected homeodomain map.
func LoadDataset(
	protPath, pwmPath, cmapPath string,
) (*dataset.Dataset, dataset.ContactMap) {
	seqs := FastaRead(protPath)
	pwms := PWMRead(pwmPath)

	for name, p := range pwms {
		if FlagRescale {
			p.Rescale(50)
		}
		p.Normalize(FlagPseudo)
		pwms[name] = p
	}

	var cm dataset.ContactMap
	if len(cmapPath) > 0 {
		cm = ContactMapRead(cmapPath, FlagWidth, FlagOffset)
	} else {
		if FlagDomain != dataset.Homeodomain {
			Fatalf("A contact map is required for domain type %s.",
				FlagDomain)
		}
		cm = dataset.DefaultHomeobox(FlagWidth)
	}

	records := dataset.ExtractCores(
		seqs, pwms, FlagDomain, FlagUnitLen, cm.CorePos, cm.Offset)
	ds, err := dataset.New(records, FlagWidth, FlagGroup)
	Assert(err, "Could not build dataset")

	if len(FlagTestFile) > 0 {
		ds, err = ds.Exclude(NamesRead(FlagTestFile), FlagGroup)
		Assert(err, "Could not exclude test records")
	}
	return ds, cm
}
