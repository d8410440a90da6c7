// Package dataset loads and represents the paired protein-domain and
// PWM records that the recognition-code sampler trains on. Records are
// immutable once loaded; all mutable inference state lives elsewhere.
package dataset

import (
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/MHunt-tools/rCLAMPS/pwm"
)

// DomainType tags the protein family a record belongs to.
type DomainType int

const (
	Homeodomain DomainType = iota
	ZFC2H2
)

func (d DomainType) String() string {
	switch d {
	case Homeodomain:
		return "homeodomain"
	case ZFC2H2:
		return "zf-C2H2"
	}
	return fmt.Sprintf("DomainType(%d)", int(d))
}

// ParseDomainType converts a configuration string to a DomainType.
func ParseDomainType(s string) (DomainType, error) {
	switch s {
	case "homeodomain":
		return Homeodomain, nil
	case "zf-C2H2":
		return ZFC2H2, nil
	}
	return 0, fmt.Errorf("unknown domain type %q", s)
}

// A Record pairs one DNA-binding domain (or tandem array of domains)
// with its measured PWM. Seq holds the concatenated match-state
// residues, one unit per finger; Fingers holds the core residue tuple
// of each unit; Core is the concatenation of Fingers and doubles as
// the grouping key.
type Record struct {
	Name    string
	Seq     string
	Type    DomainType
	Fingers []string
	Core    string
	PWM     pwm.PWM
}

// NumFingers returns the number of tandem units in the record. It is 1
// for homeodomains.
func (r Record) NumFingers() int {
	return len(r.Fingers)
}

// A Group collects the records sharing an identical core residue
// tuple, so they share statistical strength and are resampled as a
// block.
type Group struct {
	Core    string
	Members []string
}

// GroupMode selects how records are assigned to observation groups.
type GroupMode int

const (
	// GroupByCore puts records with identical core tuples in one group.
	GroupByCore GroupMode = iota
	// GroupNone gives every record its own group.
	GroupNone
)

// ParseGroupMode converts a configuration string to a GroupMode.
func ParseGroupMode(s string) (GroupMode, error) {
	switch s {
	case "core":
		return GroupByCore, nil
	case "none":
		return GroupNone, nil
	}
	return 0, fmt.Errorf("unknown grouping mode %q", s)
}

// A Dataset is the full training collection: records ordered so that
// members of a group are contiguous, plus the group list itself.
// Datasets are read-only after construction and safe to share across
// chains.
type Dataset struct {
	Records []Record
	Groups  []Group

	byName map[string]int
}

// New builds a Dataset from loaded records, dropping any record that
// cannot be encoded: a core containing a residue outside the standard
// alphabet, a PWM shorter than the motif width, or an empty PWM.
// Dropped records are logged. An empty result is an error, since no
// model can be fit from zero records.
func New(records []Record, width int, mode GroupMode) (*Dataset, error) {
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if reason := unusable(r, width); reason != "" {
			log.WithFields(log.Fields{
				"record": r.Name,
				"reason": reason,
			}).Warn("excluding record")
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf(
			"no usable records remain (motif width %d)", width)
	}

	ds := &Dataset{Groups: assignGroups(kept, mode)}
	for _, g := range ds.Groups {
		for _, name := range g.Members {
			for _, r := range kept {
				if r.Name == name {
					ds.Records = append(ds.Records, r)
					break
				}
			}
		}
	}
	ds.byName = make(map[string]int, len(ds.Records))
	for i, r := range ds.Records {
		ds.byName[r.Name] = i
	}
	return ds, nil
}

func unusable(r Record, width int) string {
	if len(r.Core) == 0 {
		return "empty core"
	}
	for i := 0; i < len(r.Core); i++ {
		if pwm.AminoIndex(r.Core[i]) < 0 {
			return fmt.Sprintf("core residue %q not encodable", r.Core[i])
		}
	}
	if span := width * r.NumFingers(); r.PWM.Len() < span {
		return fmt.Sprintf("pwm has %d columns, aligned span needs %d",
			r.PWM.Len(), span)
	}
	return ""
}

func assignGroups(records []Record, mode GroupMode) []Group {
	if mode == GroupNone {
		groups := make([]Group, len(records))
		for i, r := range records {
			groups[i] = Group{Core: r.Core, Members: []string{r.Name}}
		}
		return groups
	}

	byCore := make(map[string][]string)
	for _, r := range records {
		byCore[r.Core] = append(byCore[r.Core], r.Name)
	}
	cores := make([]string, 0, len(byCore))
	for core := range byCore {
		cores = append(cores, core)
	}
	sort.Strings(cores)

	groups := make([]Group, len(cores))
	for i, core := range cores {
		sort.Strings(byCore[core])
		groups[i] = Group{Core: core, Members: byCore[core]}
	}
	return groups
}

// Record returns the record with the given name.
func (ds *Dataset) Record(name string) (Record, bool) {
	i, ok := ds.byName[name]
	if !ok {
		return Record{}, false
	}
	return ds.Records[i], true
}

// Len returns the number of records in the dataset.
func (ds *Dataset) Len() int {
	return len(ds.Records)
}

// Without returns a new Dataset with every member of the named group
// removed, for holdout evaluation. The returned dataset shares record
// values with the receiver but no mutable state.
func (ds *Dataset) Without(core string) (*Dataset, error) {
	kept := make([]Record, 0, len(ds.Records))
	for _, r := range ds.Records {
		if r.Core != core {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("removing group %q leaves no records", core)
	}

	out := &Dataset{
		Records: kept,
		byName:  make(map[string]int, len(kept)),
	}
	for _, g := range ds.Groups {
		if g.Core != core {
			out.Groups = append(out.Groups, g)
		}
	}
	for i, r := range kept {
		out.byName[r.Name] = i
	}
	return out, nil
}

// Exclude removes the named records (a test split) from the record
// set, returning the filtered dataset. Groups are rebuilt.
func (ds *Dataset) Exclude(names []string, mode GroupMode) (*Dataset, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := make([]Record, 0, len(ds.Records))
	for _, r := range ds.Records {
		if drop[r.Name] {
			log.WithField("record", r.Name).Info("excluding test record")
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("test exclusion leaves no records")
	}
	// Width pruning already happened; re-grouping is all that is left.
	out := &Dataset{Groups: assignGroups(kept, mode)}
	for _, g := range out.Groups {
		for _, name := range g.Members {
			for _, r := range kept {
				if r.Name == name {
					out.Records = append(out.Records, r)
					break
				}
			}
		}
	}
	out.byName = make(map[string]int, len(out.Records))
	for i, r := range out.Records {
		out.byName[r.Name] = i
	}
	return out, nil
}

// ExtractCores derives per-record core tuples from full match-state
// sequences. Each record's sequence must be a whole number of units of
// unitLen residues; corePos lists the match-state numbers to keep and
// offset converts them to sequence indices. Records whose sequence
// cannot be divided into units are dropped with a warning.
func ExtractCores(
	seqs map[string]string,
	pwms map[string]pwm.PWM,
	typ DomainType,
	unitLen int,
	corePos []int,
	offset int,
) []Record {
	names := make([]string, 0, len(seqs))
	for name := range seqs {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]Record, 0, len(seqs))
	for _, name := range names {
		seq := seqs[name]
		p, ok := pwms[name]
		if !ok {
			log.WithField("record", name).Warn("no pwm for sequence")
			continue
		}
		if unitLen <= 0 || len(seq)%unitLen != 0 {
			log.WithFields(log.Fields{
				"record": name,
				"len":    len(seq),
				"unit":   unitLen,
			}).Warn("sequence length is not a whole number of units")
			continue
		}
		nUnits := len(seq) / unitLen
		fingers := make([]string, 0, nUnits)
		ok = true
		for u := 0; u < nUnits && ok; u++ {
			var b strings.Builder
			for _, mpos := range corePos {
				i := u*unitLen + mpos - offset
				if i < u*unitLen || i >= (u+1)*unitLen {
					ok = false
					break
				}
				b.WriteByte(seq[i])
			}
			if ok {
				fingers = append(fingers, b.String())
			}
		}
		if !ok {
			log.WithField("record", name).Warn(
				"core position outside match-state sequence")
			continue
		}
		records = append(records, Record{
			Name:    name,
			Seq:     seq,
			Type:    typ,
			Fingers: fingers,
			Core:    strings.Join(fingers, ""),
			PWM:     p,
		})
	}
	return records
}
