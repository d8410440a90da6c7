package dataset

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// A ContactMap describes the model topology for one domain family:
// which match-state positions are core (DNA-contacting) and, per base
// position of the motif, which core positions have a dependency edge
// to it. Edges index into CorePos. Offset converts match-state numbers
// to indices into the match-state sequence.
type ContactMap struct {
	CorePos []int
	Offset  int
	Edges   [][]int
}

// Width returns the motif width the map was built for.
func (cm ContactMap) Width() int {
	return len(cm.Edges)
}

// Homeodomain canonical numbering constants. Match states 2-55 of the
// Pfam Homeobox model; offset 2 maps them onto the extracted
// match-state sequence.
const HomeoboxOffset = 2

// HomeoboxCorePos lists the canonical DNA-contacting match states of
// the homeodomain recognition helix and N-terminal arm.
var HomeoboxCorePos = []int{2, 3, 5, 6, 47, 50, 51, 54, 55}

// DefaultHomeobox returns a fully connected contact map for
// homeodomains: every canonical core position may contact every base
// position of a width-wide motif.
func DefaultHomeobox(width int) ContactMap {
	cm := ContactMap{
		CorePos: append([]int(nil), HomeoboxCorePos...),
		Offset:  HomeoboxOffset,
		Edges:   make([][]int, width),
	}
	for b := 0; b < width; b++ {
		cm.Edges[b] = make([]int, len(cm.CorePos))
		for i := range cm.CorePos {
			cm.Edges[b][i] = i
		}
	}
	return cm
}

// ReadContactMap reads a precomputed contact map table: a header line
// followed by "bpos\tapos" rows, bpos in [0, width). Core positions
// are the sorted union of all apos values seen.
func ReadContactMap(r io.Reader, width, offset int) (ContactMap, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return ContactMap{}, fmt.Errorf("contact map: missing header")
	}

	edgesByState := make([][]int, width)
	seen := make(map[int]bool)
	lineno := 1
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return ContactMap{}, fmt.Errorf(
				"contact map line %d: expected 2 fields, got %d",
				lineno, len(fields))
		}
		bpos, err := strconv.Atoi(fields[0])
		if err != nil {
			return ContactMap{}, fmt.Errorf(
				"contact map line %d: bad bpos: %s", lineno, err)
		}
		apos, err := strconv.Atoi(fields[1])
		if err != nil {
			return ContactMap{}, fmt.Errorf(
				"contact map line %d: bad apos: %s", lineno, err)
		}
		if bpos < 0 || bpos >= width {
			return ContactMap{}, fmt.Errorf(
				"contact map line %d: bpos %d outside motif width %d",
				lineno, bpos, width)
		}
		edgesByState[bpos] = append(edgesByState[bpos], apos)
		seen[apos] = true
	}
	if err := scanner.Err(); err != nil {
		return ContactMap{}, err
	}

	corePos := make([]int, 0, len(seen))
	for apos := range seen {
		corePos = append(corePos, apos)
	}
	sort.Ints(corePos)
	index := make(map[int]int, len(corePos))
	for i, apos := range corePos {
		index[apos] = i
	}

	cm := ContactMap{CorePos: corePos, Offset: offset,
		Edges: make([][]int, width)}
	for b, states := range edgesByState {
		sort.Ints(states)
		for _, apos := range states {
			cm.Edges[b] = append(cm.Edges[b], index[apos])
		}
	}
	return cm, nil
}

// WriteContactMap writes a contact map in the table format
// ReadContactMap accepts, one "bpos\tapos" row per edge.
func WriteContactMap(w io.Writer, cm ContactMap) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "bpos\tapos"); err != nil {
		return err
	}
	for bpos, edges := range cm.Edges {
		for _, e := range edges {
			_, err := fmt.Fprintf(bw, "%d\t%d\n", bpos, cm.CorePos[e])
			if err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ContactWeights holds, per match-state position, the weighted
// fraction of solved structures in which that position contacts a base
// or the DNA backbone.
type ContactWeights struct {
	Base     map[int]float64
	Backbone map[int]float64
}

// ReadContactWeights reads the per-position structural contact table:
// a header line followed by "apos\tcType\tweight" rows, cType one of
// "base" or "backbone".
func ReadContactWeights(r io.Reader) (ContactWeights, error) {
	cw := ContactWeights{
		Base:     make(map[int]float64),
		Backbone: make(map[int]float64),
	}
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return cw, fmt.Errorf("contact weights: missing header")
	}
	lineno := 1
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return cw, fmt.Errorf(
				"contact weights line %d: expected 3 fields, got %d",
				lineno, len(fields))
		}
		apos, err := strconv.Atoi(fields[0])
		if err != nil {
			return cw, fmt.Errorf(
				"contact weights line %d: bad apos: %s", lineno, err)
		}
		w, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return cw, fmt.Errorf(
				"contact weights line %d: bad weight: %s", lineno, err)
		}
		switch fields[1] {
		case "base":
			cw.Base[apos] = w
		case "backbone":
			cw.Backbone[apos] = w
		default:
			return cw, fmt.Errorf(
				"contact weights line %d: unknown contact type %q",
				lineno, fields[1])
		}
	}
	return cw, scanner.Err()
}

// SelectCorePos applies the amino-acid-position cut: a match state is
// core if its backbone contact weight reaches cutBB or its base
// contact weight reaches cutBase.
func (cw ContactWeights) SelectCorePos(cutBB, cutBase float64) []int {
	seen := make(map[int]bool)
	for apos, w := range cw.Backbone {
		if w >= cutBB {
			seen[apos] = true
		}
	}
	for apos, w := range cw.Base {
		if w >= cutBase {
			seen[apos] = true
		}
	}
	corePos := make([]int, 0, len(seen))
	for apos := range seen {
		corePos = append(corePos, apos)
	}
	sort.Ints(corePos)
	return corePos
}

// EdgeWeights holds, per (match-state, base-position) pair, the
// weighted fraction of structures showing that contact.
type EdgeWeights struct {
	Base     map[int]map[int]float64
	Backbone map[int]map[int]float64
	BPos     []int
}

// ReadEdgeWeights reads the pairwise structural contact table: a
// header line followed by "apos\tbpos\tweight\t...\tcType" rows where
// cType is the last field.
func ReadEdgeWeights(r io.Reader) (EdgeWeights, error) {
	ew := EdgeWeights{
		Base:     make(map[int]map[int]float64),
		Backbone: make(map[int]map[int]float64),
	}
	bseen := make(map[int]bool)
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return ew, fmt.Errorf("edge weights: missing header")
	}
	lineno := 1
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return ew, fmt.Errorf(
				"edge weights line %d: expected at least 4 fields, got %d",
				lineno, len(fields))
		}
		apos, err := strconv.Atoi(fields[0])
		if err != nil {
			return ew, fmt.Errorf(
				"edge weights line %d: bad apos: %s", lineno, err)
		}
		bpos, err := strconv.Atoi(fields[1])
		if err != nil {
			return ew, fmt.Errorf(
				"edge weights line %d: bad bpos: %s", lineno, err)
		}
		w, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return ew, fmt.Errorf(
				"edge weights line %d: bad weight: %s", lineno, err)
		}
		var m map[int]map[int]float64
		switch fields[len(fields)-1] {
		case "base":
			m = ew.Base
		case "backbone":
			m = ew.Backbone
		default:
			return ew, fmt.Errorf(
				"edge weights line %d: unknown contact type %q",
				lineno, fields[len(fields)-1])
		}
		if m[apos] == nil {
			m[apos] = make(map[int]float64)
		}
		m[apos][bpos] = w
		bseen[bpos] = true
	}
	if err := scanner.Err(); err != nil {
		return ew, err
	}
	for bpos := range bseen {
		ew.BPos = append(ew.BPos, bpos)
	}
	sort.Ints(ew.BPos)
	return ew, nil
}

// BuildContactMap applies the edge cut to weighted structural contacts
// to produce a pruned contact map of the given width. The motif frame
// is anchored so that anchorAPos's strongest base contact lands on
// motif column anchorBCol (for homeodomains, the invariant N51→A
// contact at column (width-6)/2+2). Core positions left with no edges
// are dropped. maxPerBase < 1 means unlimited; otherwise each base
// position keeps only its strongest maxPerBase edges.
func BuildContactMap(
	ew EdgeWeights,
	corePos []int,
	width int,
	cutBB, cutBase float64,
	maxPerBase int,
	anchorAPos, anchorBCol int,
	offset int,
) (ContactMap, error) {
	anchor, ok := ew.Base[anchorAPos]
	if !ok {
		return ContactMap{}, fmt.Errorf(
			"edge weights have no base contacts for anchor position %d",
			anchorAPos)
	}
	best, bestW := 0, -1.0
	for _, bpos := range ew.BPos {
		if w := anchor[bpos]; w > bestW {
			best, bestW = bpos, w
		}
	}
	mStart := best - anchorBCol

	type edge struct {
		apos int
		w    float64
	}
	byBase := make([][]edge, width)
	for _, apos := range corePos {
		for bpos := 0; bpos < width; bpos++ {
			j := bpos + mStart
			bbWt := ew.Backbone[apos][j]
			baseWt := ew.Base[apos][j]
			if bbWt >= cutBB || baseWt >= cutBase {
				byBase[bpos] = append(byBase[bpos], edge{apos, baseWt})
			}
		}
	}

	if maxPerBase >= 1 {
		for bpos := range byBase {
			sort.Slice(byBase[bpos], func(i, j int) bool {
				if byBase[bpos][i].w != byBase[bpos][j].w {
					return byBase[bpos][i].w > byBase[bpos][j].w
				}
				return byBase[bpos][i].apos < byBase[bpos][j].apos
			})
			if len(byBase[bpos]) > maxPerBase {
				byBase[bpos] = byBase[bpos][:maxPerBase]
			}
		}
	}

	// Keep only match states that retained at least one edge.
	seen := make(map[int]bool)
	for _, edges := range byBase {
		for _, e := range edges {
			seen[e.apos] = true
		}
	}
	if len(seen) == 0 {
		return ContactMap{}, fmt.Errorf(
			"edge cut (%.3f backbone, %.3f base) prunes every edge",
			cutBB, cutBase)
	}
	keptPos := make([]int, 0, len(seen))
	for apos := range seen {
		keptPos = append(keptPos, apos)
	}
	sort.Ints(keptPos)
	index := make(map[int]int, len(keptPos))
	for i, apos := range keptPos {
		index[apos] = i
	}

	cm := ContactMap{CorePos: keptPos, Offset: offset,
		Edges: make([][]int, width)}
	for bpos, edges := range byBase {
		idx := make([]int, 0, len(edges))
		for _, e := range edges {
			idx = append(idx, index[e.apos])
		}
		sort.Ints(idx)
		cm.Edges[bpos] = idx
	}
	return cm, nil
}
