package align

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ReadSeeds reads a seed-alignment table of "name\tstart\trev" rows,
// as produced from structural alignments. Records listed here start
// from (and are pinned to) the given alignment instead of a random
// one.
func ReadSeeds(r io.Reader) (map[string]State, error) {
	seeds := make(map[string]State)
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf(
				"seed alignments line %d: expected 3 fields, got %d",
				lineno, len(fields))
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf(
				"seed alignments line %d: bad start: %s", lineno, err)
		}
		rev, err := strconv.Atoi(fields[2])
		if err != nil || (rev != 0 && rev != 1) {
			return nil, fmt.Errorf(
				"seed alignments line %d: rev must be 0 or 1", lineno)
		}
		seeds[fields[0]] = State{Start: start, Rev: rev == 1}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return seeds, nil
}

// WriteStates writes final alignments, one "name\tstart\trev" row per
// record in sorted name order. The format round-trips through
// ReadSeeds so a converged run can seed a later one.
func WriteStates(w io.Writer, states map[string]State) error {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := bufio.NewWriter(w)
	for _, name := range names {
		s := states[name]
		rev := 0
		if s.Rev {
			rev = 1
		}
		if _, err := fmt.Fprintf(buf, "%s\t%d\t%d\n",
			name, s.Start, rev); err != nil {
			return err
		}
	}
	return buf.Flush()
}
