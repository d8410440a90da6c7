package pwm

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ReadTable reads a PWM table in the long format used throughout the
// pipeline: a header line followed by one "name\tbpos\tbase\tprob" row
// per matrix entry. Rows for a matrix must appear with non-decreasing
// bpos starting at 0.
func ReadTable(r io.Reader) (map[string]PWM, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, fmt.Errorf("pwm table: missing header")
	}

	pwms := make(map[string]PWM)
	lineno := 1
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return nil, fmt.Errorf(
				"pwm table line %d: expected 4 fields, got %d",
				lineno, len(fields))
		}
		name := fields[0]
		bpos, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("pwm table line %d: bad bpos: %s",
				lineno, err)
		}
		if len(fields[2]) != 1 || BaseIndex(fields[2][0]) < 0 {
			return nil, fmt.Errorf("pwm table line %d: bad base %q",
				lineno, fields[2])
		}
		bi := BaseIndex(fields[2][0])
		prob, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("pwm table line %d: bad prob: %s",
				lineno, err)
		}

		p, ok := pwms[name]
		if !ok {
			p = PWM{Name: name}
		}
		if bpos == len(p.Cols) {
			p.Cols = append(p.Cols, Column{})
		}
		if bpos >= len(p.Cols) {
			return nil, fmt.Errorf(
				"pwm table line %d: column %d of %s out of order",
				lineno, bpos, name)
		}
		p.Cols[bpos][bi] = prob
		pwms[name] = p
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pwms, nil
}

// WriteTable writes PWMs in the long table format read by ReadTable.
// Matrices are written in sorted name order so output is reproducible.
func WriteTable(w io.Writer, pwms map[string]PWM) error {
	buf := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(buf, "prot\tbpos\tbase\tprob"); err != nil {
		return err
	}
	names := make([]string, 0, len(pwms))
	for name := range pwms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for i, col := range pwms[name].Cols {
			for b := 0; b < NumBases; b++ {
				_, err := fmt.Fprintf(buf, "%s\t%d\t%c\t%e\n",
					name, i, Bases[b], col[b])
				if err != nil {
					return err
				}
			}
		}
	}
	return buf.Flush()
}
