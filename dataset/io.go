package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadFasta reads a protein fasta file into a name → sequence map.
// Sequences may span multiple lines; residues are uppercased. Headers
// are truncated at the first whitespace.
func ReadFasta(r io.Reader) (map[string]string, error) {
	seqs := make(map[string]string)
	scanner := bufio.NewScanner(r)

	var name string
	var seq strings.Builder
	flush := func() {
		if len(name) > 0 {
			seqs[name] = seq.String()
		}
		seq.Reset()
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			flush()
			parts := strings.Fields(line[1:])
			if len(parts) == 0 {
				return nil, fmt.Errorf("fasta: header with no name")
			}
			name = parts[0]
			continue
		}
		if len(name) == 0 {
			return nil, fmt.Errorf("fasta: sequence data before header")
		}
		seq.WriteString(strings.ToUpper(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	if len(seqs) == 0 {
		return nil, fmt.Errorf("fasta: no sequences found")
	}
	return seqs, nil
}

// ReadNames reads a one-name-per-line list, such as a reserved test
// split. Blank lines are skipped.
func ReadNames(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if len(name) > 0 {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
