package pwm

// NumBases is the size of the DNA alphabet.
const NumBases = 4

// Bases lists the DNA alphabet in the order used for all PWM columns
// and model outputs.
var Bases = [NumBases]byte{'A', 'C', 'G', 'T'}

// Amino lists the amino-acid alphabet in the order used for one-hot
// encoding of core residues.
const Amino = "ACDEFGHIKLMNPQRSTVWY"

// NumAminos is the size of the amino-acid alphabet.
const NumAminos = len(Amino)

// complement maps a base index to the index of its Watson-Crick
// complement.
var complement = [NumBases]int{3, 2, 1, 0}

// BaseIndex returns the column index of a DNA base, or -1 if b is not
// one of ACGT.
func BaseIndex(b byte) int {
	switch b {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	}
	return -1
}

// AminoIndex returns the one-hot index of an amino acid, or -1 if r is
// not one of the twenty standard residues.
func AminoIndex(r byte) int {
	for i := 0; i < NumAminos; i++ {
		if Amino[i] == r {
			return i
		}
	}
	return -1
}
