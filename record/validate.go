package record

// aminoAcids is the canonical 20-letter alphabet.
var aminoAcids = [256]bool{
	'A': true, 'C': true, 'D': true, 'E': true, 'F': true,
	'G': true, 'H': true, 'I': true, 'K': true, 'L': true,
	'M': true, 'N': true, 'P': true, 'Q': true, 'R': true,
	'S': true, 'T': true, 'V': true, 'W': true, 'Y': true,
}

// ValidSequence reports whether s is a non-empty string made only of the 20
// canonical amino-acid letters. Stop codons (*), frameshift markers (_, ~)
// and lower case are all rejected.
func ValidSequence(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !aminoAcids[s[i]] {
			return false
		}
	}

	return true
}

// ValidCDR3Motif reports whether s starts with the conserved cysteine and
// ends with the conserved phenylalanine. This is stricter than ValidSequence
// and is only applied by layouts that ask for it.
func ValidCDR3Motif(s string) bool {
	return len(s) >= 2 && s[0] == 'C' && s[len(s)-1] == 'F'
}
