package record

import "testing"

func TestValidSequence(t *testing.T) {
	for _, v := range []struct {
		seq   string
		valid bool
	}{
		{"AAAA", true},
		{"CASSRTGSLADEQYF", true},
		{"AA.A", false},
		{"CASS*EQYF", false},
		{"CASS_EQYF", false},
		{"cassf", false},
		{"", false},
		{"CASSXEQYF", false},
		{"CASSBEQYF", false},
	} {
		if got := ValidSequence(v.seq); got != v.valid {
			t.Errorf("ValidSequence(%q) = %v, expected %v", v.seq, got, v.valid)
		}
	}
}

func TestValidCDR3Motif(t *testing.T) {
	for _, v := range []struct {
		seq   string
		valid bool
	}{
		{"CASSRTGSLADEQYF", true},
		{"CF", true},
		{"C", false},
		{"ASSRTGSLADEQYF", false},
		{"CASSRTGSLADEQYW", false},
	} {
		if got := ValidCDR3Motif(v.seq); got != v.valid {
			t.Errorf("ValidCDR3Motif(%q) = %v, expected %v", v.seq, got, v.valid)
		}
	}
}
