package validation

import "testing"

func TestValidAcademicID(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"ics21045", true},
		{"ee2104", true},
		{"math20240001", true},
		{"21045", false},
		{"ICS21045", false},
		{"ics", false},
		{"i21045", false},
		{"icsde21045", false},
		{"ics21045x", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidAcademicID(tc.value); got != tc.want {
			t.Errorf("ValidAcademicID(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
