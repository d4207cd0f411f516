// Package validation holds input patterns that go beyond struct binding tags.
package validation

import "regexp"

// AcademicIDPattern matches student registration numbers: a lowercase
// department prefix followed by the year-sequence digits, e.g. "ics21045".
const AcademicIDPattern = `^[a-z]{2,4}\d{4,8}$`

var academicIDRegexp = regexp.MustCompile(AcademicIDPattern)

// ValidAcademicID reports whether the value is a well-formed student
// registration number.
func ValidAcademicID(value string) bool {
	return academicIDRegexp.MatchString(value)
}
