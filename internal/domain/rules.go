package domain

import "regexp"

// Rules holds the patterns and lookup tables the shaper applies. Build one
// with DefaultRules and pass it to NewShaper; the shaper never modifies it.
type Rules struct {
	// ProblemChars matches tag keys that cannot be used as a field name.
	ProblemChars *regexp.Regexp
	// LowerColon matches lowercase keys with exactly one colon, e.g. "addr:street".
	LowerColon *regexp.Regexp
	// StreetDetail matches address keys with a second colon, e.g. "addr:street:name".
	StreetDetail *regexp.Regexp
	// Postcode matches a valid postcode after spaces are stripped.
	Postcode *regexp.Regexp

	AddressPrefix string
	// Created lists the provenance attributes grouped under "created".
	Created []string

	// AmenityRemap maps lower-cased amenity values to their canonical form.
	AmenityRemap map[string]string
	// GovernmentAbbr lists spellings replaced by "Government" in names.
	// They are matched literally and case-insensitively, in order.
	GovernmentAbbr []string
}

// DefaultRules returns the rule set used for OSM extracts.
func DefaultRules() Rules {
	return Rules{
		ProblemChars:  regexp.MustCompile(`[=+/&<>;'"?%#$@,.\s]`),
		LowerColon:    regexp.MustCompile(`^[a-z_]*:[a-z_]*$`),
		StreetDetail:  regexp.MustCompile(`^addr:[^:]*:`),
		Postcode:      regexp.MustCompile(`^[0-9]{6}$`),
		AddressPrefix: "addr:",
		Created:       []string{"version", "changeset", "timestamp", "user", "uid"},
		AmenityRemap: map[string]string{
			"clinic": "doctors",
			"pub":    "bar",
		},
		GovernmentAbbr: []string{"Govt.", "Govt", "Govr"},
	}
}
