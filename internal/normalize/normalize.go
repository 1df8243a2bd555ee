// Package normalize collapses the upstream's endpoint-specific JSON shapes
// into canonical quote and series records. Any required field that is
// missing, empty or unparseable raises an Error so callers can distinguish
// usable data from "must fall back" -- nothing silently defaults to zero.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Error reports a payload that did not contain the required fields, or whose
// required fields did not parse as finite numbers.
type Error struct {
	Family string
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("normalization failed (%s): field %q %s", e.Family, e.Field, e.Reason)
}

func errMissing(family, field string) *Error {
	return &Error{Family: family, Field: field, Reason: "is missing or empty"}
}

// notAvailable markers the upstream uses instead of omitting a field.
func notAvailable(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "-", ".", "None", "none", "N/A", "n/a":
		return true
	}
	return false
}

// parseFloat parses a required numeric field, rejecting NA markers and
// non-finite values.
func parseFloat(family, field, s string) (float64, error) {
	if notAvailable(s) {
		return 0, errMissing(family, field)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &Error{Family: family, Field: field, Reason: fmt.Sprintf("did not parse: %v", err)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Error{Family: family, Field: field, Reason: "is not finite"}
	}
	return v, nil
}

// parsePercent parses a percent field like "1.69%".
func parsePercent(family, field, s string) (float64, error) {
	return parseFloat(family, field, strings.TrimSuffix(strings.TrimSpace(s), "%"))
}
