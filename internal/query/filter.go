package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilter is returned when a refinement filter expression cannot be parsed.
var ErrInvalidFilter = errors.New("invalid refinement filter")

const equalsOp = ":equals('"

// Equals formats the filter expression selecting value for facet: <facet>:equals('<value>').
// Single quotes in value are doubled.
func Equals(facet, value string) string {
	return facet + equalsOp + strings.ReplaceAll(value, "'", "''") + "')"
}

// ParseFilter reverses Equals.
func ParseFilter(expr string) (facet, value string, err error) {
	i := strings.Index(expr, equalsOp)
	if i <= 0 || !strings.HasSuffix(expr, "')") || len(expr) < i+len(equalsOp)+2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidFilter, expr)
	}
	facet = strings.TrimSpace(expr[:i])
	quoted := expr[i+len(equalsOp) : len(expr)-2]
	if strings.Count(quoted, "'")%2 != 0 {
		return "", "", fmt.Errorf("%w: unbalanced quote in %q", ErrInvalidFilter, expr)
	}
	return facet, strings.ReplaceAll(quoted, "''", "'"), nil
}
