package adql

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/astrolab/voquery/internal/domain"
)

// Criteria maps column names to filter values. A value may be:
//   - a plain value: equality (or LIKE when it contains * or ? wildcards)
//   - "lo..hi": an inclusive range, translated to BETWEEN
//   - "!value": negation; negated values for one column AND-join
//   - a list of values: membership; positive values for one column OR-join
//
// All per-column fragments are AND-joined into one WHERE clause.
type Criteria map[string]any

// Translate renders the criteria as an ADQL boolean expression without the
// leading WHERE keyword. Output is deterministic: columns are emitted in
// sorted order.
func (c Criteria) Translate() (string, error) {
	if len(c) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(c))
	for k := range c {
		if strings.TrimSpace(k) == "" {
			return "", domain.NewInvalidQueryError("criteria column name must not be empty")
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fragments := make([]string, 0, len(keys))
	for _, key := range keys {
		fragment, err := translateColumn(key, c[key])
		if err != nil {
			return "", err
		}
		fragments = append(fragments, fragment)
	}
	return strings.Join(fragments, " AND "), nil
}

// translateColumn renders the filter for one column
func translateColumn(column string, value any) (string, error) {
	values, err := flatten(column, value)
	if err != nil {
		return "", err
	}

	var positive, negative []string
	for _, v := range values {
		clause, negated, err := translateValue(column, v)
		if err != nil {
			return "", err
		}
		if negated {
			negative = append(negative, clause)
		} else {
			positive = append(positive, clause)
		}
	}

	var parts []string
	switch {
	case len(positive) == 1:
		parts = append(parts, positive[0])
	case len(positive) > 1:
		parts = append(parts, "("+strings.Join(positive, " OR ")+")")
	}
	parts = append(parts, negative...)

	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", nil
}

// translateValue renders one scalar filter value.
// Returns the clause and whether it was negated.
func translateValue(column string, raw string) (string, bool, error) {
	negated := false
	if strings.HasPrefix(raw, "!") {
		negated = true
		raw = raw[1:]
	}
	if raw == "" {
		return "", false, domain.NewInvalidQueryError(
			fmt.Sprintf("empty criteria value for column %q", column))
	}

	// Range: lo..hi, both endpoints required
	if lo, hi, ok := splitRange(raw); ok {
		if lo == "" || hi == "" {
			return "", false, domain.NewInvalidQueryError(
				fmt.Sprintf("malformed range %q for column %q, want lo..hi", raw, column))
		}
		op := "BETWEEN"
		if negated {
			op = "NOT BETWEEN"
		}
		return fmt.Sprintf("%s %s %s AND %s", column, op, literal(lo), literal(hi)), negated, nil
	}

	// Wildcards: * and ? map to LIKE % and _
	if strings.ContainsAny(raw, "*?") {
		pattern := strings.NewReplacer("*", "%", "?", "_").Replace(escapeQuotes(raw))
		op := "LIKE"
		if negated {
			op = "NOT LIKE"
		}
		return fmt.Sprintf("%s %s '%s'", column, op, pattern), negated, nil
	}

	op := "="
	if negated {
		op = "<>"
	}
	return fmt.Sprintf("%s %s %s", column, op, literal(raw)), negated, nil
}

// flatten normalizes the accepted value shapes to a string slice
func flatten(column string, value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		if len(v) == 0 {
			return nil, domain.NewInvalidQueryError(
				fmt.Sprintf("empty value list for column %q", column))
		}
		return v, nil
	case []any:
		if len(v) == 0 {
			return nil, domain.NewInvalidQueryError(
				fmt.Sprintf("empty value list for column %q", column))
		}
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = fmt.Sprintf("%v", item)
		}
		return out, nil
	case fmt.Stringer:
		return []string{v.String()}, nil
	case nil:
		return nil, domain.NewInvalidQueryError(
			fmt.Sprintf("nil criteria value for column %q", column))
	default:
		return []string{fmt.Sprintf("%v", v)}, nil
	}
}

// splitRange detects lo..hi syntax. A leading dot (".5") or a float value
// is not a range; only an infix ".." separates endpoints.
func splitRange(s string) (lo, hi string, ok bool) {
	idx := strings.Index(s, "..")
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+2:], true
}

// literal quotes the value unless it is a canonical numeric literal
func literal(s string) string {
	if isNumericLiteral(s) {
		return s
	}
	return "'" + escapeQuotes(s) + "'"
}

// isNumericLiteral reports whether s is a number in canonical form.
// Identifiers that merely parse as numbers, like "00123", keep their
// leading zeros only as char values, so they must stay quoted.
func isNumericLiteral(s string) bool {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return false
	}
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || digits[0] == '+' || digits[0] == '.' {
		return false
	}
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return false
	}
	return true
}

// escapeQuotes doubles single quotes per ADQL string literal rules
func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
