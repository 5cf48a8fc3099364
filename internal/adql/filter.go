package adql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

// Filter applies the criteria to a result table client-side, using the
// same value semantics as Translate: ranges, negation, wildcards, and
// membership lists. Numeric-looking values compare numerically, so a
// range like "300..600" matches the cell "450.0".
func Filter(t *entity.Table, c Criteria) (*entity.Table, error) {
	if t == nil {
		return nil, domain.NewInvalidQueryError("no table to filter")
	}
	if len(c) == 0 {
		return t, nil
	}

	type columnMatch struct {
		index int
		match func(cell string) bool
	}
	matchers := make([]columnMatch, 0, len(c))
	for column, value := range c {
		idx := t.ColumnIndex(column)
		if idx < 0 {
			return nil, domain.NewInvalidQueryError("unknown column: " + column)
		}
		m, err := columnMatcher(column, value)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, columnMatch{index: idx, match: m})
	}

	return t.Where(func(row []string) bool {
		for _, cm := range matchers {
			if cm.index >= len(row) || !cm.match(row[cm.index]) {
				return false
			}
		}
		return true
	}), nil
}

// columnMatcher builds the predicate for one column: positive values
// OR-join, negated values AND-join, mirroring translateColumn.
func columnMatcher(column string, value any) (func(string) bool, error) {
	values, err := flatten(column, value)
	if err != nil {
		return nil, err
	}

	var positive, negative []func(string) bool
	for _, raw := range values {
		m, negated, err := valueMatcher(column, raw)
		if err != nil {
			return nil, err
		}
		if negated {
			negative = append(negative, m)
		} else {
			positive = append(positive, m)
		}
	}

	return func(cell string) bool {
		if len(positive) > 0 {
			hit := false
			for _, m := range positive {
				if m(cell) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
		}
		for _, m := range negative {
			if m(cell) {
				return false
			}
		}
		return true
	}, nil
}

// valueMatcher builds the predicate for one scalar value. The returned
// predicate is the positive form; negated reports whether the caller
// must invert it.
func valueMatcher(column string, raw string) (match func(string) bool, negated bool, err error) {
	if strings.HasPrefix(raw, "!") {
		negated = true
		raw = raw[1:]
	}
	if raw == "" {
		return nil, false, domain.NewInvalidQueryError(
			fmt.Sprintf("empty criteria value for column %q", column))
	}

	if lo, hi, ok := splitRange(raw); ok {
		if lo == "" || hi == "" {
			return nil, false, domain.NewInvalidQueryError(
				fmt.Sprintf("malformed range %q for column %q, want lo..hi", raw, column))
		}
		if isNumericLiteral(lo) && isNumericLiteral(hi) {
			loN, _ := strconv.ParseFloat(lo, 64)
			hiN, _ := strconv.ParseFloat(hi, 64)
			return func(cell string) bool {
				n, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
				return err == nil && n >= loN && n <= hiN
			}, negated, nil
		}
		return func(cell string) bool {
			return cell >= lo && cell <= hi
		}, negated, nil
	}

	if strings.ContainsAny(raw, "*?") {
		re, err := wildcardRegexp(raw)
		if err != nil {
			return nil, false, domain.NewInternalError(err)
		}
		return re.MatchString, negated, nil
	}

	if isNumericLiteral(raw) {
		want, _ := strconv.ParseFloat(raw, 64)
		return func(cell string) bool {
			n, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			return err == nil && n == want
		}, negated, nil
	}

	return func(cell string) bool {
		return strings.EqualFold(cell, raw)
	}, negated, nil
}

// wildcardRegexp compiles a * / ? pattern into an anchored regexp
func wildcardRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
