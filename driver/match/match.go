// Package match implements the in-process predicate compiler used by
// the file and memory backends: it evaluates a predicate tree directly
// against a row. The comparison rules are written to return the same
// row sets as the SQL lowering in driver/sql, in particular the
// null/false coalescing on equality.
package match

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/strata-db/strata/driver"
	"github.com/strata-db/strata/query"
)

// Matches reports whether the given row satisfies the condition. A nil
// condition matches every row.
//
// Equality follows these rules, in order:
//   - a nil condition value matches rows where the field is nil or absent.
//   - a false condition value matches rows where the field is false,
//     nil or absent. This mirrors the SQL lowering of EQ false to
//     (col = false OR col IS NULL).
//   - numeric values compare numerically across integer and float
//     types, since JSON-backed rows surface numbers as float64.
//   - everything else compares by type: bool to bool, string to string,
//     structured values via reflect.DeepEqual.
//
// NEQ is the boolean negation of EQ. An OR with no children matches
// nothing; an AND with no children matches everything.
func Matches(q query.Q, row driver.Row) (bool, error) {
	switch x := q.(type) {
	case nil:
		return true, nil
	case *query.Eq:
		return eq(x.Value, row[x.Field.Field]), nil
	case *query.Neq:
		return !eq(x.Value, row[x.Field.Field]), nil
	case *query.In:
		return eq(x.Value, row[x.Field.Field]), nil
	case *query.Lt:
		return Compare(row[x.Field.Field], x.Value) < 0, nil
	case *query.Lte:
		return Compare(row[x.Field.Field], x.Value) <= 0, nil
	case *query.Gt:
		return Compare(row[x.Field.Field], x.Value) > 0, nil
	case *query.Gte:
		return Compare(row[x.Field.Field], x.Value) >= 0, nil
	case *query.And:
		for _, c := range x.Conditions {
			ok, err := Matches(c, row)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case *query.Or:
		for _, c := range x.Conditions {
			ok, err := Matches(c, row)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case query.Map:
		return Matches(x.Cond(), row)
	}
	return false, fmt.Errorf("%w: %T", driver.ErrUnknownPredicate, q)
}

func eq(condVal, rowVal interface{}) bool {
	if condVal != nil && reflect.TypeOf(condVal).Kind() == reflect.Slice {
		v := reflect.ValueOf(condVal)
		for ii := 0; ii < v.Len(); ii++ {
			if eq(v.Index(ii).Interface(), rowVal) {
				return true
			}
		}
		return false
	}
	if condVal == nil {
		return rowVal == nil
	}
	if b, ok := condVal.(bool); ok && !b {
		// false counts as null-equivalent.
		if rowVal == nil {
			return true
		}
	}
	if rowVal == nil {
		return false
	}
	if cf, ok := toFloat(condVal); ok {
		if rf, ok := toFloat(rowVal); ok {
			return cf == rf
		}
		return false
	}
	switch c := condVal.(type) {
	case bool:
		r, ok := rowVal.(bool)
		return ok && c == r
	case string:
		r, ok := rowVal.(string)
		return ok && c == r
	}
	return reflect.DeepEqual(condVal, rowVal)
}

// Compare defines a total order over stored values so that ordering
// comparisons and sorts behave deterministically even across mismatched
// types: nil < bool < number < string < everything else. Within a rank,
// false sorts before true, numbers compare as float64 and strings
// bytewise.
func Compare(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankBool:
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case rankNumber:
		av, _ := toFloat(a)
		bv, _ := toFloat(b)
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
		return 0
	case rankString:
		av, bv := a.(string), b.(string)
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
		return 0
	}
	return 0
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankOther
)

func rank(v interface{}) int {
	if v == nil {
		return rankNil
	}
	switch v.(type) {
	case bool:
		return rankBool
	case string:
		return rankString
	}
	if _, ok := toFloat(v); ok {
		return rankNumber
	}
	return rankOther
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// SortRows orders rows in place with a stable multi-key sort, first
// field highest priority.
func SortRows(rows []driver.Row, sorts []driver.Sort) {
	if len(sorts) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, s := range sorts {
			c := Compare(rows[i][s.Field], rows[j][s.Field])
			if c == 0 {
				continue
			}
			if s.Direction == driver.DESC {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Slice applies offset and limit to an already filtered and sorted row
// set. Negative values mean unset.
func Slice(rows []driver.Row, limit, offset int) []driver.Row {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
