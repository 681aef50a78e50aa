package query

import (
	"reflect"
	"sort"
)

// Map is the equality-map shorthand for a condition: every key must
// equal its value. A slice value is treated as membership (IN), a nil
// value matches rows where the field is null or absent. Keys are
// expanded in lexical order, so the compiled form is deterministic.
type Map map[string]interface{}

func (m Map) q() {
}

// Cond returns the predicate tree equivalent to the map: an AND of one
// comparison per key. An empty or nil map compiles to nil, which
// matches every row.
func (m Map) Cond() Q {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	conds := make([]Q, len(keys))
	for ii, k := range keys {
		v := m[k]
		if v != nil && reflect.TypeOf(v).Kind() == reflect.Slice {
			conds[ii] = &In{Field{Field: k, Value: v}}
		} else {
			conds[ii] = &Eq{Field{Field: k, Value: v}}
		}
	}
	if len(conds) == 1 {
		return conds[0]
	}
	return &And{Combinator{Conditions: conds}}
}

// Normalize replaces any Map nodes in the given condition with their
// expanded predicate-tree form, so backend compilers only ever see
// comparison leaves and combinators. It is applied once, at the model
// boundary.
func Normalize(q Q) Q {
	switch x := q.(type) {
	case Map:
		return x.Cond()
	case *And:
		return &And{Combinator{Conditions: normalizeAll(x.Conditions)}}
	case *Or:
		return &Or{Combinator{Conditions: normalizeAll(x.Conditions)}}
	}
	return q
}

func normalizeAll(conds []Q) []Q {
	out := make([]Q, len(conds))
	for ii, c := range conds {
		out[ii] = Normalize(c)
	}
	return out
}
