// Package query defines the predicate tree used to express search
// conditions independently of the storage backend. A tree is pure data:
// comparison leaves reference a field and a value, combinators hold an
// ordered list of child conditions. Backends compile the same tree either
// into an in-process filter or into a parameterized SQL fragment.
package query

type Q interface {
	// This function exists only to avoid declaring Q
	// as an empty interface. Otherwise, the user might
	// accidentally pass arbitrary values as conditions
	// and won't get a compiler error.
	q()
}

// Field represents a comparison operand: a field name and the
// value it's compared against.
type Field struct {
	Field string
	Value interface{}
}

func (f Field) q() {
}

type Eq struct {
	Field
}

type Neq struct {
	Field
}

type Lt struct {
	Field
}

type Lte struct {
	Field
}

type Gt struct {
	Field
}

type Gte struct {
	Field
}

type In struct {
	Field
}

type Combinator struct {
	Conditions []Q
}

func (c Combinator) q() {
}

type And struct {
	Combinator
}

type Or struct {
	Combinator
}

// FieldNames returns the names of all the fields referenced by the
// given condition, deduplicated, in first-appearance order. It is used
// to validate a condition against a model's schema before compiling it.
func FieldNames(q Q) []string {
	var names []string
	seen := make(map[string]bool)
	appendNames(q, seen, &names)
	return names
}

func appendNames(q Q, seen map[string]bool, names *[]string) {
	switch x := q.(type) {
	case nil:
	case *Eq:
		addName(x.Field.Field, seen, names)
	case *Neq:
		addName(x.Field.Field, seen, names)
	case *Lt:
		addName(x.Field.Field, seen, names)
	case *Lte:
		addName(x.Field.Field, seen, names)
	case *Gt:
		addName(x.Field.Field, seen, names)
	case *Gte:
		addName(x.Field.Field, seen, names)
	case *In:
		addName(x.Field.Field, seen, names)
	case *And:
		for _, c := range x.Conditions {
			appendNames(c, seen, names)
		}
	case *Or:
		for _, c := range x.Conditions {
			appendNames(c, seen, names)
		}
	case Map:
		appendNames(x.Cond(), seen, names)
	}
}

func addName(name string, seen map[string]bool, names *[]string) {
	if !seen[name] {
		seen[name] = true
		*names = append(*names, name)
	}
}
