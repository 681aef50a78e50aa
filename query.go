package strata

import (
	"fmt"

	"github.com/strata-db/strata/driver"
	"github.com/strata-db/strata/query"
	"github.com/strata-db/strata/schema"
)

// Query is a chainable lookup over a model. A Query is cheap to build
// and performs no backend I/O until All, One or Count is called.
// Queries are not safe for concurrent use.
type Query struct {
	model *Model
	cond  query.Q
	opts  driver.QueryOptions
	err   error
}

// Query starts a lookup matching the given condition. A nil condition
// matches every row. Equality maps (Where) are accepted anywhere a
// condition is.
func (m *Model) Query(cond query.Q) *Query {
	q := &Query{model: m, opts: driver.Unbounded()}
	if cond != nil {
		q.Filter(cond)
	}
	return q
}

// Filter adds a condition to the query, ANDing it with any previous
// ones.
func (q *Query) Filter(cond query.Q) *Query {
	if q.err != nil || cond == nil {
		return q
	}
	cond = query.Normalize(cond)
	if cond == nil {
		// An empty equality map matches everything.
		return q
	}
	for _, name := range query.FieldNames(cond) {
		if !q.model.schema.Has(name) {
			q.err = fmt.Errorf("can't filter model %q by field %q: %w", q.model.table, name, schema.ErrFieldNotFound)
			return q
		}
	}
	if q.cond == nil {
		q.cond = cond
	} else {
		q.cond = &query.And{Combinator: query.Combinator{Conditions: []query.Q{q.cond, cond}}}
	}
	return q
}

// Sort adds a sort key. Calling it multiple times sorts by the first
// key, then the second, and so on.
func (q *Query) Sort(field string, dir driver.SortDirection) *Query {
	if q.err != nil {
		return q
	}
	if !q.model.schema.Has(field) {
		q.err = fmt.Errorf("can't sort model %q by field %q: %w", q.model.table, field, schema.ErrFieldNotFound)
		return q
	}
	q.opts.Sort = append(q.opts.Sort, driver.Sort{Field: field, Direction: dir})
	return q
}

// Limit caps the number of returned rows. Negative means no limit.
func (q *Query) Limit(limit int) *Query {
	q.opts.Limit = limit
	return q
}

// Offset skips the given number of rows. Negative means no offset.
func (q *Query) Offset(offset int) *Query {
	q.opts.Offset = offset
	return q
}

// All runs the query and returns the matching rows.
func (q *Query) All() ([]Row, error) {
	if q.err != nil {
		return nil, q.err
	}
	drv, err := q.model.driver()
	if err != nil {
		return nil, err
	}
	raw, err := drv.Query(q.model, q.cond, q.opts)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(raw))
	for ii, r := range raw {
		if rows[ii], err = q.model.process(r); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// One runs the query and returns the first matching row, or
// ErrNotFound if there are none.
func (q *Query) One() (Row, error) {
	if q.err != nil {
		return nil, q.err
	}
	one := *q
	one.opts.Limit = 1
	rows, err := one.All()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Count returns the number of matching rows. Sort, limit and offset
// are ignored.
func (q *Query) Count() (uint64, error) {
	if q.err != nil {
		return 0, q.err
	}
	drv, err := q.model.driver()
	if err != nil {
		return 0, err
	}
	return drv.Count(q.model, q.cond)
}
