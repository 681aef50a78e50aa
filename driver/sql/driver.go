package sql

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/strata-db/strata/driver"
	"github.com/strata-db/strata/query"
)

type Driver struct {
	db      *DB
	backend Backend
	prefix  string
}

// NewDriver returns a SQL driver using the given dialect. The DSN is
// passed verbatim to the dialect's database/sql driver; prefix, if not
// empty, is prepended to every table name.
func NewDriver(b Backend, dsn string, prefix string) *Driver {
	return &Driver{
		db:      NewDB(b.Name(), dsn),
		backend: b,
		prefix:  prefix,
	}
}

// SetLogger sets the logger used to echo every statement at debug
// level.
func (d *Driver) SetLogger(logger *zap.SugaredLogger) {
	d.db.SetLogger(logger)
}

// DB returns the underlying connection wrapper.
func (d *Driver) DB() *DB {
	return d.db
}

// Backend returns the dialect in use.
func (d *Driver) Backend() Backend {
	return d.backend
}

func (d *Driver) tableName(m driver.Model) string {
	return d.prefix + m.Table()
}

func (d *Driver) Query(m driver.Model, q query.Q, opts driver.QueryOptions) ([]driver.Row, error) {
	stmt, params, err := d.Select(m, nil, q, opts)
	if err != nil {
		return nil, err
	}
	if err := checkBindValues(params); err != nil {
		return nil, err
	}
	rows, err := d.db.Query(stmt, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows, m.Schema())
}

func (d *Driver) Count(m driver.Model, q query.Q) (uint64, error) {
	stmt, params, err := d.Select(m, []string{"COUNT(*)"}, q, driver.Unbounded())
	if err != nil {
		return 0, err
	}
	if err := checkBindValues(params); err != nil {
		return 0, err
	}
	row, err := d.db.QueryRow(stmt, params...)
	if err != nil {
		return 0, err
	}
	var count uint64
	err = row.Scan(&count)
	return count, err
}

func (d *Driver) Insert(m driver.Model, row driver.Row) (int64, error) {
	s := m.Schema()
	var fields []string
	var values []interface{}
	for _, name := range s.Names() {
		if v, ok := row[name]; ok {
			fields = append(fields, name)
			values = append(values, v)
		}
	}
	if err := checkBindValues(values); err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	buf.WriteString("INSERT INTO ")
	writeIdentifier(&buf, d.tableName(m))
	if len(fields) > 0 {
		buf.WriteString(" (")
		for ii, v := range fields {
			if ii > 0 {
				buf.WriteByte(',')
			}
			writeIdentifier(&buf, v)
		}
		buf.WriteString(") VALUES (")
		for ii := range fields {
			if ii > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(d.backend.Placeholder(ii + 1))
		}
		buf.WriteByte(')')
	} else {
		buf.WriteByte(' ')
		buf.WriteString(d.backend.DefaultValues())
	}
	return d.backend.Insert(d.db, buf.String(), s.Auto(), values)
}

func (d *Driver) Update(m driver.Model, id int64, row driver.Row) error {
	s := m.Schema()
	var fields []string
	var values []interface{}
	for _, name := range s.Names() {
		if v, ok := row[name]; ok {
			fields = append(fields, name)
			values = append(values, v)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	if err := checkBindValues(values); err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("UPDATE ")
	writeIdentifier(&buf, d.tableName(m))
	buf.WriteString(" SET ")
	for ii, v := range fields {
		if ii > 0 {
			buf.WriteByte(',')
		}
		writeIdentifier(&buf, v)
		buf.WriteByte('=')
		buf.WriteString(d.backend.Placeholder(ii + 1))
	}
	buf.WriteString(" WHERE ")
	writeIdentifier(&buf, s.Auto())
	buf.WriteString(" = ")
	buf.WriteString(d.backend.Placeholder(len(fields) + 1))
	values = append(values, id)
	_, err := d.db.Exec(buf.String(), values...)
	return err
}

func (d *Driver) Delete(m driver.Model, id int64) error {
	var buf bytes.Buffer
	buf.WriteString("DELETE FROM ")
	writeIdentifier(&buf, d.tableName(m))
	buf.WriteString(" WHERE ")
	writeIdentifier(&buf, m.Schema().Auto())
	buf.WriteString(" = ")
	buf.WriteString(d.backend.Placeholder(1))
	_, err := d.db.Exec(buf.String(), id)
	return err
}

func (d *Driver) Close() error {
	return d.db.Close()
}

// Select builds the SELECT statement for the given model and
// condition. fields overrides the selected columns (nil selects the
// full schema). Exposed for tests; callers go through Query and Count.
func (d *Driver) Select(m driver.Model, fields []string, q query.Q, opts driver.QueryOptions) (string, []interface{}, error) {
	if opts.Offset >= 0 && opts.Limit < 0 && d.backend.OffsetRequiresLimit() {
		return "", nil, fmt.Errorf("%w: %s cannot apply an offset without a limit", driver.ErrUnsupportedQuery, d.backend.Name())
	}
	where, params, err := d.where(q, 0)
	if err != nil {
		return "", nil, err
	}
	s := m.Schema()
	var buf bytes.Buffer
	buf.WriteString("SELECT ")
	if fields != nil {
		buf.WriteString(strings.Join(fields, ","))
	} else {
		for ii, name := range s.Names() {
			if ii > 0 {
				buf.WriteByte(',')
			}
			writeIdentifier(&buf, name)
		}
	}
	buf.WriteString(" FROM ")
	writeIdentifier(&buf, d.tableName(m))
	if where != "" {
		buf.WriteString(" WHERE ")
		buf.WriteString(where)
	}
	sorts := opts.Sort
	if len(sorts) == 0 && fields == nil && s.Auto() != "" {
		// Deterministic order for unsorted queries.
		sorts = []driver.Sort{{Field: s.Auto(), Direction: driver.ASC}}
	}
	if len(sorts) > 0 {
		buf.WriteString(" ORDER BY ")
		for ii, v := range sorts {
			if ii > 0 {
				buf.WriteByte(',')
			}
			writeIdentifier(&buf, v.Field)
			if v.Direction == driver.DESC {
				buf.WriteString(" DESC")
			}
		}
	}
	if opts.Limit >= 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(opts.Limit))
	}
	if opts.Offset >= 0 {
		buf.WriteString(" OFFSET ")
		buf.WriteString(strconv.Itoa(opts.Offset))
	}
	return buf.String(), params, nil
}

// Where lowers a condition into a SQL fragment and its bound values,
// numbering placeholders from begin+1. Exposed for tests.
func (d *Driver) Where(q query.Q, begin int) (string, []interface{}, error) {
	return d.where(q, begin)
}

func (d *Driver) where(q query.Q, begin int) (string, []interface{}, error) {
	if q == nil {
		return "", nil, nil
	}
	var params []interface{}
	clause, err := d.condition(q, &params, begin)
	if err != nil {
		return "", nil, err
	}
	return clause, params, nil
}

func (d *Driver) condition(q query.Q, params *[]interface{}, begin int) (string, error) {
	switch x := q.(type) {
	case *query.Eq:
		return d.eqClause(&x.Field, params, begin, false)
	case *query.Neq:
		return d.eqClause(&x.Field, params, begin, true)
	case *query.In:
		return d.inClause(&x.Field, params, begin, false)
	case *query.Lt:
		return d.cmpClause(&x.Field, "<", params, begin)
	case *query.Lte:
		return d.cmpClause(&x.Field, "<=", params, begin)
	case *query.Gt:
		return d.cmpClause(&x.Field, ">", params, begin)
	case *query.Gte:
		return d.cmpClause(&x.Field, ">=", params, begin)
	case *query.And:
		return d.conditions(x.Conditions, " AND ", "(1 = 1)", params, begin)
	case *query.Or:
		// An OR with no children matches nothing.
		return d.conditions(x.Conditions, " OR ", "(1 = 0)", params, begin)
	case query.Map:
		cond := x.Cond()
		if cond == nil {
			return "(1 = 1)", nil
		}
		return d.condition(cond, params, begin)
	}
	return "", fmt.Errorf("%w: %T", driver.ErrUnknownPredicate, q)
}

// eqClause lowers EQ and NEQ. Nil values become IS [NOT] NULL, slices
// become [NOT] IN, and a false value carries the null-equivalence of
// the in-process compiler: absent and NULL columns compare equal to
// false on every backend. Plain NEQ includes NULL columns, since the
// in-process compiler negates EQ and a NULL column never equals a
// non-null value.
func (d *Driver) eqClause(f *query.Field, params *[]interface{}, begin int, negate bool) (string, error) {
	name := quoteIdentifier(f.Field)
	if f.Value == nil {
		if negate {
			return name + " IS NOT NULL", nil
		}
		return name + " IS NULL", nil
	}
	if reflect.TypeOf(f.Value).Kind() == reflect.Slice {
		return d.inClause(f, params, begin, negate)
	}
	if b, ok := f.Value.(bool); ok && !b {
		*params = append(*params, false)
		ph := d.backend.Placeholder(len(*params) + begin)
		if negate {
			return fmt.Sprintf("(%s != %s AND %s IS NOT NULL)", name, ph, name), nil
		}
		return fmt.Sprintf("(%s = %s OR %s IS NULL)", name, ph, name), nil
	}
	*params = append(*params, f.Value)
	ph := d.backend.Placeholder(len(*params) + begin)
	if negate {
		return fmt.Sprintf("(%s != %s OR %s IS NULL)", name, ph, name), nil
	}
	return fmt.Sprintf("%s = %s", name, ph), nil
}

// inClause lowers membership tests. Nil and false members match NULL
// columns on the in-process compiler, so they flip the IS NULL side of
// the clause; binding NULL inside IN would silently match nothing.
func (d *Driver) inClause(f *query.Field, params *[]interface{}, begin int, negate bool) (string, error) {
	value := reflect.ValueOf(f.Value)
	if !value.IsValid() || value.Type().Kind() != reflect.Slice {
		return "", fmt.Errorf("argument for IN must be a slice (field %s)", f.Field)
	}
	if value.Len() == 0 {
		// Nothing is a member of the empty set.
		if negate {
			return "(1 = 1)", nil
		}
		return "(1 = 0)", nil
	}
	var matchesNull bool
	var placeholders []string
	for ii := 0; ii < value.Len(); ii++ {
		v := value.Index(ii).Interface()
		if v == nil {
			matchesNull = true
			continue
		}
		if b, ok := v.(bool); ok && !b {
			matchesNull = true
		}
		*params = append(*params, v)
		placeholders = append(placeholders, d.backend.Placeholder(len(*params)+begin))
	}
	name := quoteIdentifier(f.Field)
	if len(placeholders) == 0 {
		if negate {
			return name + " IS NOT NULL", nil
		}
		return name + " IS NULL", nil
	}
	in := fmt.Sprintf("%s IN (%s)", name, strings.Join(placeholders, ","))
	if negate {
		if matchesNull {
			return fmt.Sprintf("(%s NOT IN (%s) AND %s IS NOT NULL)", name, strings.Join(placeholders, ","), name), nil
		}
		return fmt.Sprintf("(%s NOT IN (%s) OR %s IS NULL)", name, strings.Join(placeholders, ","), name), nil
	}
	if matchesNull {
		return fmt.Sprintf("(%s OR %s IS NULL)", in, name), nil
	}
	return in, nil
}

func (d *Driver) cmpClause(f *query.Field, op string, params *[]interface{}, begin int) (string, error) {
	*params = append(*params, f.Value)
	return fmt.Sprintf("%s %s %s", quoteIdentifier(f.Field), op, d.backend.Placeholder(len(*params)+begin)), nil
}

func (d *Driver) conditions(q []query.Q, sep string, empty string, params *[]interface{}, begin int) (string, error) {
	if len(q) == 0 {
		return empty, nil
	}
	clauses := make([]string, len(q))
	for ii, v := range q {
		c, err := d.condition(v, params, begin)
		if err != nil {
			return "", err
		}
		clauses[ii] = c
	}
	return "(" + strings.Join(clauses, sep) + ")", nil
}

// checkBindValues rejects values database/sql drivers cannot bind,
// before any statement is issued.
func checkBindValues(args []interface{}) error {
	for ii, v := range args {
		if v == nil {
			continue
		}
		switch v.(type) {
		case bool, string, []byte,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			continue
		}
		return fmt.Errorf("%w: parameter %d has unsupported type %T", driver.ErrUndefinedBindValue, ii+1, v)
	}
	return nil
}

func quoteIdentifier(s string) string {
	return `"` + s + `"`
}

func writeIdentifier(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	buf.WriteString(s)
	buf.WriteByte('"')
}
