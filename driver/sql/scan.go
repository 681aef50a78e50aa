package sql

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/strata-db/strata/driver"
	"github.com/strata-db/strata/schema"
)

// scanRows reads every row into a Row map, normalizing driver-specific
// value representations using the schema: integer kinds become int64,
// Bool becomes bool (some engines return 0/1), String and JSON become
// string. NULL columns are stored as nil.
func scanRows(rows *sql.Rows, s *schema.Schema) ([]driver.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []driver.Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		for ii := range values {
			values[ii] = new(interface{})
		}
		if err := rows.Scan(values...); err != nil {
			return nil, err
		}
		row := make(driver.Row, len(cols))
		for ii, name := range cols {
			val := *(values[ii].(*interface{}))
			f := s.Field(name)
			converted, err := convertValue(val, f)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
			row[name] = converted
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func convertValue(val interface{}, f *schema.Field) (interface{}, error) {
	if val == nil {
		return nil, nil
	}
	if f == nil {
		return rawValue(val), nil
	}
	switch f.Kind {
	case schema.Int, schema.BigInt:
		switch x := val.(type) {
		case int64:
			return x, nil
		case []byte:
			return strconv.ParseInt(string(x), 10, 64)
		}
	case schema.Bool:
		switch x := val.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case []byte:
			// mysql surfaces BOOL columns as []byte("0"/"1").
			return string(x) != "0", nil
		}
	case schema.String, schema.JSON:
		switch x := val.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		}
	}
	return nil, fmt.Errorf("can't convert %T to %s", val, f.Kind)
}

func rawValue(val interface{}) interface{} {
	if b, ok := val.([]byte); ok {
		return string(b)
	}
	return val
}
