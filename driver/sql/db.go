package sql

import (
	"database/sql"
	sqldriver "database/sql/driver"
	"errors"

	"go.uber.org/zap"
)

// DB wraps a lazily-opened database/sql handle. The handle is created
// on first use, and a query that fails because the connection died
// closes and clears it so the next call reconnects transparently.
// Exactly one reconnect is attempted per call; a failed reconnect
// propagates the driver's error.
type DB struct {
	driverName string
	dsn        string
	logger     *zap.SugaredLogger
	sqlDb      *sql.DB
}

func NewDB(driverName, dsn string) *DB {
	return &DB{driverName: driverName, dsn: dsn}
}

func (db *DB) SetLogger(logger *zap.SugaredLogger) {
	db.logger = logger
}

func (db *DB) handle() (*sql.DB, error) {
	if db.sqlDb == nil {
		h, err := sql.Open(db.driverName, db.dsn)
		if err != nil {
			return nil, err
		}
		db.sqlDb = h
	}
	return db.sqlDb, nil
}

func (db *DB) reset() {
	if db.sqlDb != nil {
		db.sqlDb.Close()
		db.sqlDb = nil
	}
}

func (db *DB) debugq(stmt string, args []interface{}) {
	if db.logger != nil {
		if len(args) > 0 {
			db.logger.Debugf("SQL: %s with arguments %v", stmt, args)
		} else {
			db.logger.Debugf("SQL: %s", stmt)
		}
	}
}

func (db *DB) Exec(stmt string, args ...interface{}) (sql.Result, error) {
	h, err := db.handle()
	if err != nil {
		return nil, err
	}
	db.debugq(stmt, args)
	res, err := h.Exec(stmt, args...)
	if isBadConn(err) {
		db.reset()
		if h, err = db.handle(); err != nil {
			return nil, err
		}
		res, err = h.Exec(stmt, args...)
	}
	return res, err
}

func (db *DB) Query(stmt string, args ...interface{}) (*sql.Rows, error) {
	h, err := db.handle()
	if err != nil {
		return nil, err
	}
	db.debugq(stmt, args)
	rows, err := h.Query(stmt, args...)
	if isBadConn(err) {
		db.reset()
		if h, err = db.handle(); err != nil {
			return nil, err
		}
		rows, err = h.Query(stmt, args...)
	}
	return rows, err
}

func (db *DB) QueryRow(stmt string, args ...interface{}) (*sql.Row, error) {
	h, err := db.handle()
	if err != nil {
		return nil, err
	}
	db.debugq(stmt, args)
	return h.QueryRow(stmt, args...), nil
}

func (db *DB) Close() error {
	if db.sqlDb == nil {
		return nil
	}
	err := db.sqlDb.Close()
	db.sqlDb = nil
	return err
}

func isBadConn(err error) bool {
	return err != nil && errors.Is(err, sqldriver.ErrBadConn)
}
