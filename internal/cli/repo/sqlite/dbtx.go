package sqlite

import "database/sql"

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repository methods can
// run standalone or inside a store transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
