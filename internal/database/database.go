// Package database implements the relational store client: pooled statement
// execution, declarative multi-statement transactions with rollback, and an
// existence-check convenience built on top of both.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Row is a single result record with column names normalized to camelCase.
type Row map[string]any

// Statement is one query plus its arguments, queued for transactional
// execution. The whole transaction is described up front as an ordered list;
// a failure anywhere aborts everything already queued.
type Statement struct {
	Query string
	Args  []any
}

// Connector selects how DoesExist combines its conditions.
type Connector string

const (
	// And requires all conditions to match.
	And Connector = "AND"
	// Or requires any condition to match.
	Or Connector = "OR"
)

// Store wraps a pooled SQLite database. Connections are handed out per
// logical unit of work (one Execute, or one whole Transaction) and returned
// immediately after.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path, applies the pragmas the store
// relies on, and initializes the schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite requires a single connection for in-process
	// databases to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := InitSchema(db); err != nil {
		_ = db.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an already opened database. The caller owns schema setup.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Execute runs one statement over a pooled connection and returns the
// normalized result rows. Statements that produce no rows (plain INSERT,
// UPDATE, DELETE, DDL) return an empty slice.
func (s *Store) Execute(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return collectRows(rows)
}

// Transaction executes the given statements strictly in order on a single
// connection inside BEGIN/COMMIT. If any statement fails, the transaction is
// rolled back and the original cause propagates; no partial effects are
// observable outside the transaction.
func (s *Store) Transaction(ctx context.Context, stmts []Statement) ([][]Row, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	results := make([][]Row, 0, len(stmts))
	for i, stmt := range stmts {
		rows, err := tx.QueryContext(ctx, stmt.Query, stmt.Args...)
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("transaction statement %d failed: %w", i, err)
		}

		collected, err := collectRows(rows)
		_ = rows.Close() //nolint:errcheck
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("transaction statement %d failed: %w", i, err)
		}

		results = append(results, collected)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return results, nil
}

// DoesExist reports whether a row matching the conditions exists in table.
// Conditions are column name to value; connector chooses AND or OR
// composition. Column names are sorted so the generated SQL is stable.
func (s *Store) DoesExist(ctx context.Context, table string, conditions map[string]any, connector Connector) (bool, error) {
	if len(conditions) == 0 {
		return false, fmt.Errorf("doesExist requires at least one condition")
	}
	if connector != And && connector != Or {
		return false, fmt.Errorf("invalid connector %q", connector)
	}

	columns := make([]string, 0, len(conditions))
	for column := range conditions {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	predicates := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, column := range columns {
		predicates = append(predicates, column+" = ?")
		args = append(args, conditions[column])
	}

	query := fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE %s) AS does_exist",
		table, strings.Join(predicates, " "+string(connector)+" "),
	)

	result, err := s.Execute(ctx, query, args...)
	if err != nil {
		return false, err
	}
	if len(result) == 0 {
		return false, fmt.Errorf("existence query returned no rows")
	}

	exists, ok := result[0]["doesExist"].(int64)
	if !ok {
		return false, fmt.Errorf("existence query returned unexpected type %T", result[0]["doesExist"])
	}

	return exists != 0, nil
}

// collectRows scans all rows into normalized Row maps. Column names are
// mapped from snake_case to camelCase, and []byte values to string.
func collectRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			value := values[i]
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			row[toCamelCase(column)] = value
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// toCamelCase converts a snake_case column name to camelCase.
func toCamelCase(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) == 1 {
		return name
	}

	var b strings.Builder
	b.WriteString(parts[0])
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
