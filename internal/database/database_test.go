package database

import (
	"context"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// TestExecuteNormalizesColumnNames verifies that snake_case columns come back
// camelCased.
func TestExecuteNormalizesColumnNames(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rows, err := s.Execute(ctx,
		"INSERT INTO admin (email, username, password) VALUES (?, ?, ?) RETURNING id, created_at",
		"a@x.com", "alice", "hash")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if _, ok := rows[0]["createdAt"]; !ok {
		t.Errorf("expected createdAt key, got %v", rows[0])
	}
	if id, ok := rows[0]["id"].(int64); !ok || id <= 0 {
		t.Errorf("expected positive int64 id, got %v", rows[0]["id"])
	}
}

// TestExecuteNoRows verifies statements without a result set return an empty
// slice, not nil or an error.
func TestExecuteNoRows(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rows, err := s.Execute(ctx,
		"UPDATE admin SET username = ? WHERE id = ?", "nobody", 999)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty slice, got %v", rows)
	}
}

// TestDoesExist exercises AND/OR composition of the existence predicate.
func TestDoesExist(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Execute(ctx,
		"INSERT INTO admin (email, username, password) VALUES (?, ?, ?)",
		"a@x.com", "alice", "hash")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	tests := []struct {
		name       string
		conditions map[string]any
		connector  Connector
		want       bool
	}{
		{"single match", map[string]any{"email": "a@x.com"}, And, true},
		{"single miss", map[string]any{"email": "b@x.com"}, And, false},
		{"and both match", map[string]any{"email": "a@x.com", "username": "alice"}, And, true},
		{"and one misses", map[string]any{"email": "a@x.com", "username": "bob"}, And, false},
		{"or one matches", map[string]any{"email": "b@x.com", "username": "alice"}, Or, true},
		{"or none match", map[string]any{"email": "b@x.com", "username": "bob"}, Or, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.DoesExist(ctx, "admin", tt.conditions, tt.connector)
			if err != nil {
				t.Fatalf("DoesExist failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("DoesExist = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDoesExistRejectsEmptyConditions verifies the guard against an
// unconstrained existence query.
func TestDoesExistRejectsEmptyConditions(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.DoesExist(context.Background(), "admin", map[string]any{}, And)
	if err == nil {
		t.Errorf("expected error for empty conditions")
	}
}

// TestTransactionCommit verifies results come back per statement, in order.
func TestTransactionCommit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	results, err := s.Transaction(ctx, []Statement{
		{Query: "INSERT INTO admin (email, username, password) VALUES (?, ?, ?) RETURNING id",
			Args: []any{"a@x.com", "alice", "hash"}},
		{Query: "INSERT INTO admin (email, username, password) VALUES (?, ?, ?) RETURNING id",
			Args: []any{"b@x.com", "bob", "hash"}},
		{Query: "SELECT username FROM admin ORDER BY id"},
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 result sets, got %d", len(results))
	}
	if len(results[2]) != 2 {
		t.Fatalf("expected 2 rows from final select, got %d", len(results[2]))
	}
	if results[2][0]["username"] != "alice" || results[2][1]["username"] != "bob" {
		t.Errorf("unexpected select results: %v", results[2])
	}
}

// TestTransactionRollback verifies that when a middle statement fails, the
// effects of earlier statements are absent from subsequent reads.
func TestTransactionRollback(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Transaction(ctx, []Statement{
		{Query: "INSERT INTO admin (email, username, password) VALUES (?, ?, ?)",
			Args: []any{"a@x.com", "alice", "hash"}},
		{Query: "INSERT INTO no_such_table (x) VALUES (?)", Args: []any{1}},
		{Query: "INSERT INTO admin (email, username, password) VALUES (?, ?, ?)",
			Args: []any{"b@x.com", "bob", "hash"}},
	})
	if err == nil {
		t.Fatalf("expected transaction to fail")
	}

	exists, err := s.DoesExist(ctx, "admin", map[string]any{"email": "a@x.com"}, And)
	if err != nil {
		t.Fatalf("DoesExist failed: %v", err)
	}
	if exists {
		t.Errorf("first statement's insert survived rollback")
	}
}

// TestTransactionUniqueViolationRollsBack verifies rollback on a constraint
// failure rather than only on structural errors.
func TestTransactionUniqueViolationRollsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Execute(ctx,
		"INSERT INTO admin (email, username, password) VALUES (?, ?, ?)",
		"taken@x.com", "taken", "hash")
	if err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	_, err = s.Transaction(ctx, []Statement{
		{Query: "INSERT INTO admin (email, username, password) VALUES (?, ?, ?)",
			Args: []any{"new@x.com", "new", "hash"}},
		{Query: "INSERT INTO admin (email, username, password) VALUES (?, ?, ?)",
			Args: []any{"taken@x.com", "other", "hash"}},
	})
	if err == nil {
		t.Fatalf("expected unique violation")
	}

	exists, err := s.DoesExist(ctx, "admin", map[string]any{"email": "new@x.com"}, And)
	if err != nil {
		t.Fatalf("DoesExist failed: %v", err)
	}
	if exists {
		t.Errorf("insert before the violation survived rollback")
	}
}

// TestToCamelCase pins the column name mapping.
func TestToCamelCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"id", "id"},
		{"created_at", "createdAt"},
		{"admin_permission_id", "adminPermissionId"},
		{"does_exist", "doesExist"},
	}

	for _, tt := range tests {
		if got := toCamelCase(tt.in); got != tt.want {
			t.Errorf("toCamelCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
