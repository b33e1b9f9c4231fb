package model

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/opsgate/opsgate/internal/database"
	"github.com/opsgate/opsgate/internal/kv"
)

// testEnv bundles the store clients and models for one test.
type testEnv struct {
	db         *database.Store
	kv         *kv.Client
	redis      *miniredis.Miniredis
	admin      *Admin
	permission *Permission
	service    *Service
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	kvc := kv.New(rdb)

	return &testEnv{
		db:         db,
		kv:         kvc,
		redis:      mr,
		admin:      NewAdmin(db, kvc),
		permission: NewPermission(db),
		service:    NewService(db),
	}
}

// createTestAdmin registers an admin and returns its id.
func createTestAdmin(t *testing.T, env *testEnv, email, username, password string) int64 {
	t.Helper()

	id, err := env.admin.Create(context.Background(), email, username, password)
	if err != nil {
		t.Fatalf("failed to create test admin: %v", err)
	}
	return id
}
