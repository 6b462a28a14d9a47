// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/resumelens/resumelens/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 772031

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates all application tables for tests.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	drop := `
		DROP TABLE IF EXISTS analyses;
		DROP TABLE IF EXISTS provider_keys;
		DROP TABLE IF EXISTS users;
	`
	if _, err := pool.Exec(ctx, drop); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}

	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	upSQL, err := os.ReadFile(filepath.Join(root, "migrations", "001_init.sql"))
	if err != nil {
		return fmt.Errorf("read init migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply init migration: %w", err)
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the repository root directory.
func ProjectRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("cannot determine caller location")
	}
	// internal/testutil/testutil.go -> repository root
	return filepath.Abs(filepath.Join(filepath.Dir(file), "..", ".."))
}

// NewTestUser builds a user with a unique email for integration tests.
func NewTestUser(prefix string) *model.User {
	id := uuid.NewString()
	return &model.User{
		ID:           id,
		Email:        fmt.Sprintf("%s-%d@test.local", prefix, time.Now().UnixNano()),
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$dGVzdHNhbHQ$dGVzdGhhc2g",
		CreatedAt:    time.Now().UTC(),
	}
}
