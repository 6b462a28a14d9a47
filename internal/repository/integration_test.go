//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/resumelens/resumelens/internal/testutil"
)

// newTestEnv connects to the test database, serializes against other DB
// tests, and resets the schema.
func newTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()

	dbURL := testutil.RequireEnv(t, "TEST_DATABASE_URL")
	ctx := context.Background()

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		if err := unlock(); err != nil {
			t.Errorf("release db lock: %v", err)
		}
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}
