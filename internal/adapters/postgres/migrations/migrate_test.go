package migrations_test

import (
	"context"
	"testing"

	"github.com/aashkara-band/site-api/internal/adapters/postgres/migrations"
	"github.com/aashkara-band/site-api/internal/adapters/postgres/testutil"
)

func TestApply_IsRepeatable(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)
	ctx := context.Background()

	// OpenMigratedPool already applied once.
	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE name = '0001_site_settings.sql'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("migration recorded %d times, want 1", n)
	}
}
