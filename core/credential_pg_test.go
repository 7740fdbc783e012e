package core

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Needs a disposable database: BUZZY_TEST_DATABASE_URL=postgres://...
func TestPgCredentialStore(t *testing.T) {
	dsn := os.Getenv("BUZZY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BUZZY_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	s := NewPgCredentialStore(pool, "test-"+randomHex(4))
	require.NoError(t, s.EnsureSchema(ctx))
	t.Cleanup(func() { _ = s.Clear(context.Background()) })
	exerciseStore(t, s)
}
