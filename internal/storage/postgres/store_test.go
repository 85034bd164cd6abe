package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"araswap/internal/model"
)

func TestNewStoreValidation(t *testing.T) {
	_, err := NewStore(context.Background(), "", "pool")
	assert.Error(t, err)
	_, err = NewStore(context.Background(), "postgres://localhost/db", "")
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "0", numeric(""))
	assert.Equal(t, "42", numeric("42"))
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("overflow"))
	assert.Equal(t, "overflow", *nullable("overflow"))
}

// TestStoreRoundTrip runs against a live database when ARASWAP_TEST_PG_DSN is set.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("ARASWAP_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("ARASWAP_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn, "test-"+t.Name())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	require.NoError(t, store.Save(ctx, model.StateRecord{BaseReserve: "2", TokenReserve: "500", Initialized: true}))
	rec, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "500", rec.TokenReserve)

	require.NoError(t, store.Append(ctx, []model.OperationRecord{{
		Seq: 1, Op: "buy", Caller: "0x1111111111111111111111111111111111111111",
		BaseReserve: "2", TokenReserve: "500", Initialized: true, AppliedAt: "2024-01-01T00:00:00Z",
	}}))
}
