package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PerpIndexer/internal/entity"
	"PerpIndexer/internal/testutil"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	require.NoError(t, s.EnsureTables(ctx, entity.KindTrader))

	_, err := s.Load(ctx, entity.KindTrader, "0xabc")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, entity.KindTrader, "0xabc", []byte(`{"collateralBalance":"100"}`)))

	data, err := s.Load(ctx, entity.KindTrader, "0xabc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"collateralBalance":"100"}`, string(data))

	// Upsert replaces the value.
	require.NoError(t, s.Save(ctx, entity.KindTrader, "0xabc", []byte(`{"collateralBalance":"250"}`)))
	data, err = s.Load(ctx, entity.KindTrader, "0xabc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"collateralBalance":"250"}`, string(data))

	require.NoError(t, s.Remove(ctx, entity.KindTrader, "0xabc"))
	_, err = s.Load(ctx, entity.KindTrader, "0xabc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreLazyTableCreation(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	// No EnsureTables call; first Save creates the table.
	logKind := entity.Kind("log_deposited")
	require.NoError(t, s.Save(ctx, logKind, "0xhash-3", []byte(`{"amount":"5"}`)))

	data, err := s.Load(ctx, logKind, "0xhash-3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"5"}`, string(data))

	db.Exec("DROP TABLE IF EXISTS entity_log_deposited")
}

func TestValidKind(t *testing.T) {
	assert.NoError(t, validKind(entity.KindProfitRatio))
	assert.NoError(t, validKind(entity.Kind("log_position_changed")))
	assert.Error(t, validKind(entity.Kind("")))
	assert.Error(t, validKind(entity.Kind("drop table;")))
	assert.Error(t, validKind(entity.Kind("Upper")))
}
