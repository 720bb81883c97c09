package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ferreirogomes/eden/services"
	"github.com/ferreirogomes/eden/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMaintenance_FlushDatabase(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	env := newTestEnv(t, store)

	_, err := env.registry.CreateUser(ctx, "w", "ana", "h")
	require.NoError(t, err)
	_, err = env.registry.CreateVendor(ctx, "w", "loja", "h")
	require.NoError(t, err)
	tk, err := env.tokens.CreateToken(ctx, "0x1", "T", 1, decimal.Zero, "")
	require.NoError(t, err)

	m := services.NewMaintenance(store, "segredo", zaptest.NewLogger(t))

	_, err = m.FlushDatabase(ctx, "errada")
	assert.ErrorIs(t, err, &services.InvalidArgumentError{})

	removed, err := m.FlushDatabase(ctx, "segredo")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed[storage.Users])
	assert.Equal(t, int64(1), removed[storage.Vendors])

	// Tokens sobrevivem ao flush.
	_, found, err := env.tokens.GetToken(ctx, tk.TokenID)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMaintenance_FlushDisabledWithoutPass(t *testing.T) {
	m := services.NewMaintenance(storage.NewMemoryStore(), "", zaptest.NewLogger(t))
	_, err := m.FlushDatabase(context.Background(), "")
	assert.ErrorIs(t, err, &services.InvalidArgumentError{})
}

func TestMaintenance_FlushAggregatesFailures(t *testing.T) {
	store := new(MockStore)
	store.On("DeleteMany", mock.Anything, storage.Users, mock.Anything).Return(int64(0), errors.New("falha users"))
	store.On("DeleteMany", mock.Anything, storage.Vendors, mock.Anything).Return(int64(2), nil)
	store.On("DeleteMany", mock.Anything, storage.Locations, mock.Anything).Return(int64(0), errors.New("falha locations"))
	store.On("DeleteMany", mock.Anything, storage.Transactions, mock.Anything).Return(int64(3), nil)

	m := services.NewMaintenance(store, "p", zaptest.NewLogger(t))
	removed, err := m.FlushDatabase(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "falha users")
	assert.Contains(t, err.Error(), "falha locations")
	assert.Equal(t, int64(2), removed[storage.Vendors])
	assert.Equal(t, int64(3), removed[storage.Transactions])
	store.AssertExpectations(t)
}
