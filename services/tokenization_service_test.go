package services_test

import (
	"context"
	"testing"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/services"
	"github.com/ferreirogomes/eden/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTokenizationService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, storage.NewMemoryStore())

	tk, err := env.tokens.CreateToken(ctx, "0xcontract", "Casa Lisboa", 1000, decimal.RequireFromString("12.50"), `{"abi":[]}`)
	require.NoError(t, err)
	assert.Regexp(t, `^TK-`+uuidSuffix, tk.TokenID)
	assert.True(t, tk.PricePerTokenInUSD.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, `{"abi":[]}`, tk.ABI)

	got, found, err := env.tokens.GetToken(ctx, tk.TokenID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, tk.TokenName, got.TokenName)

	updated, err := env.tokens.UpdatePricePerToken(ctx, tk.TokenID, decimal.NewFromInt(15))
	require.NoError(t, err)
	assert.True(t, updated.PricePerTokenInUSD.Equal(decimal.NewFromInt(15)))

	got, _, err = env.tokens.GetToken(ctx, tk.TokenID)
	require.NoError(t, err)
	assert.True(t, got.PricePerTokenInUSD.Equal(decimal.NewFromInt(15)))

	deleted, err := env.tokens.DeleteToken(ctx, tk.TokenID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, found, err = env.tokens.GetToken(ctx, tk.TokenID)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = env.tokens.UpdatePricePerToken(ctx, tk.TokenID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, &services.NotFoundError{})
}

func TestTokenizationService_ReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	env := newTestEnv(t, store)

	tk, err := env.tokens.CreateToken(ctx, "0x1", "T", 10, decimal.NewFromInt(1), "")
	require.NoError(t, err)

	// Removido por fora do serviço: o cache ainda responde.
	_, err = store.DeleteOne(ctx, storage.Tokens, storage.Filter{models.FieldTokenID: tk.TokenID})
	require.NoError(t, err)
	_, found, err := env.tokens.GetToken(ctx, tk.TokenID)
	require.NoError(t, err)
	assert.True(t, found)

	// Sem cache a leitura vai sempre ao store.
	uncached := services.NewTokenizationService(store, env.ids, zaptest.NewLogger(t), 0)
	_, found, err = uncached.GetToken(ctx, tk.TokenID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTokenizationService_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, storage.NewMemoryStore())

	_, err := env.tokens.CreateToken(ctx, "0x1", "T", -1, decimal.Zero, "")
	assert.ErrorIs(t, err, &services.InvalidArgumentError{})

	_, err = env.tokens.CreateToken(ctx, "0x1", "T", 1, decimal.NewFromInt(-2), "")
	assert.ErrorIs(t, err, &services.InvalidArgumentError{})
}
