package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/ferreirogomes/eden/services"
	"github.com/ferreirogomes/eden/storage"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

// MockStore é uma implementação mock de storage.Store para os caminhos de falha.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertOne(ctx context.Context, coll storage.Collection, doc any) (string, error) {
	args := m.Called(ctx, coll, doc)
	return args.String(0), args.Error(1)
}
func (m *MockStore) FindOne(ctx context.Context, coll storage.Collection, filter storage.Filter, out any) error {
	args := m.Called(ctx, coll, filter, out)
	return args.Error(0)
}
func (m *MockStore) FindMany(ctx context.Context, coll storage.Collection, filter storage.Filter, out any) error {
	args := m.Called(ctx, coll, filter, out)
	return args.Error(0)
}
func (m *MockStore) UpdateOne(ctx context.Context, coll storage.Collection, filter storage.Filter, update storage.Update, out any) error {
	args := m.Called(ctx, coll, filter, update, out)
	return args.Error(0)
}
func (m *MockStore) DeleteOne(ctx context.Context, coll storage.Collection, filter storage.Filter) (int64, error) {
	args := m.Called(ctx, coll, filter)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockStore) DeleteMany(ctx context.Context, coll storage.Collection, filter storage.Filter) (int64, error) {
	args := m.Called(ctx, coll, filter)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockStore) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// hookedStore repassa tudo para o store real, exceto quando beforeUpdate devolve erro.
type hookedStore struct {
	storage.Store
	beforeUpdate func(coll storage.Collection, filter storage.Filter, update storage.Update) error
}

func (h *hookedStore) UpdateOne(ctx context.Context, coll storage.Collection, filter storage.Filter, update storage.Update, out any) error {
	if h.beforeUpdate != nil {
		if err := h.beforeUpdate(coll, filter, update); err != nil {
			return err
		}
	}
	return h.Store.UpdateOne(ctx, coll, filter, update, out)
}

type testEnv struct {
	store    storage.Store
	ids      *services.IdentityAssigner
	registry *services.Registry
	ledger   *services.Ledger
	tokens   *services.TokenizationService
	catalog  *services.Catalog
}

func newTestEnv(t *testing.T, store storage.Store) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ids := services.NewIdentityAssigner(store, logger)
	tokens := services.NewTokenizationService(store, ids, logger, time.Minute)
	return &testEnv{
		store:    store,
		ids:      ids,
		registry: services.NewRegistry(store, ids, logger),
		ledger:   services.NewLedger(store, ids, logger, services.DefaultHoldingsMaxRetries),
		tokens:   tokens,
		catalog:  services.NewCatalog(store, ids, tokens, logger),
	}
}
