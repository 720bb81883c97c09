package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ferreirogomes/eden/handlers"
	"github.com/ferreirogomes/eden/services"
	"github.com/ferreirogomes/eden/storage"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockStore é uma implementação mock de storage.Store para simular falhas do banco.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertOne(ctx context.Context, coll storage.Collection, doc any) (string, error) {
	args := m.Called(ctx, coll, doc)
	return args.String(0), args.Error(1)
}
func (m *MockStore) FindOne(ctx context.Context, coll storage.Collection, filter storage.Filter, out any) error {
	return m.Called(ctx, coll, filter, out).Error(0)
}
func (m *MockStore) FindMany(ctx context.Context, coll storage.Collection, filter storage.Filter, out any) error {
	return m.Called(ctx, coll, filter, out).Error(0)
}
func (m *MockStore) UpdateOne(ctx context.Context, coll storage.Collection, filter storage.Filter, update storage.Update, out any) error {
	return m.Called(ctx, coll, filter, update, out).Error(0)
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

func newRouter(t *testing.T, store storage.Store) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ids := services.NewIdentityAssigner(store, logger)
	tokens := services.NewTokenizationService(store, ids, logger, time.Minute)
	return handlers.NewRouter(handlers.Services{
		Registry: services.NewRegistry(store, ids, logger),
		Ledger:   services.NewLedger(store, ids, logger, services.DefaultHoldingsMaxRetries),
		Tokens:   tokens,
		Catalog:  services.NewCatalog(store, ids, tokens, logger),
	}, logger)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
