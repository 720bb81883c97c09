package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestCreateUser testa a criação de um usuário e a unicidade do username
func TestCreateUser(t *testing.T) {
	r := newRouter(t, storage.NewMemoryStore())
	body := map[string]string{"wallet_address": "0xabc", "username": "ben", "hash": "h"}

	rr := do(t, r, http.MethodPost, "/v1/database/user/create-user", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	user := decode[models.User](t, rr)
	assert.Regexp(t, `^U-`, user.UserID)
	assert.Equal(t, "ben", user.Username)
	assert.Equal(t, "0xabc", user.WalletAddress)

	rr = do(t, r, http.MethodPost, "/v1/database/user/create-user", body)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "conflict", decode[errorBody](t, rr).Code)

	// Vendedores têm namespace próprio.
	rr = do(t, r, http.MethodPost, "/v1/database/user/create-vendor", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Regexp(t, `^V-`, decode[models.Vendor](t, rr).VendorID)
}

func TestCreateUserRejectsBadBody(t *testing.T) {
	r := newRouter(t, storage.NewMemoryStore())

	rr := do(t, r, http.MethodPost, "/v1/database/user/create-user", "não é objeto")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, r, http.MethodPost, "/v1/database/user/create-user", map[string]string{"wallet_address": "0x1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// TestGetUserByID testa a obtenção de usuários e vendedores pelo ID público
func TestGetUserByID(t *testing.T) {
	r := newRouter(t, storage.NewMemoryStore())
	created := decode[models.Vendor](t, do(t, r, http.MethodPost, "/v1/database/user/create-vendor",
		map[string]string{"username": "loja"}))

	rr := do(t, r, http.MethodGet, "/v1/database/user/get-user/"+created.VendorID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "loja", decode[models.Vendor](t, rr).Username)

	rr = do(t, r, http.MethodGet, "/v1/database/user/get-user/U-inexistente", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, r, http.MethodGet, "/v1/database/user/get-user/X-1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_id", decode[errorBody](t, rr).Code)
}

func TestUpdateUsernameAndWallet(t *testing.T) {
	r := newRouter(t, storage.NewMemoryStore())
	ana := decode[models.User](t, do(t, r, http.MethodPost, "/v1/database/user/create-user", map[string]string{"username": "ana"}))
	do(t, r, http.MethodPost, "/v1/database/user/create-user", map[string]string{"username": "bia"})

	rr := do(t, r, http.MethodPatch, "/v1/database/user/update-username", map[string]string{"id": ana.UserID, "username": "bia"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, r, http.MethodPatch, "/v1/database/user/update-username", map[string]string{"id": ana.UserID, "username": "carla"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, r, http.MethodPatch, "/v1/database/user/update-wallet-address", map[string]string{"id": ana.UserID, "wallet_address": "0xnova"})
	assert.Equal(t, http.StatusOK, rr.Code)

	got := decode[models.User](t, do(t, r, http.MethodGet, "/v1/database/user/get-user/"+ana.UserID, nil))
	assert.Equal(t, "carla", got.Username)
	assert.Equal(t, "0xnova", got.WalletAddress)
}

func TestDeleteVendorRepairsLocations(t *testing.T) {
	r := newRouter(t, storage.NewMemoryStore())
	v := decode[models.Vendor](t, do(t, r, http.MethodPost, "/v1/database/user/create-vendor", map[string]string{"username": "loja"}))

	rr := do(t, r, http.MethodPost, "/v1/database/user/create-location", map[string]any{
		"vendor_ids": []string{v.VendorID},
		"country":    "PT",
		"city":       "Lisboa",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	loc := decode[models.Location](t, rr)
	assert.Equal(t, "Lisboa", loc.City)

	rr = do(t, r, http.MethodDelete, "/v1/database/user/delete-user/"+v.VendorID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[map[string]bool](t, rr)["deleted"])

	got := decode[models.Location](t, do(t, r, http.MethodGet, "/v1/database/user/get-location/"+loc.LocationID, nil))
	assert.Empty(t, got.VendorIDs)

	rr = do(t, r, http.MethodDelete, "/v1/database/user/delete-user/"+v.VendorID, nil)
	assert.False(t, decode[map[string]bool](t, rr)["deleted"])
}

func TestLocationRoutes(t *testing.T) {
	r := newRouter(t, storage.NewMemoryStore())
	v := decode[models.Vendor](t, do(t, r, http.MethodPost, "/v1/database/user/create-vendor", map[string]string{"username": "loja"}))
	loc := decode[models.Location](t, do(t, r, http.MethodPost, "/v1/database/user/create-location", map[string]any{"vendor_ids": []string{}}))

	rr := do(t, r, http.MethodPost, "/v1/database/user/add-vendor-location", map[string]string{"location_id": loc.LocationID, "vendor_id": v.VendorID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, r, http.MethodPatch, "/v1/database/user/update-vendor-location", map[string]string{"location_id": loc.LocationID, "city": "Porto"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Porto", decode[models.Location](t, rr).City)

	vendor := decode[models.Vendor](t, do(t, r, http.MethodGet, "/v1/database/user/get-user/"+v.VendorID, nil))
	assert.Equal(t, []string{loc.LocationID}, vendor.Locations)

	rr = do(t, r, http.MethodDelete, "/v1/database/user/delete-location/"+loc.LocationID, nil)
	assert.True(t, decode[map[string]bool](t, rr)["deleted"])

	rr = do(t, r, http.MethodGet, "/v1/database/user/get-location/"+loc.LocationID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStoreFailureIsInternalError(t *testing.T) {
	store := new(MockStore)
	store.On("FindOne", mock.Anything, storage.Users, mock.Anything, mock.Anything).Return(errors.New("conexão perdida"))
	r := newRouter(t, store)

	rr := do(t, r, http.MethodGet, "/v1/database/user/get-user/U-1", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, "internal", body.Code)
	assert.NotContains(t, body.Message, "conexão perdida")
	store.AssertExpectations(t)
}
