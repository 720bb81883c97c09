package handlers_test

import (
	"net/http"
	"testing"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	router  http.Handler
	user    models.User
	vendor  models.Vendor
	tokenID string
}

// newLedgerFixture cria V com 100 e U com 10 do mesmo token.
func newLedgerFixture(t *testing.T) ledgerFixture {
	t.Helper()
	r := newRouter(t, storage.NewMemoryStore())
	u := decode[models.User](t, do(t, r, http.MethodPost, "/v1/database/user/create-user", map[string]string{"username": "ben"}))
	v := decode[models.Vendor](t, do(t, r, http.MethodPost, "/v1/database/user/create-vendor", map[string]string{"username": "loja"}))
	tk := decode[models.Token](t, do(t, r, http.MethodPost, "/v1/database/token/create-token", map[string]any{
		"contract_address": "0x1", "token_name": "T", "token_supply": 1000, "price_per_token_in_usd": "0.75",
	}))

	for id, amount := range map[string]int64{v.VendorID: 100, u.UserID: 10} {
		rr := do(t, r, http.MethodPost, "/v1/database/user/add-holdings", map[string]any{"id": id, "token_id": tk.TokenID, "amount": amount})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		require.True(t, decode[map[string]bool](t, rr)["updated"])
	}
	return ledgerFixture{router: r, user: u, vendor: v, tokenID: tk.TokenID}
}

func (f ledgerFixture) holdings(t *testing.T, id string) int64 {
	t.Helper()
	rr := do(t, f.router, http.MethodGet, "/v1/database/user/get-holdings/"+id, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	amount, _ := decode[models.HoldingsView](t, rr).Holdings.AmountOf(f.tokenID)
	return amount
}

func TestCreateTransaction(t *testing.T) {
	f := newLedgerFixture(t)

	rr := do(t, f.router, http.MethodPost, "/v1/database/transaction/create-transaction", map[string]any{
		"buyer_id":            f.user.UserID,
		"vendor_id":           f.vendor.VendorID,
		"token_id":            f.tokenID,
		"tokens_purchased":    30,
		"transaction_value":   23,
		"currency_payed_with": "ETH",
		"amount_payed":        0.002,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tx := decode[models.Transaction](t, rr)
	assert.Regexp(t, `^TR-`, tx.TransactionID)
	assert.Equal(t, int64(30), tx.TokensPurchased)
	assert.True(t, tx.AmountPayed.Equal(decimal.RequireFromString("0.002")))

	assert.Equal(t, int64(70), f.holdings(t, f.vendor.VendorID))
	assert.Equal(t, int64(40), f.holdings(t, f.user.UserID))

	rr = do(t, f.router, http.MethodGet, "/v1/database/transaction/get-transaction/"+tx.TransactionID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, f.user.UserID, decode[models.Transaction](t, rr).BuyerID)

	u := decode[models.User](t, do(t, f.router, http.MethodGet, "/v1/database/user/get-user/"+f.user.UserID, nil))
	assert.Equal(t, []string{tx.TransactionID}, u.TransactionHistory)
}

func TestCreateTransactionErrors(t *testing.T) {
	f := newLedgerFixture(t)
	base := func(qty int64) map[string]any {
		return map[string]any{
			"buyer_id": f.user.UserID, "vendor_id": f.vendor.VendorID, "token_id": f.tokenID,
			"tokens_purchased": qty, "transaction_value": "1", "currency_payed_with": "USD", "amount_payed": "1",
		}
	}

	rr := do(t, f.router, http.MethodPost, "/v1/database/transaction/create-transaction", base(101))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "insufficient_funds", decode[errorBody](t, rr).Code)

	rr = do(t, f.router, http.MethodPost, "/v1/database/transaction/create-transaction", base(0))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	missing := base(1)
	missing["vendor_id"] = "V-inexistente"
	rr = do(t, f.router, http.MethodPost, "/v1/database/transaction/create-transaction", missing)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	badBuyer := base(1)
	badBuyer["buyer_id"] = "comprador"
	rr = do(t, f.router, http.MethodPost, "/v1/database/transaction/create-transaction", badBuyer)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Equal(t, int64(100), f.holdings(t, f.vendor.VendorID))
	assert.Equal(t, int64(10), f.holdings(t, f.user.UserID))

	rr = do(t, f.router, http.MethodGet, "/v1/database/transaction/get-transaction/TR-nada", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHoldingsRoutes(t *testing.T) {
	f := newLedgerFixture(t)
	path := "/v1/database/user/"

	// Mesmo token com outro valor é conflito.
	rr := do(t, f.router, http.MethodPost, path+"add-holdings", map[string]any{"id": f.user.UserID, "token_id": f.tokenID, "amount": 5})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, f.router, http.MethodPatch, path+"update-holdings", map[string]any{"id": f.user.UserID, "token_id": f.tokenID, "amount": 55})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[map[string]bool](t, rr)["updated"])
	assert.Equal(t, int64(55), f.holdings(t, f.user.UserID))

	rr = do(t, f.router, http.MethodPatch, path+"update-holdings", map[string]any{"id": f.user.UserID, "token_id": "TK-outro", "amount": 1})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[map[string]bool](t, rr)["updated"])

	rr = do(t, f.router, http.MethodPatch, path+"update-vendor-holdings", map[string]any{"id": f.vendor.VendorID, "token_id": f.tokenID, "amount": -40})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	view := decode[models.HoldingsView](t, rr)
	assert.Equal(t, f.vendor.VendorID, view.ID)
	assert.Equal(t, int64(60), f.holdings(t, f.vendor.VendorID))

	rr = do(t, f.router, http.MethodPatch, path+"update-user-holdings", map[string]any{"id": f.vendor.VendorID, "token_id": f.tokenID, "amount": 1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, f.router, http.MethodGet, path+"get-holdings/U-nada", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEnsureFunds(t *testing.T) {
	f := newLedgerFixture(t)
	check := func(id, amount string) *struct{ Sufficient bool } {
		rr := do(t, f.router, http.MethodGet, "/v1/database/transaction/ensure-funds/"+id+"?token_id="+f.tokenID+"&amount="+amount, nil)
		if rr.Code != http.StatusOK {
			return nil
		}
		v := decode[struct{ Sufficient bool }](t, rr)
		return &v
	}

	assert.True(t, check(f.vendor.VendorID, "100").Sufficient)
	assert.False(t, check(f.vendor.VendorID, "101").Sufficient)
	assert.False(t, check("U-nada", "1").Sufficient)
	assert.Nil(t, check(f.user.UserID, "muito"))
}
