package handlers

import (
	"net/http"
	"strconv"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransactionHandler expõe o ledger: holdings e transações.
type TransactionHandler struct {
	Ledger *services.Ledger
	logger *zap.Logger
}

// NewTransactionHandler cria uma nova instância do handler de transações.
func NewTransactionHandler(l *services.Ledger, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{Ledger: l, logger: logger}
}

type holdingRequest struct {
	ID      string `json:"id"`
	TokenID string `json:"token_id"`
	Amount  int64  `json:"amount"`
}

// CreateTransaction transfere tokens do vendedor para o comprador.
// POST /v1/database/transaction/create-transaction
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		BuyerID           string          `json:"buyer_id"`
		VendorID          string          `json:"vendor_id"`
		TokenID           string          `json:"token_id"`
		TokensPurchased   int64           `json:"tokens_purchased"`
		TransactionValue  decimal.Decimal `json:"transaction_value"`
		CurrencyPayedWith string          `json:"currency_payed_with"`
		AmountPayed       decimal.Decimal `json:"amount_payed"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}
	buyer, ok := parseActor(w, r, requestBody.BuyerID)
	if !ok {
		return
	}

	tx, err := h.Ledger.CreateTransaction(r.Context(), services.TransactionRequest{
		Buyer:             buyer,
		VendorID:          requestBody.VendorID,
		TokenID:           requestBody.TokenID,
		TokensPurchased:   requestBody.TokensPurchased,
		TransactionValue:  requestBody.TransactionValue,
		CurrencyPayedWith: requestBody.CurrencyPayedWith,
		AmountPayed:       requestBody.AmountPayed,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, tx)
}

// GetTransaction obtém uma transação pelo ID.
// GET /v1/database/transaction/get-transaction/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tx, found, err := h.Ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !found {
		writeNotFound(w, r, "transação", id)
		return
	}
	WriteSuccess(w, http.StatusOK, tx)
}

// GetHoldings devolve os holdings de um usuário ou vendedor.
// GET /v1/database/user/get-holdings/{id}
func (h *TransactionHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ref, ok := parseActor(w, r, id)
	if !ok {
		return
	}

	view, found, err := h.Ledger.GetHoldings(r.Context(), ref)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !found {
		writeNotFound(w, r, ref.Kind.String(), id)
		return
	}
	WriteSuccess(w, http.StatusOK, view)
}

// EnsureFunds indica se o ator tem pelo menos amount do token.
// GET /v1/database/transaction/ensure-funds/{id}?token_id=...&amount=...
func (h *TransactionHandler) EnsureFunds(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseActor(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_argument", "amount inválido")
		return
	}

	enough, err := h.Ledger.EnsureFunds(r.Context(), ref, r.URL.Query().Get("token_id"), amount)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, struct {
		Sufficient bool `json:"sufficient"`
	}{enough})
}

// AddHoldings acrescenta um par (token_id, amount) aos holdings do ator.
// POST /v1/database/user/add-holdings
func (h *TransactionHandler) AddHoldings(w http.ResponseWriter, r *http.Request) {
	var requestBody holdingRequest
	if !decodeBody(w, r, &requestBody) {
		return
	}
	ref, ok := parseActor(w, r, requestBody.ID)
	if !ok {
		return
	}

	added, err := h.Ledger.AddHolding(r.Context(), ref, requestBody.TokenID, requestBody.Amount)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, updatedResponse{Updated: added})
}

// UpdateHoldings define o saldo absoluto de um token que o ator já possui.
// PATCH /v1/database/user/update-holdings
func (h *TransactionHandler) UpdateHoldings(w http.ResponseWriter, r *http.Request) {
	var requestBody holdingRequest
	if !decodeBody(w, r, &requestBody) {
		return
	}
	ref, ok := parseActor(w, r, requestBody.ID)
	if !ok {
		return
	}

	updated, err := h.Ledger.UpdateHolding(r.Context(), ref, requestBody.TokenID, requestBody.Amount)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, updatedResponse{Updated: updated})
}

// ApplyDelta devolve um handler que soma amount ao saldo do ator da variante kind.
// PATCH /v1/database/user/update-user-holdings
// PATCH /v1/database/user/update-vendor-holdings
func (h *TransactionHandler) ApplyDelta(kind models.ActorKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestBody holdingRequest
		if !decodeBody(w, r, &requestBody) {
			return
		}
		ref, ok := parseActor(w, r, requestBody.ID)
		if !ok {
			return
		}
		if ref.Kind != kind {
			WriteError(w, r, http.StatusBadRequest, "invalid_id", requestBody.ID+" não é um "+kind.String())
			return
		}

		holdings, err := h.Ledger.ApplyHoldingDelta(r.Context(), ref, requestBody.TokenID, requestBody.Amount)
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		WriteSuccess(w, http.StatusOK, models.HoldingsView{ID: ref.ID, Holdings: holdings})
	}
}
