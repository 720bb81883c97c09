package handlers

import (
	"net/http"

	"github.com/ferreirogomes/eden/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TokenHandler lida com requisições HTTP relacionadas a tokens.
type TokenHandler struct {
	Service *services.TokenizationService
	logger  *zap.Logger
}

// NewTokenHandler cria uma nova instância do handler de tokens.
func NewTokenHandler(s *services.TokenizationService, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{Service: s, logger: logger}
}

// Request struct para a criação de token
type CreateTokenRequest struct {
	ContractAddress    string          `json:"contract_address"`
	TokenName          string          `json:"token_name"`
	TokenSupply        int64           `json:"token_supply"`
	PricePerTokenInUSD decimal.Decimal `json:"price_per_token_in_usd"`
	ABI                string          `json:"abi"` // repassado sem interpretação
}

// CreateToken registra um novo token.
// POST /v1/database/token/create-token
func (h *TokenHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req CreateTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, err := h.Service.CreateToken(r.Context(), req.ContractAddress, req.TokenName, req.TokenSupply, req.PricePerTokenInUSD, req.ABI)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, token)
}

// GetToken obtém um token pelo ID.
// GET /v1/database/token/get-token/{id}
func (h *TokenHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "id")
	token, found, err := h.Service.GetToken(r.Context(), tokenID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !found {
		writeNotFound(w, r, "token", tokenID)
		return
	}
	WriteSuccess(w, http.StatusOK, token)
}

// UpdatePricePerToken altera o preço unitário de um token.
// PATCH /v1/database/token/update-price-per-token
func (h *TokenHandler) UpdatePricePerToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TokenID            string          `json:"token_id"`
		PricePerTokenInUSD decimal.Decimal `json:"price_per_token_in_usd"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	token, err := h.Service.UpdatePricePerToken(r.Context(), req.TokenID, req.PricePerTokenInUSD)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, token)
}

// DeleteToken remove um token.
// DELETE /v1/database/token/delete-token/{id}
func (h *TokenHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Service.DeleteToken(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, deletedResponse{Deleted: deleted})
}
