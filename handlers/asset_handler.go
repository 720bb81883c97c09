package handlers

import (
	"net/http"

	"github.com/ferreirogomes/eden/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AssetHandler lida com requisições HTTP relacionadas a anúncios de ativos e de tokens.
type AssetHandler struct {
	Catalog *services.Catalog
	logger  *zap.Logger
}

// NewAssetHandler cria uma nova instância do handler de anúncios.
func NewAssetHandler(c *services.Catalog, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{Catalog: c, logger: logger}
}

// CreateAssetListing cria o anúncio de um ativo.
// POST /v1/database/token/create-asset-listing
func (h *AssetHandler) CreateAssetListing(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		TokenID              string          `json:"token_id"`
		VendorID             string          `json:"vendor_id"`
		AssetName            string          `json:"asset_name"`
		Description          string          `json:"description"`
		NumberOfTokensListed int64           `json:"number_of_tokens_listed"`
		AssetPrice           decimal.Decimal `json:"asset_price"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	listing, err := h.Catalog.CreateAssetListing(r.Context(), services.AssetListingRequest{
		TokenID:              requestBody.TokenID,
		VendorID:             requestBody.VendorID,
		AssetName:            requestBody.AssetName,
		Description:          requestBody.Description,
		NumberOfTokensListed: requestBody.NumberOfTokensListed,
		AssetPrice:           requestBody.AssetPrice,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, listing)
}

// CreateTokenListing cria uma parcela à venda de um anúncio de ativo.
// POST /v1/database/token/create-token-listing
func (h *AssetHandler) CreateTokenListing(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		SourceAssetListingID string `json:"source_asset_listing_id"`
		TokenID              string `json:"token_id"`
		ListeeID             string `json:"listee_id"`
		NumberOfTokensListed int64  `json:"number_of_tokens_listed"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	listing, err := h.Catalog.CreateTokenListing(r.Context(), services.TokenListingRequest{
		SourceAssetListingID: requestBody.SourceAssetListingID,
		TokenID:              requestBody.TokenID,
		ListeeID:             requestBody.ListeeID,
		NumberOfTokensListed: requestBody.NumberOfTokensListed,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, listing)
}

// GetAssetListing obtém um anúncio de ativo pelo ID.
// GET /v1/database/token/get-asset-listing/{id}
func (h *AssetHandler) GetAssetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, found, err := h.Catalog.GetAssetListing(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !found {
		writeNotFound(w, r, "anúncio de ativo", id)
		return
	}
	WriteSuccess(w, http.StatusOK, listing)
}

// GetTokenListing obtém um anúncio de token pelo ID.
// GET /v1/database/token/get-token-listing/{id}
func (h *AssetHandler) GetTokenListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, found, err := h.Catalog.GetTokenListing(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !found {
		writeNotFound(w, r, "anúncio de token", id)
		return
	}
	WriteSuccess(w, http.StatusOK, listing)
}

// UpdateAssetPrice altera o preço de um anúncio de ativo.
// PATCH /v1/database/token/update-asset-price
func (h *AssetHandler) UpdateAssetPrice(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		AssetListingID string          `json:"asset_listing_id"`
		AssetPrice     decimal.Decimal `json:"asset_price"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	listing, err := h.Catalog.UpdateAssetPrice(r.Context(), requestBody.AssetListingID, requestBody.AssetPrice)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, listing)
}

// UpdateAssetDescription altera nome e descrição; campos vazios mantêm o valor atual.
// PATCH /v1/database/token/update-asset-description
func (h *AssetHandler) UpdateAssetDescription(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		AssetListingID string `json:"asset_listing_id"`
		AssetName      string `json:"asset_name"`
		Description    string `json:"description"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	listing, err := h.Catalog.UpdateAssetDescription(r.Context(), requestBody.AssetListingID, requestBody.AssetName, requestBody.Description)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, listing)
}

// RecordAssetSale soma quantity a number_of_tokens_sold do anúncio.
// PATCH /v1/database/token/record-asset-sale
func (h *AssetHandler) RecordAssetSale(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		AssetListingID string `json:"asset_listing_id"`
		Quantity       int64  `json:"quantity"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	listing, err := h.Catalog.RecordSale(r.Context(), requestBody.AssetListingID, requestBody.Quantity)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, listing)
}

// DeleteAssetListing remove um anúncio de ativo.
// DELETE /v1/database/token/delete-asset-listing/{id}
func (h *AssetHandler) DeleteAssetListing(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Catalog.DeleteAssetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, deletedResponse{Deleted: deleted})
}

// DeleteTokenListing remove um anúncio de token.
// DELETE /v1/database/token/delete-token-listing/{id}
func (h *AssetHandler) DeleteTokenListing(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Catalog.DeleteTokenListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, deletedResponse{Deleted: deleted})
}
