package handlers

import (
	"net/http"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LocationHandler lida com os locais onde os vendedores operam.
type LocationHandler struct {
	Registry *services.Registry
	logger   *zap.Logger
}

// NewLocationHandler cria uma nova instância do handler de locais.
func NewLocationHandler(registry *services.Registry, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{Registry: registry, logger: logger}
}

// CreateLocation cria um local ligado aos vendedores informados.
// POST /v1/database/user/create-location
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		VendorIDs []string `json:"vendor_ids"`
		models.Address
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	loc, err := h.Registry.CreateLocation(r.Context(), requestBody.VendorIDs, requestBody.Address)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, loc)
}

// AddVendorLocation liga um vendedor a um local existente.
// POST /v1/database/user/add-vendor-location
func (h *LocationHandler) AddVendorLocation(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		LocationID string `json:"location_id"`
		VendorID   string `json:"vendor_id"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	if err := h.Registry.AddVendorToLocation(r.Context(), requestBody.LocationID, requestBody.VendorID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, updatedResponse{Updated: true})
}

// GetLocation obtém um local pelo ID.
// GET /v1/database/user/get-location/{id}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	loc, found, err := h.Registry.GetLocation(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !found {
		writeNotFound(w, r, "local", id)
		return
	}
	WriteSuccess(w, http.StatusOK, loc)
}

// UpdateVendorLocation substitui o endereço de um local.
// PATCH /v1/database/user/update-vendor-location
func (h *LocationHandler) UpdateVendorLocation(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		LocationID string `json:"location_id"`
		models.Address
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	loc, err := h.Registry.UpdateVendorLocation(r.Context(), requestBody.LocationID, requestBody.Address)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, loc)
}

// DeleteLocation remove um local.
// DELETE /v1/database/user/delete-location/{id}
func (h *LocationHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Registry.DeleteLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, deletedResponse{Deleted: deleted})
}
