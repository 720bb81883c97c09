package handlers

import (
	"net/http"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler lida com requisições HTTP relacionadas a usuários e vendedores.
type UserHandler struct {
	Registry *services.Registry
	logger   *zap.Logger
}

// NewUserHandler cria uma nova instância do handler de usuários.
func NewUserHandler(registry *services.Registry, logger *zap.Logger) *UserHandler {
	return &UserHandler{Registry: registry, logger: logger}
}

type actorRequest struct {
	WalletAddress string `json:"wallet_address"`
	Username      string `json:"username"`
	Hash          string `json:"hash"`
}

// parseActor converte o ID público em ActorRef, respondendo 400 se for inválido.
func parseActor(w http.ResponseWriter, r *http.Request, id string) (models.ActorRef, bool) {
	ref, err := models.ParseActorRef(id)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", err.Error())
		return models.ActorRef{}, false
	}
	return ref, true
}

// CreateUser cria um novo usuário.
// POST /v1/database/user/create-user
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var requestBody actorRequest
	if !decodeBody(w, r, &requestBody) {
		return
	}
	if requestBody.Username == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_argument", "username é obrigatório")
		return
	}

	user, err := h.Registry.CreateUser(r.Context(), requestBody.WalletAddress, requestBody.Username, requestBody.Hash)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, user)
}

// CreateVendor cria um novo vendedor.
// POST /v1/database/user/create-vendor
func (h *UserHandler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var requestBody actorRequest
	if !decodeBody(w, r, &requestBody) {
		return
	}
	if requestBody.Username == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_argument", "username é obrigatório")
		return
	}

	vendor, err := h.Registry.CreateVendor(r.Context(), requestBody.WalletAddress, requestBody.Username, requestBody.Hash)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, vendor)
}

// GetUser obtém um usuário ou vendedor pelo ID público.
// GET /v1/database/user/get-user/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ref, ok := parseActor(w, r, id)
	if !ok {
		return
	}

	var (
		actor any
		found bool
		err   error
	)
	if ref.Kind == models.VendorActor {
		actor, found, err = h.Registry.GetVendor(r.Context(), ref.ID)
	} else {
		actor, found, err = h.Registry.GetUser(r.Context(), ref.ID)
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !found {
		writeNotFound(w, r, ref.Kind.String(), id)
		return
	}
	WriteSuccess(w, http.StatusOK, actor)
}

// UpdateUsername renomeia um usuário ou vendedor.
// PATCH /v1/database/user/update-username
func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}
	ref, ok := parseActor(w, r, requestBody.ID)
	if !ok {
		return
	}

	if err := h.Registry.UpdateUsername(r.Context(), ref, requestBody.Username); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, updatedResponse{Updated: true})
}

// UpdateWalletAddress troca a carteira de um usuário ou vendedor.
// PATCH /v1/database/user/update-wallet-address
func (h *UserHandler) UpdateWalletAddress(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		ID            string `json:"id"`
		WalletAddress string `json:"wallet_address"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}
	ref, ok := parseActor(w, r, requestBody.ID)
	if !ok {
		return
	}

	if err := h.Registry.UpdateWalletAddress(r.Context(), ref, requestBody.WalletAddress); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, updatedResponse{Updated: true})
}

// DeleteUser remove um usuário, ou um vendedor junto com suas referências em locais.
// DELETE /v1/database/user/delete-user/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseActor(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var (
		deleted bool
		err     error
	)
	if ref.Kind == models.VendorActor {
		deleted, err = h.Registry.DeleteVendor(r.Context(), ref.ID)
	} else {
		deleted, err = h.Registry.DeleteUser(r.Context(), ref.ID)
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, deletedResponse{Deleted: deleted})
}
