package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ferreirogomes/eden/services"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse é o corpo de toda resposta de erro.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// WriteError escreve uma resposta de erro padronizada.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		TraceID: middleware.GetReqID(r.Context()),
	})
}

// WriteSuccess escreve data como JSON com o status informado.
func WriteSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeServiceError traduz os erros dos serviços em status HTTP.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, &services.InvalidArgumentError{}):
		WriteError(w, r, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, &services.NotFoundError{}):
		WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, &services.ConflictError{}):
		WriteError(w, r, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, &services.InsufficientFundsError{}):
		WriteError(w, r, http.StatusUnprocessableEntity, "insufficient_funds", err.Error())
	default:
		logger.Error("erro interno ao atender requisição",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		WriteError(w, r, http.StatusInternalServerError, "internal", "erro interno")
	}
}

func writeNotFound(w http.ResponseWriter, r *http.Request, what, id string) {
	WriteError(w, r, http.StatusNotFound, "not_found", fmt.Sprintf("%s %s não encontrado", what, id))
}

// decodeBody lê o corpo JSON em dst, respondendo 400 em caso de erro.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_body", "corpo JSON inválido: "+err.Error())
		return false
	}
	return true
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
}

type updatedResponse struct {
	Updated bool `json:"updated"`
}
