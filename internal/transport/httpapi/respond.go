package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// Error codes callers can branch on. no_embedding in particular signals
// "trigger embedding creation first", distinct from generic failures.
const (
	codeBadRequest        = "bad_request"
	codeInvalidInput      = "invalid_input"
	codeNoEmbedding       = "no_embedding"
	codeProductNotFound   = "product_not_found"
	codeDimensionMismatch = "dimension_mismatch"
	codeProviderFailure   = "provider_failure"
	codeParseFailure      = "model_parse_failure"
	codeInternal          = "internal_error"
	codeUnauthorized      = "unauthorized"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if errors.Is(err, sentinel) {
			writeError(w, status, code, err.Error())
			return true
		}
		return false
	}
}

// domainErrorHandlers maps sentinel errors to HTTP statuses, most specific
// first.
var domainErrorHandlers = []errorHandler{
	sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, codeProductNotFound),
	sentinelHandler(domain.ErrNoEmbedding, http.StatusConflict, codeNoEmbedding),
	sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeInvalidInput),
	sentinelHandler(domain.ErrParseFailure, http.StatusBadGateway, codeParseFailure),
	sentinelHandler(domain.ErrProviderFailure, http.StatusBadGateway, codeProviderFailure),
	sentinelHandler(domain.ErrDimensionMismatch, http.StatusInternalServerError, codeDimensionMismatch),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
