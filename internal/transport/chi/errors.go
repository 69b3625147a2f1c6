package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
)

// ErrorCode is the machine-readable error code in JSON error bodies.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest                ErrorCode = "bad_request"
	CodeValidationFailed          ErrorCode = "validation_failed"
	CodeUnauthorized              ErrorCode = "unauthorized"
	CodeNotFound                  ErrorCode = "not_found"
	CodeEmbeddingQuotaExceeded    ErrorCode = "embedding_quota_exceeded"
	CodeEmbeddingProviderError    ErrorCode = "embedding_provider_error"
	CodeCandidateStoreUnavailable ErrorCode = "candidate_store_unavailable"
	CodeCacheUnavailable          ErrorCode = "cache_unavailable"
	CodeInternalError             ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	invalidRequestHandler,
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusTooManyRequests, CodeEmbeddingQuotaExceeded),
	sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	sentinelHandler(domain.ErrCandidateStoreUnavailable,
		http.StatusServiceUnavailable, CodeCandidateStoreUnavailable),
	sentinelHandler(domain.ErrCacheUnavailable, http.StatusServiceUnavailable, CodeCacheUnavailable),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The body carries only the sentinel text, never wrapped internals.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// invalidRequestHandler echoes the validation message, which is built from
// request fields only.
func invalidRequestHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range errorHandlers {
		if h(w, err) {
			s.logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
