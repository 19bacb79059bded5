package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = apperror.New(apperror.InvalidInput, "invalid JSON body")

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}

// respondError renders err through the error taxonomy. Causes of server
// errors are logged and never sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if apperror.KindOf(err) == apperror.ServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	apperror.WriteJSON(w, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Wrap(apperror.InvalidInput, "request body is required", err)
		}
		return apperror.Wrap(apperror.InvalidInput, errInvalidBody.Message, err)
	}
	return nil
}
