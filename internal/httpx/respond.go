package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/petalandstem/storefront/internal/auth"
	"github.com/petalandstem/storefront/internal/shop"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body into dst. Malformed input is a
// validation failure, not a server error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &shop.ValidationError{Msg: "request body is required"}
		}
		return &shop.ValidationError{Msg: "invalid json"}
	}
	return nil
}

// fail maps err onto a status code. Anything unclassified is logged and
// reported as a bare 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *shop.ValidationError
	switch {
	case errors.As(err, &ve):
		writeMessage(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, auth.ErrPasswordMismatch), errors.Is(err, auth.ErrWeakPassword):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, shop.ErrNotFound), errors.Is(err, auth.ErrAdminNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, shop.ErrConflict), errors.Is(err, auth.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, "already exists")
	default:
		s.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
