package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/storefront/order/internal/service/apperr"
)

// ErrorBody is the uniform error payload.
type ErrorBody struct {
	Error string      `json:"error"`
	Code  apperr.Code `json:"code"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Error sending response", "error", err)
	}
}

// WriteError renders err as an ErrorBody. Errors without a code are
// reported as SERVER_001 and their text is never sent.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)

	WriteJSON(w, r, apperr.HTTPStatus(appErr.Code), ErrorBody{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}

// Unauthorized answers with AUTH_001.
func Unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	slog.WarnContext(r.Context(), "Unauthenticated request", "path", r.URL.Path, "error", err)
	WriteError(w, r, apperr.Wrap(apperr.CodeUnauthenticated, err))
}

// InternalError answers with SERVER_001.
func InternalError(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, apperr.New(apperr.CodeServer))
}
