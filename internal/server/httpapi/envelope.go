package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/meanstack/internal/common"
)

type errorBody struct {
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Code    common.Code `json:"code"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeAppError(w http.ResponseWriter, e *common.AppError) {
	writeJSON(w, e.Status, envelope{Error: &errorBody{Message: e.Message, Status: e.Status, Code: e.Code}})
}

// writeError renders any error through common.ToAppError. Unexpected
// failures are logged with the request context.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := common.ToAppError(err)
	if e.Status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeAppError(w, e)
}
