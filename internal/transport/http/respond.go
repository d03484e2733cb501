package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"dirgate/internal/directory"
	"dirgate/internal/ipa"
	"dirgate/internal/platform/middleware"
)

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeResult emits the {"result": ...} envelope, with a "page" block
// alongside when the query was paginated.
func (h *Handler) writeResult(w http.ResponseWriter, result any, page map[string]any) {
	body := map[string]any{"result": result}
	if page != nil {
		body["page"] = page
	}
	h.writeJSON(w, http.StatusOK, body)
}

// writeAPIError emits the {"error": {"message": ..., "data": ...}} envelope.
func (h *Handler) writeAPIError(w http.ResponseWriter, status int, message string, data map[string]any) {
	if h.metrics != nil {
		h.metrics.IncRequestErrors("client")
	}
	h.writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": message, "data": data},
	})
}

// writeError maps internal failures to status codes. The mapping is a pure
// function of the error kind; directory errors are never folded into empty
// results since that would corrupt pagination totals.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal error"

	var ipaErr *ipa.Error
	switch {
	case errors.As(err, &ipaErr):
		if ipaErr.Code == ipa.ErrCodeCertNotFound {
			h.writeAPIError(w, http.StatusNotFound, "Certificate not found", map[string]any{
				"server_message": ipaErr.Message,
			})
			return
		}
		message = "Certificate authority error"
	default:
		switch directory.KindOf(err) {
		case directory.KindUnavailable:
			status = http.StatusServiceUnavailable
			message = "Directory server is unavailable"
			// A dead cached connection stays dead; drop it so the next
			// request re-binds instead of failing the same way.
			if ev, ok := h.provider.(evictor); ok {
				ev.Evict(middleware.GetPrincipal(r.Context()))
			}
		case directory.KindLocal:
			message = "Directory error"
		case directory.KindDecode:
			message = "Directory schema mismatch"
		}
	}

	if h.metrics != nil {
		kind := directory.KindOf(err)
		if kind != 0 {
			h.metrics.IncRequestErrors(kind.String())
		} else {
			h.metrics.IncRequestErrors("internal")
		}
	}
	h.logger.ErrorContext(r.Context(), "request failed",
		"error", err,
		"path", r.URL.Path,
	)
	h.writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": message},
	})
}
