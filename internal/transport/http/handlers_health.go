package httptransport

import "net/http"

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "directory unreachable",
			})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
