package httptransport

import (
	"net/http"
)

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	client, _, release, ok := h.dirClient(w, r)
	if !ok {
		return
	}
	defer release()
	rec, err := client.WhoAmI(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if username, ok := rec["username"].(string); ok {
		rec["uri"] = userURI(r, username)
	}
	h.writeResult(w, rec, nil)
}
