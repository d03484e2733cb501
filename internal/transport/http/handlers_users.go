package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dirgate/internal/directory"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, h.maxPageSize)
	if err != nil {
		h.writeAPIError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	client, requester, release, ok := h.dirClient(w, r)
	if !ok {
		return
	}
	defer release()
	mask := parseMask(r)
	if h.metrics != nil {
		h.metrics.IncSearches("user")
	}
	res, err := client.GetUsers(r.Context(), mask, page.Size, page.Number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResult(w, projectUsers(r, res.Items, mask, requester), pageBlock(r, res))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	client, requester, release, ok := h.dirClient(w, r)
	if !ok {
		return
	}
	defer release()
	mask := parseMask(r)
	if h.metrics != nil {
		h.metrics.IncSearches("user")
	}
	rec, err := client.GetUser(r.Context(), username, mask)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rec == nil {
		h.writeAPIError(w, http.StatusNotFound, "User not found", map[string]any{"name": username})
		return
	}
	rec = directory.Anonymize(rec, requester)
	h.writeResult(w, project(directory.UserModel, rec, mask, userURI(r, username), userDefaults), nil)
}

func (h *Handler) handleUserGroups(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	page, err := parsePage(r, h.maxPageSize)
	if err != nil {
		h.writeAPIError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	client, _, release, ok := h.dirClient(w, r)
	if !ok {
		return
	}
	defer release()
	mask := parseMask(r)
	if mask == nil {
		// Group listings under a user default to a name-and-uri shape.
		mask = []string{"groupname"}
	}
	if h.metrics != nil {
		h.metrics.IncSearches("group")
	}
	res, err := client.GetUserGroups(r.Context(), username, mask, page.Size, page.Number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res == nil {
		h.writeAPIError(w, http.StatusNotFound, "User does not exist", map[string]any{"name": username})
		return
	}
	h.writeResult(w, projectGroups(r, res.Items, mask), pageBlock(r, res))
}

func (h *Handler) handleUserAgreements(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	page, err := parsePage(r, h.maxPageSize)
	if err != nil {
		h.writeAPIError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	client, _, release, ok := h.dirClient(w, r)
	if !ok {
		return
	}
	defer release()
	user, err := client.GetUser(r.Context(), username, []string{"username"})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if user == nil {
		h.writeAPIError(w, http.StatusNotFound, "User does not exist", map[string]any{"name": username})
		return
	}
	if h.metrics != nil {
		h.metrics.IncSearches("agreement")
	}
	res, err := client.GetUserAgreements(r.Context(), username, page.Size, page.Number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items := make([]map[string]any, 0, len(res.Items))
	for _, rec := range res.Items {
		items = append(items, project(directory.AgreementModel, rec, nil, "", nil))
	}
	h.writeResult(w, items, pageBlock(r, res))
}
