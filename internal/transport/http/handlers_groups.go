package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dirgate/internal/directory"
)

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
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
	if h.metrics != nil {
		h.metrics.IncSearches("group")
	}
	res, err := client.GetGroups(r.Context(), mask, page.Size, page.Number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResult(w, projectGroups(r, res.Items, mask), pageBlock(r, res))
}

func (h *Handler) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupname := chi.URLParam(r, "groupname")
	client, _, release, ok := h.dirClient(w, r)
	if !ok {
		return
	}
	defer release()
	mask := parseMask(r)
	if h.metrics != nil {
		h.metrics.IncSearches("group")
	}
	rec, err := client.GetGroup(r.Context(), groupname, mask)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rec == nil {
		h.writeAPIError(w, http.StatusNotFound, "Group not found", map[string]any{"name": groupname})
		return
	}
	h.writeResult(w, project(directory.GroupModel, rec, mask, groupURI(r, groupname), nil), nil)
}

// requireGroup answers the existence precheck shared by the member-scoped
// endpoints. It returns false once a response has been written.
func (h *Handler) requireGroup(w http.ResponseWriter, r *http.Request, client *directory.Client, groupname string) bool {
	group, err := client.GetGroup(r.Context(), groupname, []string{"groupname"})
	if err != nil {
		h.writeError(w, r, err)
		return false
	}
	if group == nil {
		h.writeAPIError(w, http.StatusNotFound, "Group not found", map[string]any{"name": groupname})
		return false
	}
	return true
}

func (h *Handler) handleGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupname := chi.URLParam(r, "groupname")
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
	if !h.requireGroup(w, r, client, groupname) {
		return
	}
	mask := parseMask(r)
	if mask == nil {
		// Member listings default to a name-and-uri shape.
		mask = []string{"username"}
	}
	if h.metrics != nil {
		h.metrics.IncSearches("user")
	}
	res, err := client.GetGroupMembers(r.Context(), groupname, mask, page.Size, page.Number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResult(w, projectUsers(r, res.Items, mask, requester), pageBlock(r, res))
}

func (h *Handler) handleGroupSponsors(w http.ResponseWriter, r *http.Request) {
	groupname := chi.URLParam(r, "groupname")
	client, requester, release, ok := h.dirClient(w, r)
	if !ok {
		return
	}
	defer release()
	if !h.requireGroup(w, r, client, groupname) {
		return
	}
	mask := parseMask(r)
	if mask == nil {
		mask = []string{"username"}
	}
	if h.metrics != nil {
		h.metrics.IncSearches("user")
	}
	sponsors, err := client.GetGroupSponsors(r.Context(), groupname, mask)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResult(w, projectUsers(r, sponsors, mask, requester), nil)
}

func (h *Handler) handleIsMember(w http.ResponseWriter, r *http.Request) {
	groupname := chi.URLParam(r, "groupname")
	username := chi.URLParam(r, "username")
	client, _, release, ok := h.dirClient(w, r)
	if !ok {
		return
	}
	defer release()
	if !h.requireGroup(w, r, client, groupname) {
		return
	}
	member, err := client.CheckMembership(r.Context(), groupname, username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResult(w, member, nil)
}
