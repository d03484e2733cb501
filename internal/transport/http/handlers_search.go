package httptransport

import (
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"

	"dirgate/internal/directory"
)

// searchTermNames are the recognized user search criteria, in the order
// they are folded into the filter. Each also accepts an __exact variant.
var searchTermNames = []string{
	"username",
	"surname",
	"givenname",
	"human_name",
	"email",
	"ircnick",
	"group",
}

// parseSearchCriteria validates and collects search terms from the query
// string. Substring terms need at least three characters to keep searches
// from degenerating into full directory scans; group terms are exempt since
// they match exactly. Zero terms is a client error; the filter builder
// never sees an empty search.
func parseSearchCriteria(r *http.Request) (directory.SearchCriteria, string, bool) {
	q := r.URL.Query()
	var crit directory.SearchCriteria

	for _, name := range searchTermNames {
		for _, key := range []string{name, name + "__exact"} {
			values := q[key]
			var kept []string
			for _, v := range values {
				if v == "" {
					continue
				}
				if !govalidator.StringLength(v, "1", "255") {
					return crit, key + " is too long", false
				}
				if name != "group" && !govalidator.StringLength(v, "3", "255") {
					return crit, key + " must be at least 3 characters long", false
				}
				kept = append(kept, v)
			}
			if len(kept) > 0 {
				crit.Terms = append(crit.Terms, directory.Term{Name: key, Values: kept})
			}
		}
	}

	if v := q.Get("creation__before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			t, err = time.Parse("2006-01-02", v)
		}
		if err != nil {
			return crit, "creation__before must be an ISO 8601 date or datetime", false
		}
		crit.CreationBefore = &t
	}

	if len(crit.Terms) == 0 && crit.CreationBefore == nil {
		return crit, "at least one search term is required", false
	}
	return crit, "", true
}

func (h *Handler) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, h.maxSearchPageSize)
	if err != nil {
		h.writeAPIError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	crit, message, ok := parseSearchCriteria(r)
	if !ok {
		h.writeAPIError(w, http.StatusBadRequest, message, nil)
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
	res, err := client.SearchUsers(r.Context(), mask, crit, page.Size, page.Number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResult(w, projectUsers(r, res.Items, mask, requester), pageBlock(r, res))
}
