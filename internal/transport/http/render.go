package httptransport

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"dirgate/internal/directory"
)

// maskHeader is the client-supplied field mask: a comma-separated list of
// field names, optionally wrapped in braces.
const maskHeader = "X-Fields"

// parseMask returns the requested field names, or nil when the client did
// not restrict the output. "*" means everything and also maps to nil.
func parseMask(r *http.Request) []string {
	mask := strings.TrimSpace(r.Header.Get(maskHeader))
	mask = strings.TrimPrefix(mask, "{")
	mask = strings.TrimSuffix(mask, "}")
	if mask == "" || mask == "*" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(mask, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// project reduces a record to the masked field set, or to the model's full
// default set when no mask is given. Unknown mask names are dropped, never
// an error. The derived uri field is always attached; defaults fill fields
// the directory had no value for.
func project(m *directory.Model, rec directory.Record, mask []string, uri string, defaults map[string]any) map[string]any {
	out := make(map[string]any)
	fill := func(name string) {
		if v, ok := rec[name]; ok {
			out[name] = v
		} else if d, ok := defaults[name]; ok {
			out[name] = d
		} else {
			out[name] = nil
		}
	}
	if mask == nil {
		for _, f := range m.Fields {
			if slices.Contains(m.Hidden, f.Name) {
				continue
			}
			fill(f.Name)
		}
	} else {
		for _, name := range mask {
			if knownField(m, name) {
				fill(name)
			}
		}
	}
	if uri != "" {
		out["uri"] = uri
	}
	return out
}

func knownField(m *directory.Model, name string) bool {
	for _, f := range m.Fields {
		if f.Name == name && !slices.Contains(m.Hidden, f.Name) {
			return true
		}
	}
	return false
}

// pageBlock renders pagination metadata for a paginated result, nil for an
// unpaginated one.
func pageBlock(r *http.Request, res *directory.Result) map[string]any {
	if res.PageSize == 0 {
		return nil
	}
	totalPages := (res.Total + res.PageSize - 1) / res.PageSize
	page := map[string]any{
		"total_results": res.Total,
		"page_size":     res.PageSize,
		"page_number":   res.PageNumber,
		"total_pages":   totalPages,
	}
	if res.PageNumber < totalPages {
		page["next_page"] = fmt.Sprintf("%s%s?page_size=%d&page_number=%d",
			externalBase(r), r.URL.Path, res.PageSize, res.PageNumber+1)
	}
	return page
}

// externalBase reconstructs the externally visible scheme and host, taking
// the front proxy's forwarded protocol into account.
func externalBase(r *http.Request) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func userURI(r *http.Request, username string) string {
	return externalBase(r) + "/v1/users/" + url.PathEscape(username) + "/"
}

func groupURI(r *http.Request, groupname string) string {
	return externalBase(r) + "/v1/groups/" + url.PathEscape(groupname) + "/"
}

func certURI(r *http.Request, serialNumber any) string {
	return fmt.Sprintf("%s/v1/certs/%v/", externalBase(r), serialNumber)
}

// userDefaults backfills fields that read naturally as false rather than
// null when the directory omits them.
var userDefaults = map[string]any{"locked": false}

// projectUsers renders a user result list, privacy redaction included.
func projectUsers(r *http.Request, items []directory.Record, mask []string, requester string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, rec := range items {
		rec = directory.Anonymize(rec, requester)
		username, _ := rec["username"].(string)
		out = append(out, project(directory.UserModel, rec, mask, userURI(r, username), userDefaults))
	}
	return out
}

func projectGroups(r *http.Request, items []directory.Record, mask []string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, rec := range items {
		groupname, _ := rec["groupname"].(string)
		out = append(out, project(directory.GroupModel, rec, mask, groupURI(r, groupname), nil))
	}
	return out
}
