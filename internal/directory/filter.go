package directory

import (
	"slices"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// exactSuffix forces exact matching when appended to a term name.
const exactSuffix = "__exact"

// Term is one user-supplied search criterion. Values holds one or more
// candidate values; multiple values expand to an OR group. A term whose
// values are all empty is skipped entirely rather than matched against the
// empty string.
type Term struct {
	Name   string
	Values []string
}

// SearchCriteria is an ordered set of search terms. Order matters only for
// determinism of the generated filter string.
type SearchCriteria struct {
	Terms []Term
	// CreationBefore restricts results to entries created before the given
	// time, compared in the directory's generalized-time encoding.
	CreationBefore *time.Time
}

// matchFilter renders one (attribute=value) condition. The value is escaped
// against filter metacharacters before the substring wildcards are added,
// so user input can never introduce wildcards or grouping of its own.
func matchFilter(attribute, value string, substring bool) string {
	value = ldap.EscapeFilter(value)
	if substring {
		value = "*" + value + "*"
	}
	return "(" + attribute + "=" + value + ")"
}

// buildSearchFilter combines the model's existence filter with a
// conjunction of per-term conditions. Unknown term names are dropped, the
// same contract as unknown field masks. Group terms are resolved to full
// group DNs before being emitted, since membership is stored as DN
// references.
func buildSearchFilter(m *Model, baseDN string, crit SearchCriteria) string {
	var b strings.Builder
	b.WriteString("(&")
	b.WriteString(m.Filter)
	b.WriteString("(&")
	for _, term := range crit.Terms {
		name := term.Name
		substring := true
		if cut, ok := strings.CutSuffix(name, exactSuffix); ok {
			name = cut
			substring = false
		}
		if slices.Contains(m.AlwaysExact, name) {
			substring = false
		}
		attribute, ok := m.SearchTerms[name]
		if !ok {
			continue
		}
		values := make([]string, 0, len(term.Values))
		for _, v := range term.Values {
			if v == "" {
				continue
			}
			if name == "group" {
				v = GroupModel.SubDNFor(v) + "," + baseDN
			}
			values = append(values, v)
		}
		switch len(values) {
		case 0:
		case 1:
			b.WriteString(matchFilter(attribute, values[0], substring))
		default:
			b.WriteString("(|")
			for _, v := range values {
				b.WriteString(matchFilter(attribute, v, substring))
			}
			b.WriteString(")")
		}
	}
	if crit.CreationBefore != nil {
		if c, ok := m.converter("creation"); ok {
			value := ldap.EscapeFilter(EncodeTime(*crit.CreationBefore))
			b.WriteString("(" + c.LDAPName() + "<=" + value + ")")
		}
	}
	b.WriteString("))")
	return b.String()
}
