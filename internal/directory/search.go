package directory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// nativePageSize is the batch size for the directory's own cursor paging.
// It bounds per-round-trip memory, not the logical result set.
const nativePageSize = 1000

// Conn is the slice of the LDAP connection the search engine needs. It is
// satisfied by *ldap.Conn and by scripted fakes in tests.
type Conn interface {
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	WhoAmI(controls []ldap.Control) (*ldap.WhoAmIResult, error)
	Close() error
}

// Client executes logical queries against one bound directory connection.
// It is not safe for concurrent use of the same underlying connection by
// multiple goroutines; the connection provider decides the sharing policy.
type Client struct {
	conn      Conn
	baseDN    string
	log       *slog.Logger
	roundTrip func()
}

type Option func(*Client)

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRoundTripObserver registers a callback invoked once per directory
// round trip, used to feed metrics without importing them here.
func WithRoundTripObserver(fn func()) Option {
	return func(c *Client) { c.roundTrip = fn }
}

func NewClient(conn Conn, baseDN string, opts ...Option) *Client {
	c := &Client{
		conn:   conn,
		baseDN: baseDN,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// searchOpts parameterizes one logical query. Zero values fall back to the
// model's subtree, filter and default attribute list.
type searchOpts struct {
	subDN      string
	filter     string
	attrs      []string
	scope      int // defaults to whole-subtree
	pageSize   int
	pageNumber int
}

// search runs a logical query and hides two layers of pagination: the
// server's cursor paging, which is walked transparently for every query,
// and the stateless page_size/page_number model requested by web clients.
//
// The server cursor is bound to the physical connection that issued the
// query, so it cannot back a web pagination scheme where consecutive HTTP
// requests may hit different connections. Instead, when a page is
// requested, the engine first enumerates only the primary keys of the full
// result set (cheap, keys-only projection), slices that list into the
// requested page, and then fetches full attributes for exactly the keys on
// the page. Total is taken from the first phase, so it stays exact and
// connection-independent.
//
// There is no consistency guarantee between the two phases: entries may
// appear or vanish in between, so a page can come back with fewer items
// than page_size.
func (c *Client) search(ctx context.Context, m *Model, o searchOpts) (*Result, error) {
	subDN := o.subDN
	if subDN == "" {
		subDN = m.SubDN
	}
	base := subDN + "," + c.baseDN
	filter := o.filter
	if filter == "" {
		filter = m.Filter
	}
	scope := o.scope
	if scope == 0 {
		scope = ldap.ScopeWholeSubtree
	}
	pageNumber := max(o.pageNumber, 1)

	total := -1
	if o.pageSize > 0 {
		keys, err := c.searchAllPages(ctx, base, scope, filter, []string{m.PrimaryKey})
		if err != nil {
			return nil, err
		}
		total = len(keys)
		first := min((pageNumber-1)*o.pageSize, total)
		last := min(first+o.pageSize, total)
		page := keys[first:last]
		if len(page) == 0 {
			// Page beyond the result set: report the total without a
			// second query.
			return &Result{
				Items:      []Record{},
				Total:      total,
				PageSize:   o.pageSize,
				PageNumber: pageNumber,
			}, nil
		}
		var b strings.Builder
		b.WriteString("(&")
		b.WriteString(filter)
		b.WriteString("(|")
		for _, entry := range page {
			key := entry.GetAttributeValue(m.PrimaryKey)
			b.WriteString("(" + m.PrimaryKey + "=" + ldap.EscapeFilter(key) + ")")
		}
		b.WriteString("))")
		filter = b.String()
	}

	attrs := o.attrs
	if attrs == nil {
		attrs = m.LDAPAttrs()
	}
	entries, err := c.searchAllPages(ctx, base, scope, filter, attrs)
	if err != nil {
		return nil, err
	}
	items := make([]Record, 0, len(entries))
	for _, entry := range entries {
		rec, err := m.DecodeEntry(entry)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if total < 0 {
		total = len(items)
	}
	return &Result{
		Items:      items,
		Total:      total,
		PageSize:   o.pageSize,
		PageNumber: pageNumber,
	}, nil
}

// searchAllPages runs one search and follows the server's paging cookie
// until the result set is exhausted. A response without a recognizable
// paging control means the server answered in one round trip.
//
// A no-such-object result for the search base is reported as an empty
// result set: lookups by primary key address a DN directly and "absent" is
// a valid answer there, not a failure.
func (c *Client) searchAllPages(ctx context.Context, base string, scope int, filter string, attrs []string) ([]*ldap.Entry, error) {
	paging := ldap.NewControlPaging(nativePageSize)
	var entries []*ldap.Entry
	for {
		req := ldap.NewSearchRequest(
			base, scope, ldap.NeverDerefAliases, 0, 0, false,
			filter, attrs, []ldap.Control{paging},
		)
		if c.roundTrip != nil {
			c.roundTrip()
		}
		res, err := c.conn.Search(req)
		if err != nil {
			if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
				return nil, nil
			}
			return nil, wrapLDAP("search "+base, err)
		}
		entries = append(entries, res.Entries...)
		c.log.DebugContext(ctx, "directory round trip",
			"base", base,
			"entries", len(res.Entries),
		)
		ctrl, ok := ldap.FindControl(res.Controls, ldap.ControlTypePaging).(*ldap.ControlPaging)
		if !ok || len(ctrl.Cookie) == 0 {
			return entries, nil
		}
		paging.SetCookie(ctrl.Cookie)
	}
}
