package directory

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

var (
	groupDNRe = regexp.MustCompile("^cn=([^,]+)")
	userDNRe  = regexp.MustCompile("^uid=([^,]+)")
)

// GetUsers lists user entries. attrs is a set of domain field names to
// restrict the fetch to, or nil for the model default.
func (c *Client) GetUsers(ctx context.Context, attrs []string, pageSize, pageNumber int) (*Result, error) {
	return c.search(ctx, UserModel, searchOpts{
		attrs:      UserModel.AttrsToLDAP(attrs),
		pageSize:   pageSize,
		pageNumber: pageNumber,
	})
}

// GetUser fetches a single user by name. A missing user is (nil, nil), not
// an error; the HTTP layer owns the 404 decision.
func (c *Client) GetUser(ctx context.Context, username string, attrs []string) (Record, error) {
	res, err := c.search(ctx, UserModel, searchOpts{
		subDN: UserModel.SubDNFor(username),
		scope: ldap.ScopeBaseObject,
		attrs: UserModel.AttrsToLDAP(attrs),
	})
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, nil
	}
	return res.Items[0], nil
}

// GetUserGroups lists the groups a user belongs to, resolved from the
// user's membership back-references. Returns (nil, nil) when the user does
// not exist.
func (c *Client) GetUserGroups(ctx context.Context, username string, attrs []string, pageSize, pageNumber int) (*Result, error) {
	user, err := c.GetUser(ctx, username, []string{"memberof"})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	memberOf, _ := user["memberof"].([]string)
	suffix := "," + GroupModel.SubDN + "," + c.baseDN
	var rdns []string
	for _, dn := range memberOf {
		// Only group entries; users can also be members of other trees.
		if !strings.HasSuffix(dn, suffix) {
			continue
		}
		rdn, _, _ := strings.Cut(dn, ",")
		attr, value, ok := strings.Cut(rdn, "=")
		if !ok {
			continue
		}
		// Filter metacharacters are legal in a DN value.
		rdns = append(rdns, "("+attr+"="+ldap.EscapeFilter(value)+")")
	}
	if len(rdns) == 0 {
		return &Result{
			Items:      []Record{},
			Total:      0,
			PageSize:   pageSize,
			PageNumber: pageNumber,
		}, nil
	}
	filter := "(&" + GroupModel.Filter + "(|" + strings.Join(rdns, "") + "))"
	return c.search(ctx, GroupModel, searchOpts{
		filter:     filter,
		attrs:      GroupModel.AttrsToLDAP(attrs),
		pageSize:   pageSize,
		pageNumber: pageNumber,
	})
}

// GetUserAgreements lists the agreements a user has signed.
func (c *Client) GetUserAgreements(ctx context.Context, username string, pageSize, pageNumber int) (*Result, error) {
	dn := UserModel.SubDNFor(username) + "," + c.baseDN
	filter := "(&(memberUser=" + ldap.EscapeFilter(dn) + ")" + AgreementModel.Filter + ")"
	return c.search(ctx, AgreementModel, searchOpts{
		filter:     filter,
		pageSize:   pageSize,
		pageNumber: pageNumber,
	})
}

// GetGroups lists group entries.
func (c *Client) GetGroups(ctx context.Context, attrs []string, pageSize, pageNumber int) (*Result, error) {
	return c.search(ctx, GroupModel, searchOpts{
		attrs:      GroupModel.AttrsToLDAP(attrs),
		pageSize:   pageSize,
		pageNumber: pageNumber,
	})
}

// GetGroup fetches a single group by name, (nil, nil) when absent.
func (c *Client) GetGroup(ctx context.Context, groupname string, attrs []string) (Record, error) {
	res, err := c.search(ctx, GroupModel, searchOpts{
		subDN: GroupModel.SubDNFor(groupname),
		scope: ldap.ScopeBaseObject,
		attrs: GroupModel.AttrsToLDAP(attrs),
	})
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, nil
	}
	return res.Items[0], nil
}

// GetGroupMembers lists the user entries that are members of a group. When
// no attribute subset is requested, only the primary key is fetched since
// member listings default to a name-and-uri shape.
func (c *Client) GetGroupMembers(ctx context.Context, groupname string, attrs []string, pageSize, pageNumber int) (*Result, error) {
	groupDN := GroupModel.SubDNFor(groupname) + "," + c.baseDN
	filter := "(&(memberOf=" + ldap.EscapeFilter(groupDN) + ")" + UserModel.Filter + ")"
	ldapAttrs := UserModel.AttrsToLDAP(attrs)
	if len(ldapAttrs) == 0 {
		ldapAttrs = []string{UserModel.PrimaryKey}
	}
	return c.search(ctx, UserModel, searchOpts{
		filter:     filter,
		attrs:      ldapAttrs,
		pageSize:   pageSize,
		pageNumber: pageNumber,
	})
}

// GetGroupSponsors lists the users managing a group. Sponsorship is stored
// as memberManager DN references which may point at users or at groups; a
// group reference is expanded to that group's direct members, one level
// only.
func (c *Client) GetGroupSponsors(ctx context.Context, groupname string, attrs []string) ([]Record, error) {
	filter := "(&(objectClass=fasGroup)(cn=" + ldap.EscapeFilter(groupname) + "))"
	res, err := c.search(ctx, SponsorModel, searchOpts{
		subDN:  GroupModel.SubDNFor(groupname),
		filter: filter,
		attrs:  []string{"memberManager"},
	})
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return []Record{}, nil
	}
	sponsors, _ := res.Items[0]["sponsors"].([]string)
	if len(sponsors) == 0 {
		return []Record{}, nil
	}

	usernames := map[string]struct{}{}
	for _, dn := range sponsors {
		if m := groupDNRe.FindStringSubmatch(dn); m != nil {
			members, err := c.GetGroupMembers(ctx, m[1], []string{"username"}, 0, 1)
			if err != nil {
				return nil, err
			}
			for _, member := range members.Items {
				if name, ok := member["username"].(string); ok {
					usernames[name] = struct{}{}
				}
			}
		}
		if m := userDNRe.FindStringSubmatch(dn); m != nil {
			usernames[m[1]] = struct{}{}
		}
	}
	if len(usernames) == 0 {
		return []Record{}, nil
	}

	var b strings.Builder
	b.WriteString("(&(objectClass=fasUser)(|")
	for name := range usernames {
		b.WriteString("(uid=" + ldap.EscapeFilter(name) + ")")
	}
	b.WriteString("))")

	ldapAttrs := UserModel.AttrsToLDAP(attrs)
	if len(ldapAttrs) == 0 {
		ldapAttrs = []string{UserModel.PrimaryKey}
	}
	users, err := c.search(ctx, UserModel, searchOpts{
		filter: b.String(),
		attrs:  ldapAttrs,
	})
	if err != nil {
		return nil, err
	}
	return users.Items, nil
}

// CheckMembership reports whether a user is a direct member of a group.
func (c *Client) CheckMembership(ctx context.Context, groupname, username string) (bool, error) {
	groupDN := GroupModel.SubDNFor(groupname) + "," + c.baseDN
	filter := "(&(memberOf=" + ldap.EscapeFilter(groupDN) + ")" +
		UserModel.Filter +
		"(uid=" + ldap.EscapeFilter(username) + "))"
	res, err := c.search(ctx, UserModel, searchOpts{
		filter: filter,
		attrs:  []string{UserModel.PrimaryKey},
	})
	if err != nil {
		return false, err
	}
	switch n := len(res.Items); n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("unexpected result count %d for %s in %s", n, username, groupname)
	}
}

// SearchUsers runs a criteria search over user entries.
func (c *Client) SearchUsers(ctx context.Context, attrs []string, crit SearchCriteria, pageSize, pageNumber int) (*Result, error) {
	filter := buildSearchFilter(UserModel, c.baseDN, crit)
	return c.search(ctx, UserModel, searchOpts{
		filter:     filter,
		attrs:      UserModel.AttrsToLDAP(attrs),
		pageSize:   pageSize,
		pageNumber: pageNumber,
	})
}

// WhoAmI reports the identity the connection is bound as, parsed from the
// authorization DN.
func (c *Client) WhoAmI(ctx context.Context) (Record, error) {
	res, err := c.conn.WhoAmI(nil)
	if err != nil {
		return nil, wrapLDAP("whoami", err)
	}
	dn := strings.TrimPrefix(res.AuthzID, "dn:")
	rec := Record{"dn": dn}
	for _, part := range strings.Split(dn, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch key {
		case "uid":
			rec["username"] = value
		case "krbprincipalname":
			rec["service"], _, _ = strings.Cut(value, "@")
		}
	}
	return rec, nil
}
