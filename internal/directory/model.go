package directory

import (
	"slices"

	"github.com/go-ldap/ldap/v3"
)

// Field binds a domain field name to the converter for its directory
// attribute. Field order is preserved so attribute request lists are
// deterministic.
type Field struct {
	Name string
	Conv Converter
}

// Model is the static description of one entity kind. Models are built once
// at startup and never mutated; the search engine takes them as plain
// values, there is no dispatch hierarchy behind them.
type Model struct {
	// PrimaryKey uniquely identifies an entry within the model's subtree.
	// It is always present in Fields.
	PrimaryKey string
	// Filter scopes the entity's existence, e.g. object class and
	// not-disabled conditions.
	Filter string
	// SubDN is the subtree relative to the global base DN where entries of
	// this kind live.
	SubDN string
	Fields []Field
	// Hidden fields are never requested from the directory by default; they
	// are only fetched when named explicitly by internal callers.
	Hidden []string
	// Private fields are redacted by Anonymize when privacy applies.
	Private []string
	// SearchTerms maps search criteria names to directory attributes.
	SearchTerms map[string]string
	// AlwaysExact lists search terms that never substring-match.
	AlwaysExact []string
}

func (m *Model) converter(name string) (Converter, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Conv, true
		}
	}
	return nil, false
}

// LDAPAttrs returns the default attribute request list: every field except
// the hidden ones, in declaration order.
func (m *Model) LDAPAttrs() []string {
	attrs := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		if slices.Contains(m.Hidden, f.Name) {
			continue
		}
		attrs = append(attrs, f.Conv.LDAPName())
	}
	return attrs
}

// AttrsToLDAP maps domain field names to wire attribute names. A nil input
// means "use the model default" and maps to nil. Unknown names are silently
// dropped: field masks are client-controlled and a partial match is
// preferable to failing the whole request.
func (m *Model) AttrsToLDAP(names []string) []string {
	if names == nil {
		return nil
	}
	attrs := make([]string, 0, len(names))
	for _, name := range names {
		if c, ok := m.converter(name); ok {
			attrs = append(attrs, c.LDAPName())
		}
	}
	return attrs
}

// DecodeEntry converts a raw directory entry into a Record. Attributes the
// directory did not return are omitted from the record entirely.
func (m *Model) DecodeEntry(entry *ldap.Entry) (Record, error) {
	raw := make(map[string][][]byte, len(entry.Attributes))
	for _, attr := range entry.Attributes {
		raw[attr.Name] = attr.ByteValues
	}
	rec := make(Record, len(m.Fields))
	for _, f := range m.Fields {
		values, ok := raw[f.Conv.LDAPName()]
		if !ok {
			continue
		}
		v, err := f.Conv.Decode(values)
		if err != nil {
			return nil, err
		}
		rec[f.Name] = v
	}
	return rec, nil
}

// SubDNFor builds the relative DN of a named entry. The name is DN-escaped
// before interpolation.
func (m *Model) SubDNFor(name string) string {
	return m.PrimaryKey + "=" + ldap.EscapeDN(name) + "," + m.SubDN
}

// UserModel describes user accounts. The locked-account condition is part
// of the existence filter so disabled accounts never appear.
var UserModel = &Model{
	PrimaryKey: "uid",
	Filter:     "(&(objectClass=fasUser)(!(nsAccountLock=TRUE)))",
	SubDN:      "cn=users,cn=accounts",
	Fields: []Field{
		{"username", String("uid")},
		{"surname", String("sn")},
		{"givenname", String("givenName")},
		{"human_name", String("displayName")},
		{"emails", StringList("mail")},
		{"ircnicks", StringList("fasIRCNick")},
		{"locale", String("fasLocale")},
		{"timezone", String("fasTimeZone")},
		{"gpgkeyids", StringList("fasGPGKeyId")},
		{"sshpubkeys", StringList("ipaSshPubKey")},
		{"certificates", BinaryList("userCertificate")},
		{"creation", Time("fasCreationTime")},
		{"is_private", Bool("fasIsPrivate")},
		{"locked", Bool("nsAccountLock")},
		{"memberof", StringList("memberof")},
	},
	Hidden: []string{"memberof"},
	Private: []string{
		"human_name",
		"surname",
		"givenname",
		"ircnicks",
		"locale",
		"timezone",
		"gpgkeyids",
	},
	SearchTerms: map[string]string{
		"username":   "uid",
		"email":      "mail",
		"ircnick":    "fasIRCNick",
		"givenname":  "givenName",
		"surname":    "sn",
		"human_name": "displayName",
		"group":      "memberOf",
	},
	AlwaysExact: []string{"email", "group"},
}

// SponsorModel is a narrow view over group entries exposing only the
// manager back-references.
var SponsorModel = &Model{
	PrimaryKey: "memberManager",
	Filter:     "(&(objectClass=fasUser)(!(nsAccountLock=TRUE)))",
	SubDN:      "cn=users,cn=accounts",
	Fields: []Field{
		{"sponsors", StringList("memberManager")},
	},
}

// GroupModel describes groups.
var GroupModel = &Model{
	PrimaryKey: "cn",
	Filter:     "(objectClass=fasGroup)",
	SubDN:      "cn=groups,cn=accounts",
	Fields: []Field{
		{"groupname", String("cn")},
		{"description", String("description")},
		{"mailing_list", String("fasmailinglist")},
		{"url", String("fasurl")},
		{"irc", StringList("fasircchannel")},
	},
}

// AgreementModel describes user agreements. Disabled agreements are
// filtered out by the existence filter.
var AgreementModel = &Model{
	PrimaryKey: "cn",
	Filter:     "(&(objectClass=fasAgreement)(ipaEnabledFlag=TRUE))",
	SubDN:      "cn=fasagreements",
	Fields: []Field{
		{"name", String("cn")},
	},
}
