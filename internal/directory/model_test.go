package directory

import (
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLDAPAttrsSkipsHidden(t *testing.T) {
	attrs := UserModel.LDAPAttrs()
	assert.NotContains(t, attrs, "memberof")
	assert.Contains(t, attrs, "uid")
	assert.Contains(t, attrs, "userCertificate;binary")
}

func TestAttrsToLDAP(t *testing.T) {
	assert.Nil(t, UserModel.AttrsToLDAP(nil), "nil means model default")

	attrs := UserModel.AttrsToLDAP([]string{"username", "shoesize", "certificates"})
	assert.Equal(t, []string{"uid", "userCertificate;binary"}, attrs,
		"unknown names are dropped, not errors")

	assert.Empty(t, UserModel.AttrsToLDAP([]string{}))
}

func TestDecodeEntry(t *testing.T) {
	entry := ldap.NewEntry("uid=jdoe,cn=users,cn=accounts,dc=example,dc=test", map[string][]string{
		"uid":                    {"jdoe"},
		"mail":                   {"jdoe@example.test", "jd@example.test"},
		"fasIsPrivate":           {"TRUE"},
		"fasCreationTime":        {"20200601120000Z"},
		"userCertificate;binary": {"dummy"},
	})

	rec, err := UserModel.DecodeEntry(entry)
	require.NoError(t, err)

	assert.Equal(t, "jdoe", rec["username"])
	assert.Equal(t, []string{"jdoe@example.test", "jd@example.test"}, rec["emails"])
	assert.Equal(t, true, rec["is_private"])
	assert.Equal(t, time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC), rec["creation"])
	assert.Equal(t, []string{"ZHVtbXk="}, rec["certificates"])

	_, ok := rec["locale"]
	assert.False(t, ok, "attributes the directory did not return stay absent")
}

func TestDecodeEntryPropagatesDecodeErrors(t *testing.T) {
	entry := ldap.NewEntry("uid=jdoe,cn=users,cn=accounts,dc=example,dc=test", map[string][]string{
		"uid":          {"jdoe"},
		"fasIsPrivate": {"banana"},
	})

	_, err := UserModel.DecodeEntry(entry)
	require.Error(t, err)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestSubDNForEscapesName(t *testing.T) {
	assert.Equal(t, `uid=jdoe\,x,cn=users,cn=accounts`, UserModel.SubDNFor("jdoe,x"))
	assert.Equal(t, "cn=devs,cn=groups,cn=accounts", GroupModel.SubDNFor("devs"))
}
