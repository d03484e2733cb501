package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "ldap://localhost:389", cfg.LDAPURI)
	assert.Equal(t, "dc=example,dc=test", cfg.BaseDN)
	assert.Equal(t, 30*time.Second, cfg.LDAPTimeout)
	assert.False(t, cfg.ConnCache)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 40, cfg.MaxSearchPageSize)
	assert.Empty(t, cfg.IPAURL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DIRGATE_ADDR", ":9090")
	t.Setenv("DIRGATE_LDAP_URI", "ldaps://ipa.example.test:636")
	t.Setenv("DIRGATE_LDAP_TIMEOUT", "5s")
	t.Setenv("DIRGATE_LDAP_CONN_CACHE", "true")
	t.Setenv("DIRGATE_MAX_PAGE_SIZE", "250")
	t.Setenv("DIRGATE_IPA_URL", "https://ipa.example.test")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "ldaps://ipa.example.test:636", cfg.LDAPURI)
	assert.Equal(t, 5*time.Second, cfg.LDAPTimeout)
	assert.True(t, cfg.ConnCache)
	assert.Equal(t, 250, cfg.MaxPageSize)
	assert.Equal(t, "https://ipa.example.test", cfg.IPAURL)
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DIRGATE_MAX_PAGE_SIZE", "lots")
	t.Setenv("DIRGATE_LDAP_TIMEOUT", "soon")

	cfg := FromEnv()
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 30*time.Second, cfg.LDAPTimeout)
}
