package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the gateway.
type Server struct {
	Addr        string
	LDAPURI     string
	BaseDN      string
	LDAPTimeout time.Duration
	// ConnCache selects the connection policy: reuse one bound connection
	// per principal instead of dialing fresh on every request.
	ConnCache bool
	// MaxPageSize bounds page_size on listing endpoints.
	MaxPageSize int
	// MaxSearchPageSize bounds page_size on search endpoints, which fan out
	// into substring filters and are more expensive per page.
	MaxSearchPageSize int
	// IPAURL is the base URL of the certificate authority's JSON-RPC API.
	IPAURL string
	// KrbCCache points at the gateway's Kerberos credential cache. When
	// set, connections bind with SASL GSSAPI and the caller's principal as
	// authorization identity; when empty, SASL EXTERNAL is used (ldapi
	// socket deployments).
	KrbCCache string
	Krb5Conf  string
	// LDAPServicePrincipal is the directory server's service principal for
	// the GSSAPI handshake, e.g. "ldap/ipa.example.test".
	LDAPServicePrincipal string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:                 envString("DIRGATE_ADDR", ":8080"),
		LDAPURI:              envString("DIRGATE_LDAP_URI", "ldap://localhost:389"),
		BaseDN:               envString("DIRGATE_BASEDN", "dc=example,dc=test"),
		LDAPTimeout:          envDuration("DIRGATE_LDAP_TIMEOUT", 30*time.Second),
		ConnCache:            os.Getenv("DIRGATE_LDAP_CONN_CACHE") == "true",
		MaxPageSize:          envInt("DIRGATE_MAX_PAGE_SIZE", 100),
		MaxSearchPageSize:    envInt("DIRGATE_MAX_SEARCH_PAGE_SIZE", 40),
		IPAURL:               os.Getenv("DIRGATE_IPA_URL"),
		KrbCCache:            os.Getenv("DIRGATE_KRB5_CCACHE"),
		Krb5Conf:             envString("DIRGATE_KRB5_CONF", "/etc/krb5.conf"),
		LDAPServicePrincipal: os.Getenv("DIRGATE_LDAP_SERVICE_PRINCIPAL"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
