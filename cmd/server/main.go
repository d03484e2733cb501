package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"

	"dirgate/internal/ipa"
	"dirgate/internal/platform/config"
	"dirgate/internal/platform/httpserver"
	"dirgate/internal/platform/ldapconn"
	"dirgate/internal/platform/logger"
	"dirgate/internal/platform/metrics"
	httptransport "dirgate/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Query logic lives in internal/directory.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	dialer := ldapconn.NewDialer(
		cfg.LDAPURI, cfg.BaseDN, cfg.LDAPTimeout, makeBind(cfg), log,
		ldapconn.WithRoundTripObserver(m.IncDirectoryRoundTrips),
	)
	var provider ldapconn.Provider = dialer
	if cfg.ConnCache {
		provider = ldapconn.NewCache(dialer)
	}

	var certs httptransport.CertClient
	if cfg.IPAURL != "" {
		certs = ipa.NewClient(cfg.IPAURL)
	}

	handler := httptransport.NewHandler(provider, certs, cfg, log, m)
	handler.SetReadyCheck(ldapconn.ReadyCheck(cfg.LDAPURI, cfg.LDAPTimeout))

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	log.Info("starting dirgate", "addr", cfg.Addr, "ldap_uri", cfg.LDAPURI, "conn_cache", cfg.ConnCache)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// makeBind selects the bind mechanism. With a credential cache configured,
// connections bind with GSSAPI and assert the caller's principal as
// authorization identity; otherwise SASL EXTERNAL is used, which fits
// ldapi socket deployments where the OS identity carries authorization.
func makeBind(cfg config.Server) ldapconn.BindFunc {
	if cfg.KrbCCache == "" {
		return func(conn *ldap.Conn, principal string) error {
			return conn.ExternalBind()
		}
	}
	return func(conn *ldap.Conn, principal string) error {
		client, err := gssapi.NewClientFromCCache(cfg.KrbCCache, cfg.Krb5Conf)
		if err != nil {
			return err
		}
		return conn.GSSAPIBind(client, cfg.LDAPServicePrincipal, principal)
	}
}
