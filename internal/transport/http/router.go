// Package httptransport is the thin HTTP layer over the directory query
// engine. It owns request parsing, pagination and mask preconditions,
// response envelopes and error-to-status mapping; everything with
// algorithmic substance lives in internal/directory.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dirgate/internal/directory"
	"dirgate/internal/ipa"
	"dirgate/internal/platform/config"
	"dirgate/internal/platform/ldapconn"
	"dirgate/internal/platform/metrics"
	"dirgate/internal/platform/middleware"
)

// CertClient is the slice of the certificate authority client the handlers
// use.
type CertClient interface {
	CertShow(ctx context.Context, serialNumber int) (ipa.Cert, error)
	CertRequest(ctx context.Context, csr, user string) (ipa.Cert, error)
}

// Handler holds the gateway's HTTP endpoints and their collaborators.
type Handler struct {
	provider          ldapconn.Provider
	certs             CertClient
	logger            *slog.Logger
	metrics           *metrics.Metrics
	maxPageSize       int
	maxSearchPageSize int
	ready             func(ctx context.Context) error
}

func NewHandler(provider ldapconn.Provider, certs CertClient, cfg config.Server, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		provider:          provider,
		certs:             certs,
		logger:            logger,
		metrics:           m,
		maxPageSize:       cfg.MaxPageSize,
		maxSearchPageSize: cfg.MaxSearchPageSize,
	}
}

// SetReadyCheck installs the readiness probe used by /healthz/ready.
func (h *Handler) SetReadyCheck(fn func(ctx context.Context) error) {
	h.ready = fn
}

// NewRouter wires all endpoints. Everything under /v1 requires an
// authenticated principal forwarded by the front web server.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/healthz/live", h.handleLive)
	r.Get("/healthz/ready", h.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequirePrincipal(h.logger))

		r.Get("/me/", h.handleMe)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.handleListUsers)
			r.Get("/{username}/", h.handleGetUser)
			r.Get("/{username}/groups/", h.handleUserGroups)
			r.Get("/{username}/agreements/", h.handleUserAgreements)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.handleListGroups)
			r.Get("/{groupname}/", h.handleGetGroup)
			r.Get("/{groupname}/members/", h.handleGroupMembers)
			r.Get("/{groupname}/sponsors/", h.handleGroupSponsors)
			r.Get("/{groupname}/is-member/{username}", h.handleIsMember)
		})

		r.Get("/search/users/", h.handleSearchUsers)

		r.Route("/certs", func(r chi.Router) {
			r.Post("/", h.handleSignCert)
			r.Get("/{serial_number:[0-9]+}/", h.handleGetCert)
		})
	})

	return r
}

// evictor is implemented by providers that keep connections alive across
// requests and need to be told when one has gone bad.
type evictor interface {
	Evict(principal string)
}

// dirClient obtains a directory client bound as the request's principal,
// plus a release function the caller must defer. The boolean is false when
// the response has already been written.
func (h *Handler) dirClient(w http.ResponseWriter, r *http.Request) (*directory.Client, string, func(), bool) {
	principal := middleware.GetPrincipal(r.Context())
	client, release, err := h.provider.Get(r.Context(), principal)
	if err != nil {
		h.writeError(w, r, err)
		return nil, "", nil, false
	}
	return client, middleware.Username(principal), release, true
}
