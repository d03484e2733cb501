package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// PrincipalHeader carries the authenticated Kerberos principal, set by the
// front web server after it has validated the delegated credential. The
// gateway trusts this header; credential mechanics are not its job.
const PrincipalHeader = "X-Remote-User"

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for use in handlers.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal retrieves the authenticated principal from the context.
// Empty means anonymous.
func GetPrincipal(ctx context.Context) string {
	principal, ok := ctx.Value(ContextKeyPrincipal).(string)
	if !ok {
		return ""
	}
	return principal
}

// Username reduces a Kerberos principal to its bare username, dropping the
// realm suffix.
func Username(principal string) string {
	name, _, _ := strings.Cut(principal, "@")
	return name
}

// RequirePrincipal rejects requests that arrive without an authenticated
// principal and stores the principal in the request context otherwise.
func RequirePrincipal(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := r.Header.Get(PrincipalHeader)
			if principal == "" {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - missing principal",
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"No delegated credential"}}`))
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
