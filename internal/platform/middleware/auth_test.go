package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUsername(t *testing.T) {
	assert.Equal(t, "jdoe", Username("jdoe@EXAMPLE.TEST"))
	assert.Equal(t, "jdoe", Username("jdoe"))
	assert.Equal(t, "", Username(""))
}

func TestRequirePrincipalRejectsAnonymous(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a principal")
	})
	handler := RequirePrincipal(testLogger())(next)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":{"message":"No delegated credential"}}`, w.Body.String())
}

func TestRequirePrincipalStoresPrincipal(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetPrincipal(r.Context())
	})
	handler := RequirePrincipal(testLogger())(next)

	r := httptest.NewRequest(http.MethodGet, "/v1/users/", nil)
	r.Header.Set(PrincipalHeader, "jdoe@EXAMPLE.TEST")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jdoe@EXAMPLE.TEST", got)
}
