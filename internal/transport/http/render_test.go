package httptransport

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirgate/internal/directory"
)

func TestParseMask(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{"absent", "", nil},
		{"wildcard", "*", nil},
		{"braced wildcard", "{*}", nil},
		{"plain list", "username,surname", []string{"username", "surname"}},
		{"braced list", "{username, surname}", []string{"username", "surname"}},
		{"empty braces", "{}", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/v1/users/", nil)
			if tt.header != "" {
				r.Header.Set(maskHeader, tt.header)
			}
			assert.Equal(t, tt.want, parseMask(r))
		})
	}
}

func TestProjectDefaultFieldSet(t *testing.T) {
	rec := directory.Record{"username": "jdoe", "surname": "Doe"}
	out := project(directory.UserModel, rec, nil, "http://x/v1/users/jdoe/", userDefaults)

	assert.Equal(t, "jdoe", out["username"])
	assert.Equal(t, "Doe", out["surname"])
	assert.Equal(t, "http://x/v1/users/jdoe/", out["uri"])

	// Missing fields are rendered explicitly, null or defaulted.
	assert.Contains(t, out, "locale")
	assert.Nil(t, out["locale"])
	assert.Equal(t, false, out["locked"])

	assert.NotContains(t, out, "memberof", "hidden fields never render")
}

func TestProjectMask(t *testing.T) {
	rec := directory.Record{"username": "jdoe", "surname": "Doe", "memberof": []string{"x"}}
	out := project(directory.UserModel, rec, []string{"username", "memberof", "bogus"}, "http://x/v1/users/jdoe/", nil)

	assert.Equal(t, map[string]any{
		"username": "jdoe",
		"uri":      "http://x/v1/users/jdoe/",
	}, out, "masks cannot reach hidden or unknown fields")
}

func TestPageBlock(t *testing.T) {
	r := httptest.NewRequest("GET", "http://api.example.test/v1/users/", nil)

	t.Run("unpaginated", func(t *testing.T) {
		assert.Nil(t, pageBlock(r, &directory.Result{Total: 5}))
	})

	t.Run("middle page", func(t *testing.T) {
		page := pageBlock(r, &directory.Result{Total: 11, PageSize: 3, PageNumber: 2})
		require.NotNil(t, page)
		assert.Equal(t, 11, page["total_results"])
		assert.Equal(t, 4, page["total_pages"])
		assert.Equal(t,
			"http://api.example.test/v1/users/?page_size=3&page_number=3",
			page["next_page"])
	})

	t.Run("last page", func(t *testing.T) {
		page := pageBlock(r, &directory.Result{Total: 11, PageSize: 3, PageNumber: 4})
		require.NotNil(t, page)
		assert.NotContains(t, page, "next_page")
	})

	t.Run("forwarded proto", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://api.example.test/v1/users/", nil)
		r.Header.Set("X-Forwarded-Proto", "https")
		page := pageBlock(r, &directory.Result{Total: 4, PageSize: 2, PageNumber: 1})
		require.NotNil(t, page)
		assert.Equal(t,
			"https://api.example.test/v1/users/?page_size=2&page_number=2",
			page["next_page"])
	})
}

func TestUserURIEscapesName(t *testing.T) {
	r := httptest.NewRequest("GET", "http://api.example.test/v1/users/", nil)
	assert.Equal(t, "http://api.example.test/v1/users/j%2Fdoe/", userURI(r, "j/doe"))
}
