package job

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPActionSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	a, err := NewHTTPAction("", srv.URL, "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, a.Method)

	out, err := a.Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "200")
}

func TestHTTPActionErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a, err := NewHTTPAction("GET", srv.URL, "", nil, "")
	require.NoError(t, err)

	_, err = a.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPActionMatchPattern(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer srv.Close()

	a, err := NewHTTPAction("GET", srv.URL, "", nil, `"status":\s*"healthy"`)
	require.NoError(t, err)

	_, err = a.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not match")
}

func TestHTTPActionPostBodyAndHeaders(t *testing.T) {
	var gotMethod, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
	}))
	defer srv.Close()

	a, err := NewHTTPAction("post", srv.URL, `{"ping":1}`, map[string]string{
		"Authorization": "Bearer abc",
	}, "")
	require.NoError(t, err)

	_, err = a.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, `{"ping":1}`, gotBody)
}

func TestHTTPActionValidation(t *testing.T) {
	_, err := NewHTTPAction("GET", "", "", nil, "")
	require.Error(t, err)

	_, err = NewHTTPAction("GET", "ftp://example.com", "", nil, "")
	require.Error(t, err)

	_, err = NewHTTPAction("GET", "https://example.com", "", nil, `[unclosed`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match pattern")
}
