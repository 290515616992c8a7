package job

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scrapePage = `<!DOCTYPE html>
<html><body>
<div class="release"><h2>v1.2.0</h2><p>Adds <strong>retry</strong> support.</p></div>
<div class="release"><h2>v1.1.0</h2><p>Initial release.</p></div>
</body></html>`

func TestScrapeActionSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scrapePage))
	}))
	defer srv.Close()

	a, err := NewScrapeAction(srv.URL, "div.release", 2)
	require.NoError(t, err)
	assert.Equal(t, "scrape", a.Kind())

	out, err := a.Execute(context.Background())
	require.NoError(t, err)
	// First match converted to markdown.
	assert.Contains(t, out, "v1.2.0")
	assert.Contains(t, out, "**retry**")
}

func TestScrapeActionTooFewMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scrapePage))
	}))
	defer srv.Close()

	a, err := NewScrapeAction(srv.URL, "div.release", 3)
	require.NoError(t, err)

	_, err = a.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched 2 element(s)")
}

func TestScrapeActionNoMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scrapePage))
	}))
	defer srv.Close()

	a, err := NewScrapeAction(srv.URL, "table.prices", 1)
	require.NoError(t, err)

	_, err = a.Execute(context.Background())
	require.Error(t, err)
}

func TestScrapeActionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	a, err := NewScrapeAction(srv.URL, "div", 1)
	require.NoError(t, err)

	_, err = a.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestScrapeActionValidation(t *testing.T) {
	_, err := NewScrapeAction("", "div", 1)
	require.Error(t, err)

	_, err = NewScrapeAction("https://example.com", "", 1)
	require.Error(t, err)

	// MinMatches defaults to 1.
	a, err := NewScrapeAction("https://example.com", "div", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, a.MinMatches)
}

func TestContainerActionValidation(t *testing.T) {
	_, err := NewContainerAction("", nil, nil)
	require.Error(t, err)

	a, err := NewContainerAction("alpine:3.20", []string{"true"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "container", a.Kind())
}
