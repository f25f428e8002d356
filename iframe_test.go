package sockjs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServeIframeFreshRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/iframe.html", nil)
	rec := httptest.NewRecorder()

	serveIframe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, iframeETag, rec.Header().Get("ETag"))
	require.Contains(t, rec.Body.String(), sockjsClientURL)
}

func TestServeIframeNotModified(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/iframe.html", nil)
	req.Header.Set("If-None-Match", "anything")
	rec := httptest.NewRecorder()

	serveIframe(rec, req)

	require.Equal(t, http.StatusNotModified, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestIframePatternMatchesVariants(t *testing.T) {
	cases := map[string]bool{
		"iframe.html":    true,
		"iframe-a.html":  true,
		"iframe-b2.html": true,
		"iframe":         false,
		"iframe.htm":     false,
		"notiframe.html": false,
	}
	for path, want := range cases {
		require.Equal(t, want, iframePattern.MatchString(path), path)
	}
}
