package site_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/airshopworks/landing-backend/internal/site"
)

func TestHandler_ServesFooterAndLoader(t *testing.T) {
	h := site.Handler()

	for path, want := range map[string]string{
		"/footer.html":       "site-footer",
		"/js/load-footer.js": "footer-placeholder",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rr.Code, path)
		require.Contains(t, rr.Body.String(), want, path)
	}
}

func TestHandler_UnknownAssetIs404(t *testing.T) {
	rr := httptest.NewRecorder()
	site.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/js/missing.js", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
