package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xelth-com/wooassist/internal/logger"
)

func TestCaseInsensitive(t *testing.T) {
	var seen string
	h := CaseInsensitive(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Path
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/Chat/Session?clientKey=AbC", nil))
	assert.Equal(t, "/chat/session", seen)
}

func TestRecovererAndLogger(t *testing.T) {
	h := RequestLogger(logger.Nop())(Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
