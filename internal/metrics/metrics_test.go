package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveRateLimit("hint", true)
	m.ObserveRateLimit("hint", true)
	m.ObserveRateLimit("hint", false)
	m.ObserveGuess("won")
	m.ObserveLLM("hint", "cached")
	m.SetActiveSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rateLimits.WithLabelValues("hint", "allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimits.WithLabelValues("hint", "denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guesses.WithLabelValues("won")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues("hint", "cached")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveGuess("lost")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `wordwise_guesses_total{outcome="lost"} 1`)
}

func TestNew_Independent(t *testing.T) {
	a, b := New(), New()
	a.ObserveGuess("won")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.guesses.WithLabelValues("won")))
}
