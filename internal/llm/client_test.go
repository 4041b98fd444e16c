package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  CRANE \n"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/v1/", "sk-test", "tiny", time.Second)
	out, err := c.Complete(context.Background(), Prompt{Kind: "word", System: "sys", User: "give me a word", MaxTokens: 5})
	require.NoError(t, err)
	assert.Equal(t, "CRANE", out)

	assert.Equal(t, "tiny", got.Model)
	assert.Equal(t, 5, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "give me a word", got.Messages[1].Content)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestHTTPClient_WithHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"SLATE"}}]}`))
	}))
	defer srv.Close()

	var calls int
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return http.DefaultTransport.RoundTrip(r)
	})}

	c := NewHTTPClient(srv.URL, "sk-test", "tiny", time.Second, WithHTTPClient(hc))
	out, err := c.Complete(context.Background(), Prompt{Kind: "word", User: "word"})
	require.NoError(t, err)
	assert.Equal(t, "SLATE", out)
	assert.Equal(t, 1, calls)
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"provider error", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`},
		{"not json", http.StatusBadGateway, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, "k", "m", time.Second).Complete(context.Background(), Prompt{User: "x"})
			assert.ErrorIs(t, err, ErrBadResponse)
		})
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, "k", "m", 20*time.Millisecond).Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPClient_NoKey(t *testing.T) {
	_, err := NewHTTPClient("http://unused", "", "m", time.Second).Complete(context.Background(), Prompt{})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = Disabled{}.Complete(context.Background(), Prompt{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
