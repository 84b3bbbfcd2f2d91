package artifact

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.Client(), "test-key", "test-model")
	assert.NoError(t, err)
	c.BaseURL = srv.URL
	c.RetryDelay = time.Millisecond
	return c
}

func imageResponse(data []byte) string {
	return `{"candidates":[{"content":{"parts":[` +
		`{"text":"here is your line art"},` +
		`{"inlineData":{"mimeType":"image/png","data":"` + base64.StdEncoding.EncodeToString(data) + `"}}` +
		`]}}]}`
}

func TestGenerateSuccess(t *testing.T) {
	want := []byte("png-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		w.Write([]byte(imageResponse(want)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	out, err := c.Generate(context.Background(), []byte("photo"), PromptLineArt)
	assert.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestGenerateRetriesRateLimitOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"quota exceeded"}}`))
			return
		}
		w.Write([]byte(imageResponse([]byte("ok"))))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	out, err := c.Generate(context.Background(), []byte("photo"), PromptLineArt)
	assert.NoError(t, err)
	assert.Equal(t, []byte("ok"), out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerateGivesUpAfterBoundedRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Generate(context.Background(), []byte("photo"), PromptLineArt)

	var se *StatusError
	assert.ErrorAs(t, err, &se)
	assert.True(t, se.RateLimited())
	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestGeneratePermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"status":"PERMISSION_DENIED","message":"bad credentials"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Generate(context.Background(), []byte("photo"), PromptLineArt)

	var se *StatusError
	assert.ErrorAs(t, err, &se)
	assert.False(t, se.RateLimited())
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateNoImageInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"sorry, text only"}]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Generate(context.Background(), []byte("photo"), PromptLineArt)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient(http.DefaultClient, "", "model")
	assert.Error(t, err)
	_, err = NewClient(http.DefaultClient, "key", "")
	assert.Error(t, err)

	c, err := NewClient(http.DefaultClient, "key", "models/gemini-x")
	assert.NoError(t, err)
	assert.Equal(t, "gemini-x", c.Model)
}
