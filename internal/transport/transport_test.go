// ABOUTME: Tests for the HTTP requester.
// ABOUTME: Runs requests against httptest servers to check headers, bodies and limits.
package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPerformSendsRequest(t *testing.T) {
	var gotMethod, gotPath, gotQuery, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rq, err := NewHTTP(Config{BaseURL: srv.URL + "/", Logger: quietLogger()})
	require.NoError(t, err)

	resp, err := rq.Perform(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/developer/v1/cycle?limit=1",
		Header: http.Header{"Authorization": {"Bearer abc"}},
		Body:   []byte("hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.Status)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/developer/v1/cycle", gotPath)
	assert.Equal(t, "limit=1", gotQuery)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "hello", gotBody)
}

func TestPerformDefaultsToGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	rq, err := NewHTTP(Config{BaseURL: srv.URL, Logger: quietLogger()})
	require.NoError(t, err)

	resp, err := rq.Perform(context.Background(), &Request{Path: "/x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Empty(t, resp.Body)
}

func TestPerformBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	rq, err := NewHTTP(Config{BaseURL: srv.URL, MaxBodyBytes: 32, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = rq.Perform(context.Background(), &Request{Path: "/"})
	require.ErrorIs(t, err, ErrBodyTooLarge)

	rq, err = NewHTTP(Config{BaseURL: srv.URL, MaxBodyBytes: 64, Logger: quietLogger()})
	require.NoError(t, err)
	resp, err := rq.Perform(context.Background(), &Request{Path: "/"})
	require.NoError(t, err)
	assert.Len(t, resp.Body, 64)
}

func TestPerformTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	rq, err := NewHTTP(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = rq.Perform(context.Background(), &Request{Path: "/slow"})
	require.Error(t, err)
}

func TestNewHTTPValidatesBaseURL(t *testing.T) {
	_, err := NewHTTP(Config{BaseURL: "not a url"})
	require.Error(t, err)

	rq, err := NewHTTP(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, rq.BaseURL())
}
