package hook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/pagewright/internal/site"
)

func TestNotifier_IsConfigured(t *testing.T) {
	t.Run("configured with URL", func(t *testing.T) {
		n := New(site.HooksConfig{URL: "https://example.com/hook"})
		assert.True(t, n.IsConfigured())
	})

	t.Run("not configured with empty URL", func(t *testing.T) {
		// Only configured if the env var is set; assume it is not.
		n := New(site.HooksConfig{})
		assert.False(t, n.IsConfigured())
	})

	t.Run("falls back to environment", func(t *testing.T) {
		t.Setenv(EnvURL, "https://example.com/env-hook")
		n := New(site.HooksConfig{})
		assert.True(t, n.IsConfigured())
	})
}

func TestNotifier_Notify(t *testing.T) {
	t.Run("posts build summary", func(t *testing.T) {
		var received payload

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			err := json.NewDecoder(r.Body).Decode(&received)
			require.NoError(t, err)

			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		n := New(site.HooksConfig{URL: server.URL, OnSuccess: true, OnFailure: true})
		err := n.Notify(context.Background(), Result{
			Site:    "/srv/site",
			Pages:   12,
			Skipped: 3,
			Elapsed: 1500 * time.Millisecond,
			Success: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "build", received.Event)
		assert.Equal(t, "success", received.Status)
		assert.Equal(t, "/srv/site", received.Site)
		assert.Equal(t, 12, received.Pages)
		assert.Equal(t, 3, received.Skipped)
		assert.Equal(t, "1.5s", received.Elapsed)
		assert.NotEmpty(t, received.At)
	})

	t.Run("reports failures", func(t *testing.T) {
		var received payload

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		n := New(site.HooksConfig{URL: server.URL, OnSuccess: true, OnFailure: true})
		err := n.Notify(context.Background(), Result{Failed: 2, Errors: 5, Success: false})
		require.NoError(t, err)

		assert.Equal(t, "failure", received.Status)
		assert.Equal(t, 2, received.Failed)
		assert.EqualValues(t, 5, received.Errors)
	})

	t.Run("on_success gate suppresses successful builds", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Error("unexpected request")
		}))
		defer server.Close()

		n := New(site.HooksConfig{URL: server.URL, OnSuccess: false, OnFailure: true})
		err := n.Notify(context.Background(), Result{Success: true})
		assert.NoError(t, err)
	})

	t.Run("on_failure gate suppresses failed builds", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Error("unexpected request")
		}))
		defer server.Close()

		n := New(site.HooksConfig{URL: server.URL, OnSuccess: true, OnFailure: false})
		err := n.Notify(context.Background(), Result{Success: false})
		assert.NoError(t, err)
	})

	t.Run("returns nil when not configured", func(t *testing.T) {
		n := &Notifier{}
		err := n.Notify(context.Background(), Result{Success: true})
		assert.NoError(t, err)
	})

	t.Run("returns error on non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		n := New(site.HooksConfig{URL: server.URL, OnSuccess: true, OnFailure: true})
		err := n.Notify(context.Background(), Result{Success: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status: 400")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			select {}
		}))
		defer server.Close()

		n := New(site.HooksConfig{URL: server.URL, OnSuccess: true, OnFailure: true})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := n.Notify(ctx, Result{Success: true})
		require.Error(t, err)
	})
}
