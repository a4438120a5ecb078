package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/airshopworks/landing-backend/internal/webhook"
)

func TestNew_EmptyURLDisables(t *testing.T) {
	require.Nil(t, webhook.New("", time.Second))
}

func TestNotifyLead_PostsEmail(t *testing.T) {
	var (
		got     webhook.LeadPayload
		idemKey string
		calls   int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		idemKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := webhook.New(srv.URL, time.Second)
	require.NoError(t, c.NotifyLead(context.Background(), "lead-1", "lead@example.com"))

	require.Equal(t, 1, calls)
	require.Equal(t, "lead@example.com", got.Email)
	require.Equal(t, "lead-1", idemKey)
}

func TestNotifyLead_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := webhook.New(srv.URL, time.Second)
	require.Error(t, c.NotifyLead(context.Background(), "", "lead@example.com"))
}

func TestNotifyLead_UnreachableIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := webhook.New(url, time.Second)
	require.Error(t, c.NotifyLead(context.Background(), "", "lead@example.com"))
}
