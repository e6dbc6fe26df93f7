package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile() *models.Profile {
	return &models.Profile{
		Name: "p1",
		OS:   "win",
		Network: models.Network{Proxy: models.NetworkProxy{
			Type: "HTTP", Host: "h", Port: "10200", Username: "u", Password: "p",
		}},
		Status: models.ProfileStatusPending,
	}
}

func TestMultiloginClient_CreateProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body models.RegistrationPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body.Name)
		assert.Equal(t, "10200", body.Network.Proxy.Port)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"uuid":"ext-123"}`)
	}))
	defer srv.Close()

	c := NewMultiloginClient(MultiloginOptions{BaseURL: srv.URL, Token: "tok", Timeout: time.Second})
	id, err := c.CreateProfile(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, "ext-123", id)
}

func TestMultiloginClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, strings.Repeat("x", 400))
	}))
	defer srv.Close()

	c := NewMultiloginClient(MultiloginOptions{BaseURL: srv.URL, Timeout: time.Second})
	_, err := c.CreateProfile(context.Background(), testProfile())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "/profile", apiErr.Path)
	assert.Len(t, apiErr.Body, 259)
}

func TestMultiloginClient_MissingUUID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewMultiloginClient(MultiloginOptions{BaseURL: srv.URL, Timeout: time.Second})
	_, err := c.CreateProfile(context.Background(), testProfile())
	assert.ErrorIs(t, err, ErrMissingExternalID)
}

func TestMultiloginClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"uuid":"ext-9"}`)
	}))
	defer srv.Close()

	c := NewMultiloginClient(MultiloginOptions{BaseURL: srv.URL, Timeout: time.Second, Retries: 2})
	id, err := c.CreateProfile(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, "ext-9", id)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMultiloginClient_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := NewMultiloginClient(MultiloginOptions{BaseURL: srv.URL, Timeout: time.Second})
	assert.NoError(t, c.Reachable(context.Background()), "any status counts as reachable")

	srv.Close()
	assert.Error(t, c.Reachable(context.Background()))
}
