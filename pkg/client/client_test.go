package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"krishak/internal/apperror"
	"krishak/internal/guard"
	"krishak/internal/models"
	"krishak/internal/services"
	"krishak/internal/session"
	"krishak/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	return session.New(session.NewFileTier(filepath.Join(t.TempDir(), "session.json")), session.NewMemoryTier())
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		if body["password"] != "password123" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"kind":"invalid_credentials","message":"Invalid email or password"}`))
			return
		}
		w.Write([]byte(`{"success":true,"token":"tok-123","user":{"id":"u1","name":"Asha","email":"asha@example.com","userType":"seller"}}`))
	})
	mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"kind":"unauthorized","message":"Not authorized, no token"}`))
			return
		}
		w.Write([]byte(`{"success":true,"user":{"id":"u1","name":"Asha","userType":"seller"}}`))
	})
	mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"kind":"validation_error","message":"Validation failed","errors":{"paymentMethod":"paymentMethod is required"}}`))
	})
	mux.HandleFunc("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginPersistsAndAttachesToken(t *testing.T) {
	srv := fakeAPI(t)
	store := newStore(t)
	c := client.New(srv.URL+"/api", store)
	ctx := context.Background()

	_, err := c.Profile(ctx)
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))

	user, err := c.Login(ctx, "asha@example.com", "password123", true)
	require.NoError(t, err)
	assert.Equal(t, models.Seller, user.UserType)
	assert.Equal(t, "tok-123", store.Token())

	profile, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.ID)

	decision, err := c.Guard("/seller-dashboard", models.Seller)
	require.NoError(t, err)
	assert.Equal(t, guard.Render, decision.Action)

	decision, err = c.Guard("/cart", models.Buyer)
	require.NoError(t, err)
	assert.Equal(t, guard.Decision{Action: guard.Redirect, Location: "/seller-dashboard"}, decision)

	require.NoError(t, c.Logout())
	current, err := c.CurrentUser()
	require.NoError(t, err)
	assert.Nil(t, current)

	decision, err = c.Guard("/cart", models.Buyer)
	require.NoError(t, err)
	assert.Equal(t, guard.Decision{Action: guard.Redirect, Location: "/login", ReturnTo: "/cart"}, decision)
}

func TestServerErrorKeepsKindAndMessage(t *testing.T) {
	srv := fakeAPI(t)
	c := client.New(srv.URL+"/api", newStore(t))

	_, err := c.Login(context.Background(), "asha@example.com", "wrong", false)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.InvalidCredentials, appErr.Kind)
	assert.Equal(t, "Invalid email or password", appErr.Message)

	_, err = c.PlaceOrder(context.Background(), services.PlaceOrderInput{})
	appErr, ok = apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.Validation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "paymentMethod")

	_, err = c.Cart(context.Background())
	assert.Equal(t, apperror.Internal, apperror.KindOf(err), "a non-JSON 5xx is still a server error, not a network error")
}

func TestNetworkFailureIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := client.New(srv.URL+"/api", newStore(t))

	_, err := c.Login(context.Background(), "asha@example.com", "password123", false)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.Network, appErr.Kind)
	assert.Equal(t, client.NetworkErrorMessage, appErr.Message)
}
