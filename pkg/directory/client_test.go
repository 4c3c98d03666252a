package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func staticToken(tok string) TokenFunc {
	return func(ctx context.Context) string { return tok }
}

func TestClient_GetListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/listing/abc", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":          "abc",
			"name":        "Corner Bakery",
			"listingType": []string{"product"},
			"categories":  []map[string]string{{"name": "Bakery"}, {"name": "Cakes"}},
			"location":    map[string]interface{}{"showPublicly": true, "deliveryRadiusKm": 5},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL}, staticToken("tok-1"))
	got, err := c.GetListing(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Corner Bakery", got.Name)
	assert.Equal(t, []string{"product"}, got.ListingType)
	require.Len(t, got.Categories, 2)
	assert.Equal(t, "Bakery", got.Categories[0].Name)
	require.NotNil(t, got.Location.DeliveryRadiusKm)
	assert.Equal(t, 5.0, *got.Location.DeliveryRadiusKm)
}

func TestClient_GetListing_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL}, nil)
	_, err := c.GetListing(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrListingNotFound))
}

func TestClient_GetListing_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": "upstream"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "abc"})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, FetchRetries: 2}, nil)
	got, err := c.GetListing(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_CreateListing_NoRetryOnFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "maintenance"})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, FetchRetries: 3}, nil)
	_, status, err := c.CreateListing(context.Background(), &CreateListingReq{Name: "x"})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCodeOf(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "maintenance", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_UpdateListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/listing/l-9", r.URL.Path)

		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "l-9", body["id"])
		assert.Equal(t, "New name", body["name"])
		_, hasPhone := body["phone"]
		assert.False(t, hasPhone)

		writeJSON(w, http.StatusOK, map[string]string{"status": "pending_review"})
	}))
	defer srv.Close()

	name := "New name"
	c := NewClient(ClientConfig{BaseURL: srv.URL}, nil)
	got, status, err := c.UpdateListing(context.Background(), "l-9", &UpdateListingReq{ID: "l-9", Name: &name})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "l-9", got.ID)
}

func TestAuthClient_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body RefreshReq
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.RefreshToken != "good" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, TokenResp{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 900})
	}))
	defer srv.Close()

	a := NewAuthClient(ClientConfig{BaseURL: srv.URL})

	tok, err := a.Refresh(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "a2", tok.AccessToken)

	_, err = a.Refresh(context.Background(), "bad")
	assert.True(t, errors.Is(err, ErrUnauthorized))
}
