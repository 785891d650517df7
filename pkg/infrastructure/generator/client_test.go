package generator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/domain/model"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "list please", req.Prompt)
		assert.Equal(t, "shopping_list", req.Schema.Name)
		assert.Equal(t, []string{"items"}, req.Schema.Required)

		_, _ = w.Write([]byte(`{"output": {"items": [{"name": "Milk"}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", time.Second)
	out, err := client.Generate("list please", model.OutputSchema{Name: "shopping_list", Required: []string{"items"}})

	require.NoError(t, err)
	assert.JSONEq(t, `{"items": [{"name": "Milk"}]}`, string(out))
}

func TestGenerateFailures(t *testing.T) {
	t.Run("Not configured", func(t *testing.T) {
		_, err := NewClient("", "", time.Second).Generate("x", model.OutputSchema{})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("Upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded, retry in 30s", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewClient(server.URL, "", time.Second).Generate("x", model.OutputSchema{})
		assert.ErrorContains(t, err, "503")
		assert.ErrorContains(t, err, "overloaded, retry in 30s")
	})

	t.Run("Long upstream error is truncated", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("quota exceeded: upgrade your plan " + strings.Repeat("x", 2000)))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, "", time.Second).Generate("x", model.OutputSchema{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded: upgrade your plan")
		assert.True(t, strings.HasSuffix(err.Error(), "..."))
		assert.Less(t, len(err.Error()), 700)
	})

	t.Run("Missing output", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, "", time.Second).Generate("x", model.OutputSchema{})
		assert.Error(t, err)
	})
}
