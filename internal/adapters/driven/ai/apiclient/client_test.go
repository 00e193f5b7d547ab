package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

func TestClient_PostJSON(t *testing.T) {
	var gotHeader, gotType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/echo", r.URL.Path)
		gotHeader = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"answer":"pong"}`))
	}))
	defer srv.Close()

	c := New("test", srv.URL+"/v1/", time.Second, http.Header{"Authorization": {"Bearer k"}})
	var out struct {
		Answer string `json:"answer"`
	}
	err := c.PostJSON(context.Background(), "/echo", map[string]string{"q": "ping"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "pong", out.Answer)
	assert.Equal(t, "Bearer k", gotHeader)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "ping", gotBody["q"])
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		message   string
		temporary bool
	}{
		{"nested message", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, "bad key", false},
		{"flat message", http.StatusNotFound, `{"error":"model not found"}`, "model not found", false},
		{"plain body", http.StatusBadGateway, "upstream down\n", "upstream down", true},
		{"rate limited", http.StatusTooManyRequests, `{}`, "{}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := New("test", srv.URL, time.Second, nil).Get(context.Background(), "/", nil)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.Code)
			assert.Equal(t, tt.message, statusErr.Message)
			assert.Equal(t, tt.temporary, statusErr.Temporary())
			assert.Contains(t, err.Error(), "test: API returned status")
		})
	}
}

func TestClient_TimeoutMapsToSentinel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := New("test", srv.URL, 20*time.Millisecond, nil).Get(context.Background(), "/", nil)

	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestClient_CancelIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New("test", srv.URL, time.Second, nil).Get(ctx, "/", nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrTimeout)
}

func TestClient_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New("test", url, time.Second, nil).Get(context.Background(), "/", nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTimeout)
	assert.Contains(t, err.Error(), "test:")
}
