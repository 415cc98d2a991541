package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/smart-resolve/internal/config"
	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/observability"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(config.ClassifierConfig{BaseURL: srv.URL + "/", TimeoutSeconds: 5}, zap.NewNop(), observability.NewMetrics())
}

// unreachableClient points at a server that has already been shut down.
func unreachableClient(t *testing.T) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return NewHTTPClient(config.ClassifierConfig{BaseURL: url, TimeoutSeconds: 1}, zap.NewNop(), nil)
}

func TestHTTPClient_GenerateResponse(t *testing.T) {
	var received chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "I can help with that."})
	})

	history := []Message{
		{Role: RoleSystem, Content: "be nice"},
		{Role: RoleUser, Content: "hi"},
	}
	reply, err := client.GenerateResponse(context.Background(), history)
	require.NoError(t, err)

	assert.Equal(t, "I can help with that.", reply)
	assert.Equal(t, history, received.Messages)
}

func TestHTTPClient_GenerateResponse_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "missing response field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"timestamp":"now"}`))
			},
			status: http.StatusOK,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			status: http.StatusInternalServerError,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.GenerateResponse(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
			require.Error(t, err)

			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.status, genErr.Status)
		})
	}
}

func TestHTTPClient_GenerateResponse_Unreachable(t *testing.T) {
	_, err := unreachableClient(t).GenerateResponse(context.Background(), nil)
	assert.True(t, IsGenerationError(err))
}

func TestHTTPClient_CategorizeTicket(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/categorize", r.URL.Path)
		var req categorizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "printer is on fire", req.Description)
		_, _ = w.Write([]byte(`{"category":"technical","priority":"urgent","assigned_team":"Hardware"}`))
	})

	got := client.CategorizeTicket(context.Background(), "printer is on fire")
	assert.Equal(t, domain.Classification{
		Category:     domain.TicketCategoryTechnical,
		Priority:     domain.TicketPriorityUrgent,
		AssignedTeam: "Hardware",
	}, got)
}

func TestHTTPClient_CategorizeTicket_MissingFieldsDefault(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.Classification
	}{
		{
			name: "missing priority",
			body: `{"category":"billing","assigned_team":"Billing Support"}`,
			want: domain.Classification{Category: domain.TicketCategoryBilling, Priority: domain.TicketPriorityMedium, AssignedTeam: "Billing Support"},
		},
		{
			name: "empty object",
			body: `{}`,
			want: Default(),
		},
		{
			name: "unknown enum values",
			body: `{"category":"sales","priority":"whenever","assigned_team":""}`,
			want: Default(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			// The description would trigger fallback keywords; defaults must win
			// because the remote call itself succeeded.
			got := client.CategorizeTicket(context.Background(), "urgent payment issue")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPClient_CategorizeTicket_FallbackWhenUnreachable(t *testing.T) {
	got := unreachableClient(t).CategorizeTicket(context.Background(), "My payment failed and I'm getting an error")

	assert.Equal(t, domain.TicketCategoryBilling, got.Category)
	assert.Equal(t, domain.TicketPriorityMedium, got.Priority)
	assert.Equal(t, TeamBilling, got.AssignedTeam)
}

func TestHTTPClient_CategorizeTicket_FallbackOnServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	got := client.CategorizeTicket(context.Background(), "critical crash")
	assert.Equal(t, domain.TicketCategoryTechnical, got.Category)
	assert.Equal(t, domain.TicketPriorityUrgent, got.Priority)
}

func TestHTTPClient_CheckHealth(t *testing.T) {
	healthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.True(t, healthy.CheckHealth(context.Background()))

	unhealthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.False(t, unhealthy.CheckHealth(context.Background()))

	assert.False(t, unreachableClient(t).CheckHealth(context.Background()))
}
