package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpilot/internal/config"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	assert.Nil(t, NewClient(&config.Config{}))
	assert.NotNil(t, NewClient(&config.Config{OpenAIAPIKey: "sk-test"}))
}

func TestBuildPromptIncludesProfileAndPlaceholders(t *testing.T) {
	prompt := buildPrompt("Hi {first_name}, see {cta_url}", LeadProfile{
		FirstName:   "Alex",
		Position:    "CTO",
		CompanyName: "Acme",
	})

	assert.Contains(t, prompt, "- Name: Alex")
	assert.Contains(t, prompt, "- Position: CTO")
	assert.Contains(t, prompt, "- Company: Acme")
	assert.NotContains(t, prompt, "Industry")
	assert.Contains(t, prompt, "{first_name}")
	assert.Contains(t, prompt, "{cta_url}")
}

func TestPersonalizeParsesCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Rewritten body  "}}]}`))
	}))
	defer server.Close()

	client := &OpenAIClient{
		apiKey:   "sk-test",
		endpoint: server.URL,
		model:    defaultModel,
		http:     &http.Client{Timeout: time.Second},
	}

	text, err := client.Personalize(context.Background(), "template", LeadProfile{FirstName: "Alex"})
	require.NoError(t, err)
	assert.Equal(t, "Rewritten body", text)
}

func TestPersonalizeRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"blank completion", http.StatusOK, `{"choices":[{"message":{"content":"   "}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := &OpenAIClient{
				apiKey:   "sk-test",
				endpoint: server.URL,
				model:    defaultModel,
				http:     &http.Client{Timeout: time.Second},
			}

			_, err := client.Personalize(context.Background(), "template", LeadProfile{})
			require.Error(t, err)
		})
	}
}
