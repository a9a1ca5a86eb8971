// Package ai personalizes outbound message bodies for individual leads.
// A personalization failure is never fatal: callers always fall back to
// the plain template.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"leadpilot/internal/config"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultModel    = "gpt-4o-mini"
	requestTimeout  = 30 * time.Second
)

// LeadProfile is the slice of lead data exposed to the model. Only fields
// useful for tailoring copy are included; contact details stay out of the
// prompt.
type LeadProfile struct {
	FirstName     string
	Position      string
	CompanyName   string
	Industry      string
	EmployeeCount string
}

// Client produces a personalized message body from a template and a lead
// profile.
type Client interface {
	Personalize(ctx context.Context, template string, profile LeadProfile) (string, error)
}

// OpenAIClient implements Client against the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey   string
	endpoint string
	model    string
	http     *http.Client
}

// NewClient builds a Client from configuration. It returns nil when no API
// key is configured; callers treat a nil client as "template only".
func NewClient(cfg *config.Config) *OpenAIClient {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	return &OpenAIClient{
		apiKey:   cfg.OpenAIAPIKey,
		endpoint: defaultEndpoint,
		model:    defaultModel,
		http:     &http.Client{Timeout: requestTimeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// buildPrompt renders the instruction sent to the model. The template's
// placeholder variables must survive verbatim so the renderer can still
// substitute them afterwards.
func buildPrompt(template string, profile LeadProfile) string {
	var b strings.Builder
	b.WriteString("Rewrite the following outreach email so it feels personally written for the recipient. ")
	b.WriteString("Keep the same structure, offer and call to action. ")
	b.WriteString("Keep every {placeholder} variable exactly as written. ")
	b.WriteString("Return only the rewritten email body.\n\n")
	b.WriteString("Recipient:\n")
	if profile.FirstName != "" {
		fmt.Fprintf(&b, "- Name: %s\n", profile.FirstName)
	}
	if profile.Position != "" {
		fmt.Fprintf(&b, "- Position: %s\n", profile.Position)
	}
	if profile.CompanyName != "" {
		fmt.Fprintf(&b, "- Company: %s\n", profile.CompanyName)
	}
	if profile.Industry != "" {
		fmt.Fprintf(&b, "- Industry: %s\n", profile.Industry)
	}
	if profile.EmployeeCount != "" {
		fmt.Fprintf(&b, "- Company size: %s\n", profile.EmployeeCount)
	}
	b.WriteString("\nEmail:\n")
	b.WriteString(template)
	return b.String()
}

// Personalize asks the model for a lead-specific rendition of the template
func (c *OpenAIClient) Personalize(ctx context.Context, template string, profile LeadProfile) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(template, profile)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}

	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("blank completion")
	}
	return text, nil
}
