package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hubdesk/internal/models"
)

// Suggestion is the structured guess the inference collaborator returns
// for a free-text booking description. Every field is optional: the
// collaborator is untrusted and its output is advisory prefill data only.
type Suggestion struct {
	FacilityID string `json:"facility_id,omitempty"`
	Date       string `json:"date,omitempty"` // YYYY-MM-DD
	Time       string `json:"time,omitempty"` // HH:MM
	Project    string `json:"project,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Client calls the external inference endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type suggestRequest struct {
	Prompt string `json:"prompt"`
}

// Suggest sends the prompt and decodes the structured guess. Transport
// and server failures surface as ErrUpstreamUnavailable so callers can
// degrade gracefully.
func (c *Client) Suggest(ctx context.Context, prompt string) (*Suggestion, error) {
	data, err := json.Marshal(suggestRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/suggest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d", models.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var suggestion Suggestion
	if err := json.NewDecoder(resp.Body).Decode(&suggestion); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", models.ErrUpstreamUnavailable, err)
	}
	return &suggestion, nil
}
