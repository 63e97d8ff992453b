package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://graph.facebook.com/v19.0"

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
}

// NewClient constructs a Cloud API client. baseURL may be empty to use
// the public Graph endpoint; tests point it at a local server.
func NewClient(baseURL, accessToken, phoneNumberID string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Text             sendText `json:"text"`
}

type sendText struct {
	Body string `json:"body"`
}

// Send delivers a text message to a phone number.
func (c *Client) Send(ctx context.Context, to, body string) error {
	if c.accessToken == "" {
		return nil
	}

	payload := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Text:             sendText{Body: body},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp send: http %d", resp.StatusCode)
	}
	return nil
}
