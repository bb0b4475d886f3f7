package whatsapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CallMeBot sends WhatsApp messages through the CallMeBot HTTP API.
type CallMeBot struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCallMeBot(baseURL, apiKey string) *CallMeBot {
	return &CallMeBot{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *CallMeBot) Send(ctx context.Context, destination, message string) error {
	q := url.Values{}
	q.Set("phone", digits(destination))
	q.Set("text", message)
	q.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/whatsapp.php?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send WhatsApp message: %s", strings.TrimSpace(string(body)))
	}
	return nil
}
