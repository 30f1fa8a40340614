// Package libre implements the secondary translation provider against a
// LibreTranslate style endpoint. No API key is required, which makes it the
// free-but-less-reliable middle tier of the fallback chain.
package libre

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docket/internal/services"
)

const defaultTimeout = 15 * time.Second

// Config captures the settings required to call the endpoint.
type Config struct {
	Endpoint       string
	TimeoutSeconds int
}

// Client is the secondary provider in the fallback chain.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (useful for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a provider client from configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Endpoint:       strings.TrimSpace(cfg.Endpoint),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name implements translate.Provider.
func (c *Client) Name() string { return "libre" }

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Translate implements translate.Provider.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	payload := map[string]string{
		"q":      text,
		"source": "auto",
		"target": targetLanguage,
		"format": "text",
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "libre", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "libre", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "libre", "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "libre", "read response", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", services.Wrap(services.ErrProvider, "translate", "libre",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded translateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "libre", "malformed response", err)
	}
	if decoded.Error != "" {
		return "", services.Wrap(services.ErrProvider, "translate", "libre", "api error: "+decoded.Error, nil)
	}
	if strings.TrimSpace(decoded.TranslatedText) == "" {
		return "", services.Wrap(services.ErrProvider, "translate", "libre", "response carried no translation", nil)
	}
	return decoded.TranslatedText, nil
}
