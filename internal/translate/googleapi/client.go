// Package googleapi implements the primary translation provider against a
// Google Cloud Translation v2 style REST endpoint.
package googleapi

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

// Config captures the settings required to call the translation endpoint.
type Config struct {
	APIKey         string
	Endpoint       string
	TimeoutSeconds int
}

// Client is the primary provider in the fallback chain.
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
			APIKey:         strings.TrimSpace(cfg.APIKey),
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
func (c *Client) Name() string { return "google" }

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Translate implements translate.Provider. Auth, quota, network, and
// malformed-response failures all surface as provider errors so the chain
// falls through to the next tier.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "translate", "google", "api key not configured", nil)
	}
	payload := map[string]string{
		"q":      text,
		"target": targetLanguage,
		"format": "text",
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "google", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"?key="+c.cfg.APIKey, bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "google", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "google", "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "google", "read response", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", services.Wrap(services.ErrProvider, "translate", "google",
			fmt.Sprintf("auth rejected (http %d)", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", services.Wrap(services.ErrProvider, "translate", "google", "quota exceeded (http 429)", nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return "", services.Wrap(services.ErrProvider, "translate", "google",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded translateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "google", "malformed response", err)
	}
	if decoded.Error != nil {
		return "", services.Wrap(services.ErrProvider, "translate", "google",
			fmt.Sprintf("api error %d: %s", decoded.Error.Code, decoded.Error.Message), nil)
	}
	if len(decoded.Data.Translations) == 0 {
		return "", services.Wrap(services.ErrProvider, "translate", "google", "response carried no translations", nil)
	}
	return decoded.Data.Translations[0].TranslatedText, nil
}
