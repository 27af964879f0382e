// Package video grants access to appointment call rooms via an external
// token service.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ClientConfig describes how to reach the token service.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// TokenClient requests room access tokens.
type TokenClient struct {
	baseURL string
	http    *http.Client
}

// NewTokenClient validates the configuration and returns a ready-to-use
// client.
func NewTokenClient(cfg ClientConfig) (*TokenClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("video: base URL required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TokenClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// GenerateToken requests an access token for the identity to join roomName.
func (c *TokenClient) GenerateToken(ctx context.Context, roomName, identity string) (string, error) {
	if roomName == "" || identity == "" {
		return "", errors.New("video: room name and identity required")
	}

	payload, err := json.Marshal(map[string]string{
		"roomName": roomName,
		"identity": identity,
	})
	if err != nil {
		return "", fmt.Errorf("video: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-token", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("video: request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("video: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("video: read response failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("video: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("video: decode response failed: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("video: token service returned an empty token")
	}
	return out.Token, nil
}
