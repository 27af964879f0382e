// Package diagnosis runs the symptom intake flow: classify free-text input,
// cache the session state, and surface matching doctors.
package diagnosis

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

// ClientConfig describes how to reach the symptom classifier service.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the external symptom classifier.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient validates the configuration and returns a ready-to-use client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("diagnosis: base URL required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Analysis is the classifier's verdict on a symptom description.
type Analysis struct {
	Symptoms        []string `json:"symptoms"`
	Diagnosis       string   `json:"diagnosis"`
	SuggestedFields []string `json:"suggested_fields"`
}

// Analyze sends the patient's free-text input to the classifier.
func (c *Client) Analyze(ctx context.Context, userInput string) (*Analysis, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, errors.New("diagnosis: user input required")
	}

	payload, err := json.Marshal(map[string]string{"user_input": userInput})
	if err != nil {
		return nil, fmt.Errorf("diagnosis: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("diagnosis: request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diagnosis: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("diagnosis: read response failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("diagnosis: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var out Analysis
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("diagnosis: decode response failed: %w", err)
	}
	return &out, nil
}
