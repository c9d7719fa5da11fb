// Package paste uploads long results to a hastebin compatible paste service.
package paste

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type documentResponse struct {
	Key string `json:"key"`
}

// Submit posts text to /documents and returns the URL of the created paste.
func (c *Client) Submit(ctx context.Context, text string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", strings.NewReader(text))
	if err != nil {
		return "", fmt.Errorf("creating paste request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading paste: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("paste service returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var doc documentResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decoding paste response: %w", err)
	}

	if doc.Key == "" {
		return "", fmt.Errorf("paste service returned no key")
	}

	url := c.baseURL + "/" + doc.Key
	log.Debug().Str("url", url).Int("length", len(text)).Msg("created paste")

	return url, nil
}
