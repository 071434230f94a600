// Package claude fetches the Claude usage-metering API and flattens its
// response into the fixed metric set.
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/janekbaraniewski/claudewatch/internal/auth"
)

const (
	usageURL       = "https://api.anthropic.com/api/oauth/usage"
	requestTimeout = 15 * time.Second
)

// ErrUnauthorized marks a 401 from the usage endpoint, distinct from other
// HTTP failures so callers can trigger re-authorization.
var ErrUnauthorized = errors.New("usage API rejected the access token")

// RawSnapshot is one poll's response as a loosely-typed tree. Sections and
// fields are looked up defensively; the transformer tolerates anything
// missing or malformed.
type RawSnapshot map[string]any

// Client issues authenticated reads against the usage endpoint.
type Client struct {
	httpClient *http.Client
	usageURL   string
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		httpClient: httpClient,
		usageURL:   usageURL,
	}
}

func (c *Client) FetchUsage(ctx context.Context, accessToken string) (RawSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.usageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating usage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("anthropic-beta", auth.BetaHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w (HTTP 401)", ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("usage API returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading usage response: %w", err)
	}

	var raw RawSnapshot
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing usage response: %w", err)
	}
	return raw, nil
}
