// Package auth implements the Claude OAuth flow: PKCE authorization-code
// exchange, silent refresh and the best-effort profile lookup.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/janekbaraniewski/claudewatch/internal/core"
)

const (
	oauthClientID    = "9d1c250a-e61b-44d9-88ed-5944d1962f5e"
	authorizeURL     = "https://claude.ai/oauth/authorize"
	tokenURL         = "https://console.anthropic.com/v1/oauth/token"
	profileURL       = "https://api.anthropic.com/api/oauth/profile"
	oauthRedirectURI = "https://console.anthropic.com/oauth/code/callback"
	oauthScopes      = "org:create_api_key user:profile user:inference"

	// BetaHeader must accompany every authenticated API call.
	BetaHeader = "oauth-2025-04-20"

	// The token endpoint accepts both form-encoded and JSON bodies for the
	// code grant; this client always posts form-encoded and always sends the
	// returned state, matching the state-validating flow.
	requestTimeout = 15 * time.Second

	defaultExpiresIn = 3600 * time.Second
	refreshMargin    = 60 * time.Second
)

var (
	ErrStateMismatch      = errors.New("oauth state mismatch")
	ErrNoRefreshToken     = errors.New("no refresh token available")
	ErrMissingAccessToken = errors.New("token response missing access_token")
)

type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    float64 `json:"expires_in"`
}

// Client talks to the fixed Claude OAuth endpoints. The HTTP client is
// injected so callers share one transport and tests can point at a fake.
type Client struct {
	httpClient   *http.Client
	authorizeURL string
	tokenURL     string
	profileURL   string
	clientID     string
	redirectURI  string
	scopes       string

	now func() time.Time
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		httpClient:   httpClient,
		authorizeURL: authorizeURL,
		tokenURL:     tokenURL,
		profileURL:   profileURL,
		clientID:     oauthClientID,
		redirectURI:  oauthRedirectURI,
		scopes:       oauthScopes,
		now:          time.Now,
	}
}

// AuthorizeURL builds the browser URL the user visits to approve access.
func (c *Client) AuthorizeURL(challenge, state string) string {
	params := url.Values{
		"code":                  {"true"},
		"client_id":             {c.clientID},
		"response_type":         {"code"},
		"redirect_uri":          {c.redirectURI},
		"scope":                 {c.scopes},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
		"state":                 {state},
	}
	return c.authorizeURL + "?" + params.Encode()
}

// ExchangeCode trades a pasted authorization code for credentials. The
// pasted value may carry the returned state after a '#'; when both an
// expected and a returned state exist and differ, the exchange is rejected
// before any network call.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier, expectedState string) (core.Credentials, error) {
	authCode, returnedState, _ := strings.Cut(code, "#")

	if returnedState != "" && expectedState != "" && returnedState != expectedState {
		return core.Credentials{}, fmt.Errorf("%w: possible CSRF, refusing code exchange", ErrStateMismatch)
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {authCode},
		"state":         {returnedState},
		"client_id":     {c.clientID},
		"redirect_uri":  {c.redirectURI},
		"code_verifier": {verifier},
	}

	token, err := c.postTokenForm(ctx, form)
	if err != nil {
		return core.Credentials{}, fmt.Errorf("code exchange: %w", err)
	}

	return c.credentialsFromToken(token, ""), nil
}

// EnsureValid returns usable credentials, refreshing them when the access
// token is inside the safety margin of expiry. The second return reports
// whether a refresh happened and the record should be persisted.
func (c *Client) EnsureValid(ctx context.Context, creds core.Credentials) (core.Credentials, bool, error) {
	if creds.Fresh(c.now(), refreshMargin) {
		return creds, false, nil
	}

	if creds.RefreshToken == "" {
		return core.Credentials{}, false, fmt.Errorf("%w: re-authorization required", ErrNoRefreshToken)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {creds.RefreshToken},
		"client_id":     {c.clientID},
	}

	token, err := c.postTokenForm(ctx, form)
	if err != nil {
		return core.Credentials{}, false, fmt.Errorf("token refresh: %w", err)
	}

	return c.credentialsFromToken(token, creds.RefreshToken), true, nil
}

// credentialsFromToken builds a complete record in one shot so a partial
// update is never observable. Servers may omit refresh-token rotation, in
// which case the previous refresh token is kept.
func (c *Client) credentialsFromToken(token tokenResponse, previousRefreshToken string) core.Credentials {
	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = previousRefreshToken
	}
	expiresIn := time.Duration(token.ExpiresIn) * time.Second
	if token.ExpiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	return core.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    float64(c.now().Unix()) + expiresIn.Seconds(),
	}
}

func (c *Client) postTokenForm(ctx context.Context, form url.Values) (tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Body intentionally dropped from the error: it can echo secrets.
		return tokenResponse{}, fmt.Errorf("token endpoint returned HTTP %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return tokenResponse{}, fmt.Errorf("parsing token response: %w", err)
	}
	if token.AccessToken == "" {
		return tokenResponse{}, ErrMissingAccessToken
	}
	return token, nil
}

type profileResponse struct {
	Account struct {
		DisplayName  string `json:"display_name"`
		FullName     string `json:"full_name"`
		Email        string `json:"email"`
		HasClaudeMax bool   `json:"has_claude_max"`
		HasClaudePro bool   `json:"has_claude_pro"`
	} `json:"account"`
}

// FetchProfile looks up the account display name and subscription level.
// Best-effort: any failure yields empty strings, never an error, since the
// metadata is cosmetic.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (name, subscriptionLevel string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return "", ""
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("anthropic-beta", BetaHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("profile request failed: %v", err)
		return "", ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("profile request returned HTTP %d", resp.StatusCode)
		return "", ""
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		log.Printf("parsing profile response: %v", err)
		return "", ""
	}

	account := profile.Account
	name = account.DisplayName
	if name == "" {
		name = account.FullName
	}
	if name == "" {
		name = account.Email
	}

	// Higher tier wins when both entitlement flags are set.
	switch {
	case account.HasClaudeMax:
		subscriptionLevel = "Max"
	case account.HasClaudePro:
		subscriptionLevel = "Pro"
	}

	return name, subscriptionLevel
}
