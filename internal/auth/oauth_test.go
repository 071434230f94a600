package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/janekbaraniewski/claudewatch/internal/core"
)

func testClient(server *httptest.Server, now time.Time) *Client {
	c := NewClient(server.Client())
	c.tokenURL = server.URL + "/token"
	c.profileURL = server.URL + "/profile"
	c.now = func() time.Time { return now }
	return c
}

func TestAuthorizeURL(t *testing.T) {
	c := NewClient(nil)
	raw := c.AuthorizeURL("chal-123", "state-456")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthorizeURL() not parseable: %v", err)
	}
	q := u.Query()
	for key, want := range map[string]string{
		"client_id":             oauthClientID,
		"response_type":         "code",
		"redirect_uri":          oauthRedirectURI,
		"code_challenge":        "chal-123",
		"code_challenge_method": "S256",
		"state":                 "state-456",
		"code":                  "true",
	} {
		if got := q.Get(key); got != want {
			t.Errorf("query %s = %q, want %q", key, got, want)
		}
	}
}

func TestExchangeCode_StateMismatchFailsBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"access_token":"at"}`))
	}))
	defer server.Close()

	c := testClient(server, time.Now())
	_, err := c.ExchangeCode(context.Background(), "ABC#zzz", "verifier", "yyy")
	if !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("error = %v, want ErrStateMismatch", err)
	}
	if calls.Load() != 0 {
		t.Errorf("token endpoint received %d calls, want 0", calls.Load())
	}
}

func TestExchangeCode_SplitsCodeAndState(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"expires_in":    1800,
		})
	}))
	defer server.Close()

	c := testClient(server, now)
	creds, err := c.ExchangeCode(context.Background(), "ABC#mystate", "ver-1", "mystate")
	if err != nil {
		t.Fatalf("ExchangeCode() error: %v", err)
	}

	if gotForm.Get("grant_type") != "authorization_code" {
		t.Errorf("grant_type = %q", gotForm.Get("grant_type"))
	}
	if gotForm.Get("code") != "ABC" {
		t.Errorf("code = %q, want ABC", gotForm.Get("code"))
	}
	if gotForm.Get("state") != "mystate" {
		t.Errorf("state = %q, want mystate", gotForm.Get("state"))
	}
	if gotForm.Get("code_verifier") != "ver-1" {
		t.Errorf("code_verifier = %q, want ver-1", gotForm.Get("code_verifier"))
	}

	if creds.AccessToken != "at-1" || creds.RefreshToken != "rt-1" {
		t.Errorf("creds = %+v", creds)
	}
	if want := float64(now.Unix()) + 1800; creds.ExpiresAt != want {
		t.Errorf("ExpiresAt = %v, want %v", creds.ExpiresAt, want)
	}
}

func TestExchangeCode_NoStateInCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at-2"}`))
	}))
	defer server.Close()

	c := testClient(server, time.Now())
	creds, err := c.ExchangeCode(context.Background(), "PLAINCODE", "ver", "expected")
	if err != nil {
		t.Fatalf("ExchangeCode() error: %v", err)
	}
	if creds.AccessToken != "at-2" {
		t.Errorf("AccessToken = %q", creds.AccessToken)
	}
}

func TestExchangeCode_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad code", http.StatusBadRequest)
			},
		},
		{
			name: "missing access token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"refresh_token":"rt"}`))
			},
			wantErr: ErrMissingAccessToken,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := testClient(server, time.Now())
			_, err := c.ExchangeCode(context.Background(), "CODE", "ver", "")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureValid_SkipsFreshToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"access_token":"new"}`))
	}))
	defer server.Close()

	c := testClient(server, now)
	creds := core.Credentials{
		AccessToken:  "still-good",
		RefreshToken: "rt",
		ExpiresAt:    float64(now.Unix()) + 120,
	}

	got, refreshed, err := c.EnsureValid(context.Background(), creds)
	if err != nil {
		t.Fatalf("EnsureValid() error: %v", err)
	}
	if refreshed {
		t.Error("refreshed = true, want false")
	}
	if got != creds {
		t.Errorf("credentials changed: %+v", got)
	}
	if calls.Load() != 0 {
		t.Errorf("token endpoint received %d calls, want 0", calls.Load())
	}
}

func TestEnsureValid_RefreshesExpiringToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "rt-old" {
			t.Errorf("refresh_token = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-new",
			"refresh_token": "rt-new",
			"expires_in":    7200,
		})
	}))
	defer server.Close()

	c := testClient(server, now)
	creds := core.Credentials{
		AccessToken:  "at-old",
		RefreshToken: "rt-old",
		ExpiresAt:    float64(now.Unix()) + 30,
	}

	got, refreshed, err := c.EnsureValid(context.Background(), creds)
	if err != nil {
		t.Fatalf("EnsureValid() error: %v", err)
	}
	if !refreshed {
		t.Error("refreshed = false, want true")
	}
	if calls.Load() != 1 {
		t.Errorf("token endpoint received %d calls, want exactly 1", calls.Load())
	}
	if got.AccessToken != "at-new" || got.RefreshToken != "rt-new" {
		t.Errorf("credentials = %+v", got)
	}
	if want := float64(now.Unix()) + 7200; got.ExpiresAt != want {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want)
	}
}

func TestEnsureValid_KeepsRefreshTokenWhenOmitted(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at-new"}`))
	}))
	defer server.Close()

	c := testClient(server, now)
	got, refreshed, err := c.EnsureValid(context.Background(), core.Credentials{
		AccessToken:  "at-old",
		RefreshToken: "rt-keep",
		ExpiresAt:    float64(now.Unix()),
	})
	if err != nil {
		t.Fatalf("EnsureValid() error: %v", err)
	}
	if !refreshed {
		t.Error("refreshed = false, want true")
	}
	if got.RefreshToken != "rt-keep" {
		t.Errorf("RefreshToken = %q, want carried-over rt-keep", got.RefreshToken)
	}
	// Missing expires_in falls back to one hour.
	if want := float64(now.Unix()) + 3600; got.ExpiresAt != want {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want)
	}
}

func TestEnsureValid_NoRefreshToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewClient(nil)
	c.now = func() time.Time { return now }

	_, _, err := c.EnsureValid(context.Background(), core.Credentials{
		AccessToken: "expired",
		ExpiresAt:   float64(now.Unix()) - 100,
	})
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Errorf("error = %v, want ErrNoRefreshToken", err)
	}
}

func TestEnsureValid_RefreshFailurePropagates(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	c := testClient(server, now)
	_, _, err := c.EnsureValid(context.Background(), core.Credentials{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    float64(now.Unix()),
	})
	if err == nil {
		t.Fatal("expected error from failed refresh")
	}
}

func TestFetchProfile(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantName  string
		wantLevel string
	}{
		{
			name: "display name and max tier",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("anthropic-beta"); got != BetaHeader {
					t.Errorf("anthropic-beta = %q", got)
				}
				w.Write([]byte(`{"account":{"display_name":"Ada","has_claude_max":true,"has_claude_pro":true}}`))
			},
			wantName:  "Ada",
			wantLevel: "Max",
		},
		{
			name: "falls back to email and pro tier",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"account":{"email":"ada@example.com","has_claude_pro":true}}`))
			},
			wantName:  "ada@example.com",
			wantLevel: "Pro",
		},
		{
			name: "http failure is best-effort",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body is best-effort",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := testClient(server, time.Now())
			name, level := c.FetchProfile(context.Background(), "tok")
			if name != tt.wantName || level != tt.wantLevel {
				t.Errorf("FetchProfile() = (%q, %q), want (%q, %q)", name, level, tt.wantName, tt.wantLevel)
			}
		})
	}
}
