// Package firebase verifies Firebase ID tokens against the Identity Toolkit REST API.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidToken is returned when a token is missing, rejected by the
// identity provider, or resolves to no account.
var ErrInvalidToken = errors.New("invalid firebase token")

// Identity is the normalized claim extracted from a verified ID token.
type Identity struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// Client calls the Identity Toolkit accounts:lookup endpoint.
type Client struct {
	baseURL string
	apiKey  string
	logger  *slog.Logger
	http    *http.Client
}

// NewClient creates a verifier for the given API base URL and web API key.
func NewClient(log *slog.Logger, baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("firebase client: base url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("firebase client: api key is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  log.With(slog.String("client", "firebase")),
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []lookupAccount `json:"users"`
}

// The lookup endpoint reports emailVerified as the string "true"/"false".
type lookupAccount struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified string `json:"emailVerified"`
}

// Verify checks rawToken with the identity provider and returns the
// normalized identity. Every rejection path wraps ErrInvalidToken.
func (c *Client) Verify(ctx context.Context, rawToken string) (Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return Identity{}, fmt.Errorf("%w: missing token", ErrInvalidToken)
	}

	body, err := json.Marshal(lookupRequest{IDToken: rawToken})
	if err != nil {
		return Identity{}, fmt.Errorf("encode lookup request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts:lookup?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Identity{}, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("token lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("token verification rejected",
			slog.Int("status", resp.StatusCode),
		)
		return Identity{}, fmt.Errorf("%w: lookup returned status %d: %s", ErrInvalidToken, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Identity{}, fmt.Errorf("decode lookup response: %w", err)
	}
	if len(parsed.Users) == 0 {
		return Identity{}, fmt.Errorf("%w: no account matched the token", ErrInvalidToken)
	}

	account := parsed.Users[0]
	if strings.TrimSpace(account.LocalID) == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	displayName := account.DisplayName
	if displayName == "" {
		displayName = account.Email
	}
	return Identity{
		UID:           account.LocalID,
		Email:         account.Email,
		DisplayName:   displayName,
		EmailVerified: account.EmailVerified == "true",
	}, nil
}
