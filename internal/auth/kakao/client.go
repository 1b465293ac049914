// Package kakao fetches the Kakao profile behind a user's Kakao access
// token. The mobile apps run the Kakao login themselves and hand the
// resulting token to the auth service.
package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://kapi.kakao.com"
	DefaultTimeout = 5 * time.Second

	profilePath      = "/v2/user/me"
	maxResponseBytes = 1 << 20
)

var (
	// ErrTokenRejected means Kakao did not accept the access token.
	ErrTokenRejected = errors.New("kakao: access token rejected")

	// ErrUnavailable covers transport failures and unusable responses.
	ErrUnavailable = errors.New("kakao: profile unavailable")
)

// Profile is the part of /v2/user/me the auth service reads.
type Profile struct {
	ID         int64 `json:"id"`
	Properties struct {
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"properties"`
}

// Nickname falls back to a generic name when the user shared none.
func (p Profile) Nickname() string {
	if n := strings.TrimSpace(p.Properties.Nickname); n != "" {
		return n
	}
	return "카카오 사용자"
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// FetchProfile resolves accessToken to the Kakao account it was issued for.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+profilePath, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("kakao: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Profile{}, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return Profile{}, fmt.Errorf("%w: HTTP %d", ErrTokenRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Profile{}, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("%w: decode profile: %w", ErrUnavailable, err)
	}
	if p.ID <= 0 {
		return Profile{}, fmt.Errorf("%w: profile has no id", ErrUnavailable)
	}
	return p, nil
}
