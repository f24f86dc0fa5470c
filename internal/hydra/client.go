// Package hydra talks to the OAuth2 provider's admin introspection endpoint.
package hydra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Introspection is the subset of the introspection response the service
// cares about.
type Introspection struct {
	Active      bool   `json:"active"`
	Subject     string `json:"sub"`
	VisitorType string `json:"visitor_typ"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Introspect asks the provider whether an access token is active and who it
// belongs to. An inactive token is not an error; callers check Active.
func (c *Client) Introspect(ctx context.Context, token string) (Introspection, error) {
	form := url.Values{}
	form.Set("token", token)

	endpoint := c.baseURL + "/admin/oauth2/introspect"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Introspection{}, fmt.Errorf("build introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Introspection{}, fmt.Errorf("introspect token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Introspection{}, fmt.Errorf("introspect token: unexpected status %d", resp.StatusCode)
	}

	var result Introspection
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Introspection{}, fmt.Errorf("decode introspect response: %w", err)
	}
	return result, nil
}
