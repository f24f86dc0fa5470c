// Package userdir resolves user ids to display names through the user
// management service.
package userdir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// User is a directory entry. Only id and name are requested on the hot
// path; the remaining fields come back when a caller asks for them.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email,omitempty"`
	Telephone string   `json:"telephone,omitempty"`
	CSFLevel  int      `json:"csf_level,omitempty"`
	Frozen    bool     `json:"frozen,omitempty"`
	Roles     []string `json:"roles,omitempty"`
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

// Users fetches the requested fields for a batch of user ids. Unknown ids are
// simply absent from the result.
func (c *Client) Users(ctx context.Context, ids []string, fields []string) (map[string]User, error) {
	if len(ids) == 0 {
		return map[string]User{}, nil
	}
	if len(fields) == 0 {
		fields = []string{"id", "name"}
	}

	endpoint := fmt.Sprintf("%s/api/user-management/v1/users/%s/%s",
		c.baseURL, strings.Join(ids, ","), strings.Join(fields, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build users request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch users: unexpected status %d", resp.StatusCode)
	}

	var entries []User
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode users response: %w", err)
	}

	users := make(map[string]User, len(entries))
	for _, entry := range entries {
		users[entry.ID] = entry
	}
	return users, nil
}

// UserName resolves a single user id to a display name. It falls back to the
// id itself when the directory has no entry.
func (c *Client) UserName(ctx context.Context, id string) (string, error) {
	users, err := c.Users(ctx, []string{id}, []string{"id", "name"})
	if err != nil {
		return "", err
	}
	if user, ok := users[id]; ok && user.Name != "" {
		return user.Name, nil
	}
	return id, nil
}
