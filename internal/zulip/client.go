// Package zulip sends private messages and lists users through the Zulip
// REST API, authenticating as a bot with HTTP basic auth.
package zulip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoCredentials is returned when the bot email or API key is missing.
var ErrNoCredentials = errors.New("no Zulip credentials configured, set ZULIP_EMAIL and ZULIP_API_KEY")

// Client talks to one Zulip organization.
type Client struct {
	Site       string
	Email      string
	APIKey     string
	HTTPClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// New creates a client for the organization at site.
func New(site, email, apiKey string, opts ...Option) *Client {
	c := &Client{
		Site:       strings.TrimRight(site, "/"),
		Email:      email,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// User is a member of the organization.
type User struct {
	ID       int    `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsBot    bool   `json:"is_bot"`
	IsActive bool   `json:"is_active"`
}

// APIError is a {"result":"error"} reply.
type APIError struct {
	Status int
	Code   string `json:"code"`
	Msg    string `json:"msg"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("Zulip API error %d (%s): %s", e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("Zulip API error %d: %s", e.Status, e.Msg)
}

// ListUsers returns every member of the organization.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var resp struct {
		Members []User `json:"members"`
	}
	if err := c.do(ctx, http.MethodGet, "users", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return resp.Members, nil
}

// Emails returns the addresses of the human members, skipping bots and
// members without an email.
func Emails(users []User) []string {
	var out []string
	for _, u := range users {
		if u.IsBot || u.Email == "" {
			continue
		}
		out = append(out, u.Email)
	}
	return out
}

// SendPrivate sends content as one private message to every address in to
// and returns the message id.
func (c *Client) SendPrivate(ctx context.Context, to []string, content string) (int, error) {
	if len(to) == 0 {
		return 0, errors.New("sending message: no recipients")
	}
	recipients, err := json.Marshal(to)
	if err != nil {
		return 0, fmt.Errorf("encoding recipients: %w", err)
	}
	form := url.Values{}
	form.Set("type", "private")
	form.Set("to", string(recipients))
	form.Set("content", content)

	var resp struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "messages", form, &resp); err != nil {
		return 0, fmt.Errorf("sending message: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, form url.Values, out any) error {
	if c.Email == "" || c.APIKey == "" {
		return ErrNoCredentials
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Site+"/api/v1/"+endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.Email, c.APIKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("Zulip API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(data, &result); err != nil || resp.StatusCode != http.StatusOK || result.Result != "success" {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Msg == "" {
			apiErr.Msg = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
