package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client represents an HTTP client for a mobbind server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client for the server at serverURL
func New(serverURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// LoginResponse represents a successful login through any flow
type LoginResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresAt int64           `json:"expires_at"`
	User      json.RawMessage `json:"user"`
	Message   string          `json:"message"`
}

// Email returns the account email echoed by the upstream, if any
func (r *LoginResponse) Email() string {
	var user struct {
		Email string `json:"email"`
	}
	_ = json.Unmarshal(r.User, &user)
	return user.Email
}

// App is one upstream catalogue entry, kept as returned
type App map[string]any

// Session describes the token the server would forward
type Session struct {
	Authenticated bool       `json:"authenticated"`
	Source        string     `json:"source"`
	Subject       string     `json:"subject"`
	Email         string     `json:"email"`
	ExpiresAt     *time.Time `json:"expires_at"`
	Expired       bool       `json:"expired"`
}

// Error is a non-success answer from the server
type Error struct {
	Op     string
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, e.Body)
}

// Unauthorized reports whether the server or upstream refused the token or credentials
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// LoginWithPassword signs in with email and password
func (c *Client) LoginWithPassword(email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do("login", http.MethodPost, "/api/login/password", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendOTP asks the server to email a one-time code
func (c *Client) SendOTP(email string) error {
	return c.do("send one-time code", http.MethodPost, "/api/login/send-otp", "", map[string]string{
		"email": email,
	}, nil)
}

// VerifyOTP exchanges a one-time code for a token
func (c *Client) VerifyOTP(email, otp string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do("verify one-time code", http.MethodPost, "/api/login/verify", "", map[string]string{
		"email": email,
		"otp":   otp,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search runs a search with the given token
func (c *Client) Search(token, query, platform string) ([]App, error) {
	q := url.Values{"q": {query}}
	if platform != "" {
		q.Set("platform", platform)
	}

	var apps []App
	if err := c.do("search", http.MethodGet, "/api/search?"+q.Encode(), token, nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// Latest lists the most recently updated apps
func (c *Client) Latest(token string, limit int, platform string) ([]App, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if platform != "" {
		q.Set("platform", platform)
	}

	path := "/api/latest-apps"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var apps []App
	if err := c.do("latest apps", http.MethodGet, path, token, nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// Session describes token as seen by the server
func (c *Client) Session(token string) (*Session, error) {
	var s Session
	if err := c.do("session", http.MethodGet, "/api/session", token, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) do(op, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &Error{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
