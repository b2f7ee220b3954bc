package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// TokenGrant is the body the upstream auth API returns after a successful sign-in
type TokenGrant struct {
	AccessToken  string          `json:"access_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	ExpiresAt    int64           `json:"expires_at"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user"`
}

// DecodeGrant extracts a TokenGrant from a successful login response.
// The boolean is false when the body carries no access token.
func DecodeGrant(resp *Response) (*TokenGrant, bool) {
	var grant TokenGrant
	if err := json.Unmarshal(resp.Body, &grant); err != nil {
		return nil, false
	}
	if grant.AccessToken == "" {
		return nil, false
	}
	return &grant, true
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email      string `json:"email"`
	CreateUser bool   `json:"create_user"`
}

type verifyRequest struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// PasswordLogin signs in with email and password
func (c *Client) PasswordLogin(ctx context.Context, email, password string) (*Response, error) {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/v1/token",
		Query:  url.Values{"grant_type": {"password"}},
		Body:   passwordGrantRequest{Email: email, Password: password},
	})
}

// SendOTP asks the upstream to email a one-time code. Accounts are never created.
func (c *Client) SendOTP(ctx context.Context, email string) (*Response, error) {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/v1/otp",
		Body:   otpRequest{Email: email, CreateUser: false},
	})
}

// VerifyOTP exchanges an emailed one-time code for a session
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*Response, error) {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/v1/verify",
		Body:   verifyRequest{Type: "email", Email: email, Token: otp},
	})
}

// GetUser returns the account behind a bearer token
func (c *Client) GetUser(ctx context.Context, token string) (*Response, error) {
	return c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/auth/v1/user",
		Token:  token,
	})
}

// AuthorizeURL builds the upstream URL that starts a delegated sign-on with provider
func (c *Client) AuthorizeURL(provider, redirectTo string) string {
	q := url.Values{"provider": {provider}}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}
