package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mobbind-dev/mobbind/internal/session"
	"github.com/mobbind-dev/mobbind/internal/upstream"
)

// PasswordLoginRequest represents a password login request
type PasswordLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SendOTPRequest represents a request to email a one-time code
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyOTPRequest represents a one-time code verification request
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,notblank"`
}

// SSOAuthorizeQuery selects the identity provider for delegated sign-on
type SSOAuthorizeQuery struct {
	Provider   string `form:"provider" binding:"required,notblank"`
	RedirectTo string `form:"redirect_to"`
}

// SSOCallbackRequest carries the access token handed back by the identity provider redirect
type SSOCallbackRequest struct {
	AccessToken string `json:"access_token" binding:"required,notblank"`
}

// LoginResponse represents a successful login through any flow
type LoginResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type,omitempty"`
	ExpiresIn int64           `json:"expires_in,omitempty"`
	ExpiresAt int64           `json:"expires_at,omitempty"`
	User      json.RawMessage `json:"user,omitempty"`
	Message   string          `json:"message"`
}

// @Summary Password login
// @Description Sign in to the upstream with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body PasswordLoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/login/password [post]
func (s *Server) loginWithPassword(c *gin.Context) {
	var req PasswordLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	resp, err := s.upstream.PasswordLogin(c.Request.Context(), req.Email, req.Password)
	s.completeLogin(c, "password", req.Email, resp, err)
}

// @Summary Send one-time code
// @Description Ask the upstream to email a one-time login code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Send OTP request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/login/send-otp [post]
func (s *Server) sendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	resp, err := s.upstream.SendOTP(c.Request.Context(), req.Email)
	if err != nil {
		s.upstreamFailure(c, "send-otp", err)
		return
	}
	if !resp.OK() {
		s.logger.Info().Str("email", req.Email).Int("status", resp.Status).Msg("Upstream refused to send one-time code")
		passthrough(c, resp)
		return
	}

	s.logger.Info().Str("email", req.Email).Msg("One-time code sent")
	c.JSON(http.StatusOK, gin.H{"message": "One-time code sent to " + req.Email})
}

// @Summary Verify one-time code
// @Description Exchange an emailed one-time code for an upstream token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verify request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/login/verify [post]
func (s *Server) verifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	resp, err := s.upstream.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	s.completeLogin(c, "otp", req.Email, resp, err)
}

// @Summary Start delegated sign-on
// @Description Returns the upstream URL that starts sign-on with an identity provider
// @Tags auth
// @Produce json
// @Param provider query string true "Identity provider, e.g. google"
// @Param redirect_to query string false "Where the provider sends the browser afterwards"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/login/sso [get]
func (s *Server) ssoAuthorize(c *gin.Context) {
	var q SSOAuthorizeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	redirectTo := q.RedirectTo
	if redirectTo == "" {
		redirectTo = s.config.SSO.RedirectURL
	}

	c.JSON(http.StatusOK, gin.H{
		"provider": q.Provider,
		"url":      s.upstream.AuthorizeURL(q.Provider, redirectTo),
	})
}

// @Summary Complete delegated sign-on
// @Description Validates a provider-issued access token against the upstream
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SSOCallbackRequest true "Callback request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/login/sso/callback [post]
func (s *Server) ssoCallback(c *gin.Context) {
	var req SSOCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	if err := session.CheckToken(req.AccessToken); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	}

	resp, err := s.upstream.GetUser(c.Request.Context(), req.AccessToken)
	if err != nil {
		s.upstreamFailure(c, "sso", err)
		return
	}
	if !resp.OK() {
		s.logger.Info().Int("status", resp.Status).Msg("Upstream rejected sign-on token")
		passthrough(c, resp)
		return
	}

	out := LoginResponse{
		Token:     req.AccessToken,
		TokenType: "bearer",
		User:      resp.Body,
		Message:   "Sign-on successful",
	}
	if info, err := session.Describe(req.AccessToken); err == nil && info.ExpiresAt != nil {
		out.ExpiresAt = info.ExpiresAt.Unix()
		// Left at zero (and omitted) once the token has expired
		if remaining := time.Until(*info.ExpiresAt); remaining > 0 {
			out.ExpiresIn = int64(remaining.Seconds())
		}
	}

	s.logger.Info().Msg("Delegated sign-on completed")
	c.JSON(http.StatusOK, out)
}

// completeLogin turns an upstream token grant into a LoginResponse, or passes the rejection through
func (s *Server) completeLogin(c *gin.Context, method, email string, resp *upstream.Response, err error) {
	if err != nil {
		s.upstreamFailure(c, method+"-login", err)
		return
	}

	if !resp.OK() {
		s.logger.Info().Str("method", method).Str("email", email).Int("status", resp.Status).Msg("Upstream rejected login")
		passthrough(c, resp)
		return
	}

	grant, ok := upstream.DecodeGrant(resp)
	if !ok {
		s.logger.Error().Str("method", method).Int("status", resp.Status).Msg("Upstream login response has no access token")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream response did not include an access token"})
		return
	}

	s.logger.Info().Str("method", method).Str("email", email).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		Token:     grant.AccessToken,
		TokenType: grant.TokenType,
		ExpiresIn: grant.ExpiresIn,
		ExpiresAt: grant.ExpiresAt,
		User:      grant.User,
		Message:   "Login successful",
	})
}
