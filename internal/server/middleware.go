package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/mobbind-dev/mobbind/internal/session"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	tokenKey        = "upstream_token"
	tokenSourceKey  = "token_source"

	tokenQueryParam = "access_token"
)

// Where a request's upstream token came from
const (
	TokenSourceHeader  = "header"
	TokenSourceQuery   = "query"
	TokenSourceDefault = "default"
)

// ErrTokenRequired means a protected route got no token and no default is configured
var ErrTokenRequired = errors.New("upstream token required")

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// requestIDMiddleware tags every request with a ULID, reusing one supplied by the caller
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// UpstreamTokenMiddleware resolves the bearer token to forward upstream.
// The Authorization header wins over the access_token query parameter, which
// wins over the configured default token. No token means 401.
func UpstreamTokenMiddleware(defaultToken string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, source, err := resolveToken(c, defaultToken)
		if err != nil {
			var message string
			switch {
			case errors.Is(err, session.ErrInvalidAuthFormat):
				message = "Invalid authorization header format"
			case errors.Is(err, session.ErrEmptyToken):
				message = "Empty token"
			case errors.Is(err, session.ErrInvalidToken):
				message = "Invalid token"
			default:
				message = "Authorization required: log in and supply a bearer token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		c.Set(tokenKey, token)
		c.Set(tokenSourceKey, source)
		c.Next()
	}
}

func resolveToken(c *gin.Context, defaultToken string) (string, string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, err := session.BearerToken(header)
		if err != nil {
			return "", "", err
		}
		return token, TokenSourceHeader, nil
	}

	if token := c.Query(tokenQueryParam); strings.TrimSpace(token) != "" {
		if err := session.CheckToken(token); err != nil {
			return "", "", err
		}
		return token, TokenSourceQuery, nil
	}

	if defaultToken != "" {
		return defaultToken, TokenSourceDefault, nil
	}

	return "", "", ErrTokenRequired
}

// upstreamToken returns the token resolved by UpstreamTokenMiddleware
func upstreamToken(c *gin.Context) (token, source string) {
	return c.GetString(tokenKey), c.GetString(tokenSourceKey)
}
