package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mobbind-dev/mobbind/internal/upstream"
)

// passthrough writes the upstream status and body back unmodified
func passthrough(c *gin.Context, resp *upstream.Response) {
	c.Data(resp.Status, "application/json; charset=utf-8", resp.Body)
}

// upstreamFailure reports a network or parse failure without leaking its details
func (s *Server) upstreamFailure(c *gin.Context, op string, err error) {
	s.logger.Error().
		Err(err).
		Str("op", op).
		Str("request_id", c.GetString(requestIDKey)).
		Msg("Upstream call failed")
	c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream service unavailable"})
}
