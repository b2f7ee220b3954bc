package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mobbind-dev/mobbind/internal/session"
)

// SearchQuery represents the query string of a search request
type SearchQuery struct {
	Q        string `form:"q" binding:"required,notblank"`
	Platform string `form:"platform" binding:"omitempty,platform"`
}

// LatestQuery represents the query string of a latest-apps request
type LatestQuery struct {
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Platform string `form:"platform" binding:"omitempty,platform"`
}

// SessionResponse describes the token a request would forward upstream
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	Source        string     `json:"source"`
	Subject       string     `json:"subject,omitempty"`
	Email         string     `json:"email,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Expired       bool       `json:"expired"`
}

// @Summary Search apps
// @Description Full-text search over app names, forwarded to the upstream with the caller's token
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search query"
// @Param platform query string false "ios, android or web"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/search [get]
func (s *Server) searchApps(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	token, _ := upstreamToken(c)
	resp, err := s.upstream.SearchApps(c.Request.Context(), token, q.Q, s.platform(q.Platform))
	if err != nil {
		s.upstreamFailure(c, "search", err)
		return
	}

	passthrough(c, resp)
}

// @Summary Latest apps
// @Description Most recently updated apps, newest first
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param limit query int false "1-100, default 20"
// @Param platform query string false "ios, android or web"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/latest-apps [get]
func (s *Server) latestApps(c *gin.Context) {
	var q LatestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	token, _ := upstreamToken(c)
	resp, err := s.upstream.LatestApps(c.Request.Context(), token, q.Limit, s.platform(q.Platform))
	if err != nil {
		s.upstreamFailure(c, "latest-apps", err)
		return
	}

	passthrough(c, resp)
}

// @Summary Describe session
// @Description Decodes the forwarded token's claims without calling the upstream
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/session [get]
func (s *Server) getSession(c *gin.Context) {
	token, source := upstreamToken(c)

	out := SessionResponse{
		Authenticated: true,
		Source:        source,
	}
	if info, err := session.Describe(token); err == nil {
		out.Subject = info.Subject
		out.Email = info.Email
		out.ExpiresAt = info.ExpiresAt
		out.Expired = info.Expired(time.Now())
	}

	c.JSON(http.StatusOK, out)
}

func (s *Server) platform(requested string) string {
	if requested != "" {
		return requested
	}
	return s.config.Upstream.Platform
}
