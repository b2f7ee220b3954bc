package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const appsPath = "/rest/v1/apps"

// FullTextQuery turns a free-form query into the upstream full-text filter.
// Words are OR-ed together.
func FullTextQuery(query string) string {
	return strings.Join(strings.Fields(query), "|")
}

// SearchApps runs a full-text search over app names on one platform
func (c *Client) SearchApps(ctx context.Context, token, query, platform string) (*Response, error) {
	return c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   appsPath,
		Query: url.Values{
			"select":   {"*"},
			"platform": {"eq." + platform},
			"appName":  {"fts." + FullTextQuery(query)},
		},
		Token: token,
	})
}

// LatestApps lists the most recently updated apps on one platform
func (c *Client) LatestApps(ctx context.Context, token string, limit int, platform string) (*Response, error) {
	return c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   appsPath,
		Query: url.Values{
			"select":   {"*"},
			"platform": {"eq." + platform},
			"order":    {"updatedAt.desc"},
			"limit":    {strconv.Itoa(limit)},
		},
		Token: token,
	})
}
