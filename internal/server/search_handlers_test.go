package server

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobbind-dev/mobbind/internal/session"
)

func TestSearch_ReturnsUpstreamResultsUnmodified(t *testing.T) {
	up := newFakeUpstream(t)
	h := newTestServer(t, testConfig(up.URL))

	rec := doRequest(h, http.MethodGet, "/api/search?q=uber", nil, bearer(testToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, searchResultBody, rec.Body.String())

	auth, query, _ := up.seen()
	assert.Equal(t, "Bearer "+testToken, auth)
	values, err := url.ParseQuery(query)
	require.NoError(t, err)
	assert.Equal(t, "fts.uber", values.Get("appName"))
	assert.Equal(t, "eq.ios", values.Get("platform"))
	assert.Equal(t, "*", values.Get("select"))
}

func TestSearch_PlatformAndMultiWordQuery(t *testing.T) {
	up := newFakeUpstream(t)
	h := newTestServer(t, testConfig(up.URL))

	rec := doRequest(h, http.MethodGet, "/api/search?q=food+delivery&platform=android", nil, bearer(testToken))
	require.Equal(t, http.StatusOK, rec.Code)

	_, query, _ := up.seen()
	values, _ := url.ParseQuery(query)
	assert.Equal(t, "fts.food|delivery", values.Get("appName"))
	assert.Equal(t, "eq.android", values.Get("platform"))

	before := up.hits.Load()
	rec = doRequest(h, http.MethodGet, "/api/search?q=uber&platform=watchos", nil, bearer(testToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "platform must be one of")
	assert.Equal(t, before, up.hits.Load())
}

func TestSearch_UpstreamRejectionPassesThrough(t *testing.T) {
	up := newUpstreamFunc(t, http.StatusUnauthorized, `{"code":"PGRST301","message":"JWT expired"}`)
	h := newTestServer(t, testConfig(up.URL))

	rec := doRequest(h, http.MethodGet, "/api/search?q=uber", nil, bearer("stale"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `{"code":"PGRST301","message":"JWT expired"}`, rec.Body.String())
}

func TestSearch_NoTokenIsUnauthorized(t *testing.T) {
	up := newFakeUpstream(t)
	h := newTestServer(t, testConfig(up.URL))

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		want    string
	}{
		{"no token", "/api/search?q=uber", nil, "Authorization required"},
		{"empty query param", "/api/search?q=uber&access_token=", nil, "Authorization required"},
		{"basic auth", "/api/search?q=uber", map[string]string{"Authorization": "Basic abc"}, "Invalid authorization header format"},
		{"empty bearer", "/api/search?q=uber", map[string]string{"Authorization": "Bearer "}, "Empty token"},
		{"no token and no query", "/api/search", nil, "Authorization required"},
		{"control character in query token", "/api/search?q=uber&access_token=abc%0Adef", nil, "Invalid token"},
		{"delete character in query token", "/api/search?q=uber&access_token=abc%7F", nil, "Invalid token"},
		{"control character in header token", "/api/search?q=uber", map[string]string{"Authorization": "Bearer abc\x01def"}, "Invalid token"},
		{"control character after lowercase scheme", "/api/search?q=uber", map[string]string{"Authorization": "bearer abc\x7f"}, "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, http.MethodGet, tt.path, nil, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, decode(t, rec)["error"], tt.want)
		})
	}

	assert.Zero(t, up.hits.Load())
}

func TestSearch_BearerSchemeIsCaseInsensitive(t *testing.T) {
	up := newFakeUpstream(t)
	h := newTestServer(t, testConfig(up.URL))

	rec := doRequest(h, http.MethodGet, "/api/search?q=uber", nil, map[string]string{"Authorization": "bearer " + testToken})
	require.Equal(t, http.StatusOK, rec.Code)
	auth, _, _ := up.seen()
	assert.Equal(t, "Bearer "+testToken, auth)
}

func TestSearch_TokenPrecedence(t *testing.T) {
	up := newFakeUpstream(t)
	cfg := testConfig(up.URL)
	cfg.Upstream.DefaultToken = "default-token"
	h := newTestServer(t, cfg)

	doRequest(h, http.MethodGet, "/api/search?q=uber&access_token=query-token", nil, bearer("header-token"))
	auth, _, _ := up.seen()
	assert.Equal(t, "Bearer header-token", auth)

	doRequest(h, http.MethodGet, "/api/search?q=uber&access_token=query-token", nil, nil)
	auth, _, _ = up.seen()
	assert.Equal(t, "Bearer query-token", auth)

	rec := doRequest(h, http.MethodGet, "/api/search?q=uber", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	auth, _, _ = up.seen()
	assert.Equal(t, "Bearer default-token", auth)
}

func TestSearchProperties(t *testing.T) {
	up := newFakeUpstream(t)
	h := newTestServer(t, testConfig(up.URL))

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("blank queries never reach upstream", prop.ForAll(
		func(blank string) bool {
			before := up.hits.Load()
			rec := doRequest(h, http.MethodGet, "/api/search?q="+url.QueryEscape(blank), nil, bearer(testToken))
			return rec.Code == http.StatusBadRequest && up.hits.Load() == before
		},
		gen.SliceOf(gen.OneConstOf(" ", "\t", "\n")).Map(func(parts []string) string {
			return strings.Join(parts, "")
		}),
	))

	properties.Property("requests without a token never reach upstream", prop.ForAll(
		func(query string) bool {
			before := up.hits.Load()
			rec := doRequest(h, http.MethodGet, "/api/search?q="+url.QueryEscape(query), nil, nil)
			return rec.Code == http.StatusUnauthorized && up.hits.Load() == before
		},
		gen.AlphaString(),
	))

	properties.Property("a token from verify is forwarded byte-for-byte on search", prop.ForAll(
		func(token string) bool {
			grant := newUpstreamGrantThenSearch(t, token)
			h := newTestServer(t, testConfig(grant.URL))

			rec := doRequest(h, http.MethodPost, "/api/login/verify", VerifyOTPRequest{Email: testEmail, OTP: testOTP}, nil)
			if rec.Code != http.StatusOK {
				return false
			}
			issued, _ := decode(t, rec)["token"].(string)
			if issued != token {
				return false
			}

			rec = doRequest(h, http.MethodGet, "/api/search?q=uber", nil, bearer(issued))
			auth, _, _ := grant.seen()
			return rec.Code == http.StatusOK && auth == "Bearer "+token
		},
		gen.RegexMatch(`[A-Za-z0-9_\-\.~+/=]{1,128}`),
	))

	properties.TestingRun(t)
}

// newUpstreamGrantThenSearch issues token on verify and answers searches
func newUpstreamGrantThenSearch(t *testing.T, token string) *fakeUpstream {
	t.Helper()

	f := &fakeUpstream{}
	f.Server = newUpstreamHandler(t, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()

		if r.URL.Path == "/auth/v1/verify" {
			writeGrant(w, token)
			return
		}
		w.Write([]byte(`[]`))
	})
	return f
}

func TestLatestApps(t *testing.T) {
	up := newFakeUpstream(t)
	h := newTestServer(t, testConfig(up.URL))

	rec := doRequest(h, http.MethodGet, "/api/latest-apps", nil, bearer(testToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, searchResultBody, rec.Body.String())

	_, query, _ := up.seen()
	values, _ := url.ParseQuery(query)
	assert.Equal(t, "20", values.Get("limit"))
	assert.Equal(t, "updatedAt.desc", values.Get("order"))
	assert.Equal(t, "eq.ios", values.Get("platform"))

	doRequest(h, http.MethodGet, "/api/latest-apps?limit=5&platform=web", nil, bearer(testToken))
	_, query, _ = up.seen()
	values, _ = url.ParseQuery(query)
	assert.Equal(t, "5", values.Get("limit"))
	assert.Equal(t, "eq.web", values.Get("platform"))
}

func TestLatestApps_InvalidLimit(t *testing.T) {
	up := newFakeUpstream(t)
	h := newTestServer(t, testConfig(up.URL))

	for _, limit := range []string{"0", "101", "-3", "many"} {
		rec := doRequest(h, http.MethodGet, "/api/latest-apps?limit="+limit, nil, bearer(testToken))
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}
	assert.Zero(t, up.hits.Load())
}

func TestSession(t *testing.T) {
	up := newFakeUpstream(t)
	cfg := testConfig(up.URL)
	cfg.Upstream.DefaultToken = "opaque-default"
	h := newTestServer(t, cfg)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		Email: testEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	rec := doRequest(h, http.MethodGet, "/api/session", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, TokenSourceHeader, body["source"])
	assert.Equal(t, "user-1", body["subject"])
	assert.Equal(t, testEmail, body["email"])
	assert.Equal(t, false, body["expired"])
	assert.Equal(t, exp.UTC().Format(time.RFC3339), body["expires_at"])

	rec = doRequest(h, http.MethodGet, "/api/session", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, TokenSourceDefault, body["source"])
	assert.NotContains(t, body, "subject")
	assert.NotContains(t, body, "expires_at")

	assert.Zero(t, up.hits.Load())
}
