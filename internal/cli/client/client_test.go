package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login/password", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"email": "a@b.com", "password": "pw"}, body)

		w.Write([]byte(`{"token":"tok","token_type":"bearer","expires_at":1900000000,"user":{"id":"u1","email":"a@b.com"},"message":"Login successful"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL + "/").LoginWithPassword("a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, int64(1900000000), resp.ExpiresAt)
	assert.Equal(t, "a@b.com", resp.Email())
}

func TestErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("{\"msg\":\"Token has expired or is invalid\"}\n"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).VerifyOTP("a@b.com", "000000")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, `{"msg":"Token has expired or is invalid"}`, apiErr.Body)
	assert.True(t, apiErr.Unauthorized())
	assert.Equal(t, `verify one-time code failed (status 403): {"msg":"Token has expired or is invalid"}`, err.Error())
}

func TestUnauthorized(t *testing.T) {
	assert.True(t, (&Error{Status: http.StatusUnauthorized}).Unauthorized())
	assert.False(t, (&Error{Status: http.StatusBadGateway}).Unauthorized())
	assert.False(t, (&Error{Status: http.StatusBadRequest}).Unauthorized())
}

func TestSearchAndLatest(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAuth = r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization")
		w.Write([]byte(`[{"id":"1","appName":"Uber"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	apps, err := c.Search("tok", "uber eats", "")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Uber", apps[0]["appName"])
	assert.Equal(t, "/api/search", gotPath)
	assert.Equal(t, "q=uber+eats", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)

	_, err = c.Latest("tok", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "/api/latest-apps", gotPath)
	assert.Empty(t, gotQuery)

	_, err = c.Latest("tok", 10, "android")
	require.NoError(t, err)
	assert.Equal(t, "limit=10&platform=android", gotQuery)
}

func TestSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/session", r.URL.Path)
		w.Write([]byte(`{"authenticated":true,"source":"header","subject":"u1","email":"a@b.com","expires_at":"2030-01-01T00:00:00Z","expired":false}`))
	}))
	defer srv.Close()

	s, err := New(srv.URL).Session("tok")
	require.NoError(t, err)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "u1", s.Subject)
	require.NotNil(t, s.ExpiresAt)
	assert.Equal(t, 2030, s.ExpiresAt.Year())
}

func TestSendOTPIgnoresBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	assert.NoError(t, New(srv.URL).SendOTP("a@b.com"))
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Search("tok", "uber", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
}
