package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.APIURL("/health"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var data struct {
		Service string `json:"service"`
		DB      string `json:"db"`
	}
	testutil.AssertSuccessEnvelope(t, resp, &data)
	assert.Equal(t, "edufam-backend", data.Service)
	assert.Equal(t, "ok", data.DB)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestRouter_Fallbacks(t *testing.T) {
	ts := testutil.NewTestServer(t)

	t.Run("unknown route", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/nowhere"))
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/auth/login"))
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
	})

	t.Run("non json body", func(t *testing.T) {
		resp, err := http.Post(ts.APIURL("/auth/login"), "text/plain", bytes.NewBufferString("email=a@x.com"))
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE")
	})

	t.Run("trailing slash", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/health/"))
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusOK)
	})
}

func TestRouter_CORSPreflight(t *testing.T) {
	ts := testutil.NewTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.APIURL("/auth/login"), nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_Segments(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, teacher := testutil.NewUserBuilder().WithRole(domain.RoleTeacher).BuildAndLogin(t, ts)
	_, admin := testutil.NewUserBuilder().WithRole(domain.RoleEngineer).BuildAndLogin(t, ts)

	tests := []struct {
		name           string
		path           string
		token          string
		expectedStatus int
		expectedCode   string
	}{
		{name: "school user on school", path: "/school", token: teacher.Tokens.AccessToken, expectedStatus: http.StatusOK},
		{name: "school user on mobile", path: "/mobile", token: teacher.Tokens.AccessToken, expectedStatus: http.StatusOK},
		{name: "school user on admin", path: "/admin", token: teacher.Tokens.AccessToken, expectedStatus: http.StatusForbidden, expectedCode: "FORBIDDEN"},
		{name: "admin on admin", path: "/admin", token: admin.Tokens.AccessToken, expectedStatus: http.StatusOK},
		{name: "admin on school", path: "/school", token: admin.Tokens.AccessToken, expectedStatus: http.StatusForbidden, expectedCode: "FORBIDDEN"},
		{name: "anonymous", path: "/school", expectedStatus: http.StatusUnauthorized, expectedCode: "MISSING_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL(tt.path), nil, tt.token)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			if tt.expectedCode != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedCode)
				return
			}
			testutil.AssertSuccessEnvelope(t, resp, nil)
		})
	}
}

func TestRouter_LoginRateLimit(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.RateLimit.LoginMax = 2
	ts := testutil.NewTestServerWithConfig(t, cfg)

	body := map[string]string{"email": "ghost@x.com", "password": "whatever1"}
	for i := 0; i < 2; i++ {
		resp := testutil.PostJSON(t, ts.APIURL("/auth/login"), body)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp := testutil.PostJSON(t, ts.APIURL("/auth/login"), body)
	defer resp.Body.Close()
	testutil.AssertErrorResponse(t, resp, http.StatusTooManyRequests, "TOO_MANY_REQUESTS")
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// other endpoints keep their own budget
	refresh := testutil.PostJSON(t, ts.APIURL("/auth/refresh"), map[string]string{"refreshToken": "x"})
	defer refresh.Body.Close()
	testutil.AssertStatusCode(t, refresh, http.StatusUnauthorized)
}

func TestRouter_LoginRateLimitIgnoresForwardedFor(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.RateLimit.LoginMax = 1
	ts := testutil.NewTestServerWithConfig(t, cfg)

	want := []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests}
	for i, status := range want {
		req, err := http.NewRequest(http.MethodPost, ts.APIURL("/auth/login"),
			bytes.NewBufferString(`{"email":"ghost@x.com","password":"whatever1"}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "198.51.100."+string(rune('1'+i)))

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, status, resp.StatusCode, "request %d", i)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := testutil.NewTestServer(t)

	login := testutil.PostJSON(t, ts.APIURL("/auth/login"), map[string]string{"email": "ghost@x.com", "password": "whatever1"})
	login.Body.Close()

	resp, err := http.Get(ts.BaseURL() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `edufam_auth_requests_total{operation="login",outcome="failure"} 1`)
}
