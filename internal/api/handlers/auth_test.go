package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        interface{}
		setup          func(t *testing.T)
		expectedStatus int
		expectedCode   string
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:    "successful login",
			request: map[string]string{"email": "a@x.com", "password": "correctpw"},
			setup: func(t *testing.T) {
				testutil.NewUserBuilder().WithEmail("a@x.com").Build(t, ts.DB.DB)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var data testutil.AuthData
				testutil.AssertSuccessEnvelope(t, resp, &data)
				assert.Equal(t, "a@x.com", data.User.Email)
				assert.NotEmpty(t, data.Tokens.AccessToken)
				assert.NotEmpty(t, data.Tokens.RefreshToken)
				_, err := uuid.Parse(data.Tokens.RefreshTokenID)
				assert.NoError(t, err)
			},
		},
		{
			name:    "response never carries the password digest",
			request: map[string]string{"email": "a@x.com", "password": "correctpw"},
			setup: func(t *testing.T) {
				testutil.NewUserBuilder().WithEmail("a@x.com").Build(t, ts.DB.DB)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				env := testutil.DecodeEnvelope(t, resp)
				assert.NotContains(t, strings.ToLower(string(env.Data)), "password")
				assert.NotContains(t, string(env.Data), "$2a$")
			},
		},
		{
			name:           "wrong password",
			request:        map[string]string{"email": "a@x.com", "password": "wrongpass"},
			setup:          func(t *testing.T) { testutil.NewUserBuilder().WithEmail("a@x.com").Build(t, ts.DB.DB) },
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_CREDENTIALS",
		},
		{
			name:           "unknown email",
			request:        map[string]string{"email": "ghost@x.com", "password": "correctpw"},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_CREDENTIALS",
		},
		{
			name:    "inactive user",
			request: map[string]string{"email": "a@x.com", "password": "correctpw"},
			setup: func(t *testing.T) {
				testutil.NewUserBuilder().WithEmail("a@x.com").Inactive().Build(t, ts.DB.DB)
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "USER_INACTIVE",
		},
		{
			name:           "invalid email",
			request:        map[string]string{"email": "not-an-email", "password": "correctpw"},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "empty request body",
			request:        map[string]string{},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "not an object",
			request:        []string{"a@x.com"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.DB.Truncate(t)
			if tt.setup != nil {
				tt.setup(t)
			}

			resp := testutil.PostJSON(t, ts.APIURL("/auth/login"), tt.request)
			defer resp.Body.Close()

			if tt.expectedCode != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedCode)
				return
			}
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Login_FailuresAreIndistinguishable(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewUserBuilder().WithEmail("a@x.com").Build(t, ts.DB.DB)

	wrong := testutil.PostJSON(t, ts.APIURL("/auth/login"), map[string]string{"email": "a@x.com", "password": "wrongpass"})
	defer wrong.Body.Close()
	unknown := testutil.PostJSON(t, ts.APIURL("/auth/login"), map[string]string{"email": "b@x.com", "password": "wrongpass"})
	defer unknown.Body.Close()

	a := testutil.AssertErrorResponse(t, wrong, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	b := testutil.AssertErrorResponse(t, unknown, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	assert.Equal(t, a, b)
}

func TestAuthHandler_ValidationDetails(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := testutil.PostJSON(t, ts.APIURL("/auth/login"), map[string]string{"email": "a@x.com", "password": "short"})
	defer resp.Body.Close()

	errBody := testutil.AssertErrorResponse(t, resp, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	fields, ok := errBody.Details["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 1)
	first := fields[0].(map[string]interface{})
	assert.Equal(t, "password", first["field"])
	assert.Equal(t, "min", first["rule"])
}

func TestAuthHandler_RefreshScenario(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, login := testutil.NewUserBuilder().WithEmail("a@x.com").BuildAndLogin(t, ts)

	original := map[string]string{
		"refreshTokenId": login.Tokens.RefreshTokenID,
		"refreshToken":   login.Tokens.RefreshToken,
	}

	resp := testutil.PostJSON(t, ts.APIURL("/auth/refresh"), original)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated testutil.AuthData
	testutil.AssertSuccessEnvelope(t, resp, &rotated)
	assert.NotEqual(t, login.Tokens.RefreshTokenID, rotated.Tokens.RefreshTokenID)
	assert.NotEmpty(t, rotated.Tokens.AccessToken)
	assert.Equal(t, "a@x.com", rotated.User.Email)

	replay := testutil.PostJSON(t, ts.APIURL("/auth/refresh"), original)
	defer replay.Body.Close()
	testutil.AssertErrorResponse(t, replay, http.StatusUnauthorized, "REFRESH_REVOKED")

	// the alias path rotates the newest token
	alias := testutil.PostJSON(t, ts.APIURL("/auth/refresh-token"), map[string]string{
		"refreshToken": rotated.Tokens.RefreshToken,
	})
	defer alias.Body.Close()
	testutil.AssertStatusCode(t, alias, http.StatusOK)
}

func TestAuthHandler_Refresh_Errors(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        func(t *testing.T) interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "no handle",
			request:        func(t *testing.T) interface{} { return map[string]string{} },
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name: "malformed id",
			request: func(t *testing.T) interface{} {
				return map[string]string{"refreshTokenId": "not-a-uuid"}
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "unknown id",
			request: func(t *testing.T) interface{} {
				return map[string]string{"refreshTokenId": uuid.New().String()}
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_REFRESH",
		},
		{
			name: "unknown secret",
			request: func(t *testing.T) interface{} {
				return map[string]string{"refreshToken": "never-issued"}
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_REFRESH",
		},
		{
			name: "secret does not belong to id",
			request: func(t *testing.T) interface{} {
				_, login := testutil.NewUserBuilder().BuildAndLogin(t, ts)
				return map[string]string{"refreshTokenId": login.Tokens.RefreshTokenID, "refreshToken": "forged"}
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_REFRESH",
		},
		{
			name: "expired",
			request: func(t *testing.T) interface{} {
				_, login := testutil.NewUserBuilder().BuildAndLogin(t, ts)
				require.NoError(t, ts.DB.DB.Model(&domain.RefreshToken{}).
					Where("id = ?", login.Tokens.RefreshTokenID).
					Update("expires_at", time.Now().Add(-time.Hour)).Error)
				return map[string]string{"refreshTokenId": login.Tokens.RefreshTokenID}
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "REFRESH_EXPIRED",
		},
		{
			name: "owner deactivated",
			request: func(t *testing.T) interface{} {
				user, login := testutil.NewUserBuilder().BuildAndLogin(t, ts)
				require.NoError(t, ts.DB.DB.Exec("UPDATE users SET is_active = false WHERE id = ?", user.ID).Error)
				return map[string]string{"refreshTokenId": login.Tokens.RefreshTokenID}
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.DB.Truncate(t)

			resp := testutil.PostJSON(t, ts.APIURL("/auth/refresh"), tt.request(t))
			defer resp.Body.Close()
			testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedCode)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, login := testutil.NewUserBuilder().BuildAndLogin(t, ts)
	handle := map[string]string{"refreshTokenId": login.Tokens.RefreshTokenID}

	resp := testutil.PostJSON(t, ts.APIURL("/auth/logout"), handle)
	defer resp.Body.Close()
	var msg map[string]string
	testutil.AssertSuccessEnvelope(t, resp, &msg)
	assert.NotEmpty(t, msg["message"])

	again := testutil.PostJSON(t, ts.APIURL("/auth/logout"), handle)
	defer again.Body.Close()
	testutil.AssertStatusCode(t, again, http.StatusOK)

	refresh := testutil.PostJSON(t, ts.APIURL("/auth/refresh"), map[string]string{
		"refreshTokenId": login.Tokens.RefreshTokenID,
		"refreshToken":   login.Tokens.RefreshToken,
	})
	defer refresh.Body.Close()
	testutil.AssertErrorResponse(t, refresh, http.StatusUnauthorized, "REFRESH_REVOKED")

	unknown := testutil.PostJSON(t, ts.APIURL("/auth/logout"), map[string]string{"refreshTokenId": uuid.New().String()})
	defer unknown.Body.Close()
	testutil.AssertErrorResponse(t, unknown, http.StatusNotFound, "INVALID_REFRESH")
}

func TestAuthHandler_Me(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, login := testutil.NewUserBuilder().BuildAndLogin(t, ts)

	tests := []struct {
		name           string
		token          string
		header         string
		expectedStatus int
		expectedCode   string
	}{
		{name: "valid token", token: login.Tokens.AccessToken, expectedStatus: http.StatusOK},
		{name: "missing header", expectedStatus: http.StatusUnauthorized, expectedCode: "MISSING_TOKEN"},
		{name: "wrong scheme", header: "Basic abc", expectedStatus: http.StatusUnauthorized, expectedCode: "MISSING_TOKEN"},
		{name: "garbage token", token: "abc.def.ghi", expectedStatus: http.StatusUnauthorized, expectedCode: "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, tt.token)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			if tt.expectedCode != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedCode)
				return
			}
			var data struct {
				User domain.UserView `json:"user"`
			}
			testutil.AssertSuccessEnvelope(t, resp, &data)
			assert.Equal(t, user.ID, data.User.ID)
		})
	}

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, ts.DB.DB.Exec("DELETE FROM users WHERE id = ?", user.ID).Error)

		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, login.Tokens.AccessToken)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "USER_NOT_FOUND")
	})
}
