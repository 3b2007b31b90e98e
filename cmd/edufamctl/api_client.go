package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client; baseURL includes the /api prefix.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	UserType string `json:"userType"`
}

type Tokens struct {
	AccessToken    string `json:"accessToken"`
	RefreshToken   string `json:"refreshToken"`
	RefreshTokenID string `json:"refreshTokenId"`
}

type AuthResponse struct {
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

// LoginResult is one login attempt. Err is set for transport failures only.
type LoginResult struct {
	Status int
	Auth   *AuthResponse
	Error  *apiError
	Err    error
}

// Login posts credentials to /auth/login.
func (c *APIClient) Login(email, password string) LoginResult {
	resp, err := c.post("/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return LoginResult{Err: fmt.Errorf("login request failed: %w", err)}
	}
	defer resp.Body.Close()

	result := LoginResult{Status: resp.StatusCode}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Err = fmt.Errorf("failed to read response: %w", err)
		return result
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		result.Err = fmt.Errorf("unexpected response (status %d): %s", resp.StatusCode, string(bodyBytes))
		return result
	}

	if !env.OK {
		result.Error = env.Error
		return result
	}

	var auth AuthResponse
	if err := json.Unmarshal(env.Data, &auth); err != nil {
		result.Err = fmt.Errorf("failed to decode response: %w", err)
		return result
	}
	result.Auth = &auth
	return result
}

func (c *APIClient) post(path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}
