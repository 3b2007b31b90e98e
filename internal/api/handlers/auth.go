package handlers

import (
	"errors"
	"net/http"

	"github.com/edufam/edufam-backend/internal/api/middleware"
	"github.com/edufam/edufam-backend/internal/api/response"
	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/service"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// RefreshRequest names a refresh token by id, by secret, or both.
type RefreshRequest struct {
	RefreshTokenID string `json:"refreshTokenId" validate:"omitempty,uuid"`
	RefreshToken   string `json:"refreshToken" validate:"omitempty,max=512"`
}

type TokensResponse struct {
	AccessToken    string    `json:"accessToken"`
	RefreshToken   string    `json:"refreshToken"`
	RefreshTokenID uuid.UUID `json:"refreshTokenId"`
}

type AuthResponse struct {
	User   domain.UserView `json:"user"`
	Tokens TokensResponse  `json:"tokens"`
}

type UserResponse struct {
	User domain.UserView `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Origin:   originOf(r),
	})
	if err != nil {
		h.fail(w, r, err, http.StatusUnauthorized)
		return
	}

	response.Success(w, authResponse(result))
}

// Refresh serves both /auth/refresh and its /auth/refresh-token alias.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	handle, ok := decodeHandle(w, r)
	if !ok {
		return
	}

	result, err := h.authService.Refresh(r.Context(), handle)
	if err != nil {
		h.fail(w, r, err, http.StatusUnauthorized)
		return
	}

	response.Success(w, authResponse(result))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	handle, ok := decodeHandle(w, r)
	if !ok {
		return
	}

	if err := h.authService.Logout(r.Context(), handle); err != nil {
		h.fail(w, r, err, http.StatusNotFound)
		return
	}

	response.Success(w, MessageResponse{Message: "Logged out"})
}

// Me runs behind Authenticate, which has already introspected the token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, response.CodeMissingToken, "Authorization bearer token required")
		return
	}

	response.Success(w, UserResponse{User: user.View()})
}

func decodeHandle(w http.ResponseWriter, r *http.Request) (service.RefreshHandle, bool) {
	var req RefreshRequest
	if !decode(w, r, &req) {
		return service.RefreshHandle{}, false
	}

	if req.RefreshTokenID == "" && req.RefreshToken == "" {
		response.Fail(w, http.StatusBadRequest, response.CodeInvalidRequest, "refreshTokenId or refreshToken is required")
		return service.RefreshHandle{}, false
	}

	handle := service.RefreshHandle{Secret: req.RefreshToken}
	if req.RefreshTokenID != "" {
		id, err := uuid.Parse(req.RefreshTokenID)
		if err != nil {
			response.Fail(w, http.StatusBadRequest, response.CodeInvalidRequest, "refreshTokenId is malformed")
			return service.RefreshHandle{}, false
		}
		handle.ID = &id
	}
	return handle, true
}

// fail maps service errors onto the envelope. notFoundStatus is the status
// used when no refresh token matched, which differs between refresh and logout.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error, notFoundStatus int) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(w, http.StatusUnauthorized, response.CodeInvalidCredentials, "Invalid email or password")
	case errors.Is(err, service.ErrUserInactive):
		response.Fail(w, http.StatusForbidden, response.CodeUserInactive, "Account is inactive")
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(w, http.StatusUnauthorized, response.CodeUserNotFound, "User not found")
	case errors.Is(err, service.ErrMissingRefreshHandle):
		response.Fail(w, http.StatusBadRequest, response.CodeInvalidRequest, "refreshTokenId or refreshToken is required")
	case errors.Is(err, service.ErrRefreshNotFound):
		response.Fail(w, notFoundStatus, response.CodeInvalidRefresh, "Invalid refresh token")
	case errors.Is(err, service.ErrInvalidRefresh):
		response.Fail(w, http.StatusUnauthorized, response.CodeInvalidRefresh, "Invalid refresh token")
	case errors.Is(err, service.ErrRefreshExpired):
		response.Fail(w, http.StatusUnauthorized, response.CodeRefreshExpired, "Refresh token expired")
	case errors.Is(err, service.ErrRefreshRevoked):
		response.Fail(w, http.StatusUnauthorized, response.CodeRefreshRevoked, "Refresh token revoked")
	case errors.Is(err, service.ErrInvalidToken):
		response.Fail(w, http.StatusUnauthorized, response.CodeInvalidToken, "Invalid or expired token")
	default:
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("auth handler failed")
		response.ServerError(w)
	}
}

func authResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		User: result.User,
		Tokens: TokensResponse{
			AccessToken:    result.AccessToken,
			RefreshToken:   result.RefreshToken,
			RefreshTokenID: result.RefreshTokenID,
		},
	}
}

func originOf(r *http.Request) domain.Origin {
	return domain.Origin{
		IPAddress:    clientIP(r),
		UserAgent:    r.UserAgent(),
		RequestID:    chiMiddleware.GetReqID(r.Context()),
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
	}
}
