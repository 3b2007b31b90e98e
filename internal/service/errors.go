package service

import "errors"

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserInactive         = errors.New("user is inactive")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidToken         = errors.New("invalid access token")
	ErrMissingRefreshHandle = errors.New("refresh token id or secret required")
	ErrRefreshNotFound      = errors.New("refresh token not found")
	ErrRefreshExpired       = errors.New("refresh token expired")
	ErrRefreshRevoked       = errors.New("refresh token revoked")
	// ErrInvalidRefresh means a secret did not match the token it was sent
	// with. The token is revoked before this is returned.
	ErrInvalidRefresh = errors.New("refresh token secret mismatch")
)

// IsAuthFailure reports whether err is an expected authentication outcome
// rather than an infrastructure failure.
func IsAuthFailure(err error) bool {
	for _, target := range []error{
		ErrInvalidCredentials, ErrUserInactive, ErrUserNotFound, ErrInvalidToken,
		ErrMissingRefreshHandle, ErrRefreshNotFound, ErrRefreshExpired,
		ErrRefreshRevoked, ErrInvalidRefresh,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
