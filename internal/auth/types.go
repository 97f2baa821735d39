// Package auth implements account registration, login and stateless
// JWT session verification.
package auth

import (
	"time"
)

// UserClaims are the application claims carried inside the JWT.
type UserClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// RegisterRequest is the registration payload. Bankroll is the declared
// starting bankroll, fixed for the lifetime of the account.
type RegisterRequest struct {
	Name     string  `json:"name"`
	Password string  `json:"password"`
	Age      int     `json:"age"`
	Bankroll float64 `json:"bankroll"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// UserPayload is the user representation returned to clients. The
// password hash never leaves the server.
type UserPayload struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Age      int     `json:"age"`
	Bankroll float64 `json:"bankroll"`
}

// LoginResponse is returned on successful login and registration.
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserPayload `json:"user"`
}

// Config holds authentication configuration.
type Config struct {
	JWTSecret         string
	TokenDuration     time.Duration
	MinPasswordLength int
	BcryptCost        int
}

// DefaultConfig returns the authentication defaults. The JWT secret has
// no default and must be provided.
func DefaultConfig() Config {
	return Config{
		TokenDuration:     7 * 24 * time.Hour,
		MinPasswordLength: 4,
		BcryptCost:        10,
	}
}

// AuthError is a known authentication failure. The message is safe to
// return to clients.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e AuthError) Error() string {
	return e.Message
}

var (
	ErrInvalidCredentials = AuthError{Code: "INVALID_CREDENTIALS", Message: "invalid username or password"}
	ErrNameExists         = AuthError{Code: "NAME_EXISTS", Message: "username already registered"}
	ErrInvalidToken       = AuthError{Code: "INVALID_TOKEN", Message: "invalid or expired token"}
	ErrTokenExpired       = AuthError{Code: "TOKEN_EXPIRED", Message: "token has expired"}
	ErrUnauthorized       = AuthError{Code: "UNAUTHORIZED", Message: "unauthorized access"}
	ErrUserNotFound       = AuthError{Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrUnderage           = AuthError{Code: "UNDERAGE", Message: "you must be at least 18 years old"}
	ErrInvalidBankroll    = AuthError{Code: "INVALID_BANKROLL", Message: "bankroll must be greater than zero"}
	ErrTooManyAttempts    = AuthError{Code: "TOO_MANY_ATTEMPTS", Message: "too many failed login attempts, try again later"}
)
