package gateway

import (
	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

// TokenClaims is the jwt payload pipdex issues: the submitter name plus the
// standard claim set.
type TokenClaims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

// Default fills the standard claims for a username with pipdex issuer data.
func (t TokenClaims) Default(username string) TokenClaims {
	t.Username = username
	if t.Issuer == "" {
		t.Issuer = "pipdex"
	}
	return t
}

// KeyRequest is the admin request to issue an api key for a service.
type KeyRequest struct {
	ServiceID string `json:"service_id" binding:"required"`
}

// HashAPIKey hashes an issued key before it is stored; only the caller ever
// sees the clear key.
func HashAPIKey(key string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), 8)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckAPIKey compares a presented key against a stored hash.
func CheckAPIKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

type ErrorResponse struct {
	Code    uint
	Message string
}
