package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/jamdotjar/pipdex/requirements"
)

//JWTAuth provides an encapsulation for jwt auth
type JWTAuth struct {
	Key          []byte
	PipdexConfig requirements.PipdexConfig
}

//Init initializes jwt auth from the configured key, falling back to a
//randomly generated one. Tokens signed with a generated key die with the
//process, which is fine for single-instance deployments.
func (j *JWTAuth) Init() {
	if j.PipdexConfig.JWTKey != "" {
		j.Key = []byte(j.PipdexConfig.JWTKey)
		return
	}
	key, err := GenerateSecretKey(32)
	if err != nil {
		panic(fmt.Sprintf("jwt key generation: %v", err))
	}
	j.Key = key
}

// GenerateJWT generates a signed token for a submitter name.
func (j *JWTAuth) GenerateJWT(username string) (string, error) {
	expiresAt := time.Now().Add(72 * time.Hour).UTC().Unix()

	claims := TokenClaims{
		Username:       username,
		StandardClaims: generateClaims(time.Now().Unix(), expiresAt, "pipdex"),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if j.Key == nil {
		return "", errors.New("empty jwt key")
	}
	return token.SignedString(j.Key)
}

// VerifyJWT validates a token string and returns its claims.
func (j *JWTAuth) VerifyJWT(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Key, nil
	})
	if token != nil && token.Valid {
		if claims, ok := token.Claims.(*TokenClaims); ok {
			return claims, nil
		}
	}
	if err == nil {
		err = errors.New("invalid token")
	}
	return nil, err
}

func generateClaims(iat, eat int64, issuer string) jwt.StandardClaims {
	return jwt.StandardClaims{
		ExpiresAt: eat,
		IssuedAt:  iat,
		Issuer:    issuer,
	}
}

// GenerateJWTWithClaim signs a fully specified claim set.
func (j *JWTAuth) GenerateJWTWithClaim(tk TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tk)
	if j.Key == nil {
		return "", errors.New("empty jwt key")
	}
	return token.SignedString(j.Key)
}
