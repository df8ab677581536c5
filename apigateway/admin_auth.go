package gateway

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
)

// AdminAuthConfig controls access to admin-only endpoints.
type AdminAuthConfig struct {
	Key        string
	User       string
	Password   string
	TOTPSecret string
	Debug      bool
}

// RequireAdmin guards admin endpoints using X-Admin-Key or HTTP Basic auth.
// When a TOTP secret is configured, a valid X-Admin-OTP code is required on
// top of either credential. If Debug is true, the guard is bypassed.
func RequireAdmin(cfg AdminAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Debug {
			c.Next()
			return
		}

		if cfg.Key == "" && (cfg.User == "" || cfg.Password == "") {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"code":    "admin_auth_not_configured",
				"message": "admin auth not configured",
			})
			return
		}

		authorized := false
		if cfg.Key != "" {
			key := strings.TrimSpace(c.GetHeader("X-Admin-Key"))
			if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(cfg.Key)) == 1 {
				authorized = true
			}
		}
		if !authorized && cfg.User != "" && cfg.Password != "" {
			authorized = checkBasicAuth(c.GetHeader("Authorization"), cfg.User, cfg.Password)
		}
		if !authorized {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "unauthorized",
			})
			return
		}

		if cfg.TOTPSecret != "" {
			code := strings.TrimSpace(c.GetHeader("X-Admin-OTP"))
			if code == "" || !totp.Validate(code, cfg.TOTPSecret) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":    "otp_required",
					"message": "missing or invalid one-time code",
				})
				return
			}
		}

		c.Next()
	}
}

func checkBasicAuth(header, user, pass string) bool {
	if header == "" {
		return false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "basic" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	creds := strings.SplitN(string(decoded), ":", 2)
	if len(creds) != 2 {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(creds[0]), []byte(user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds[1]), []byte(pass)) == 1
	return userOK && passOK
}
