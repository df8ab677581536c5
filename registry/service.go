// Package registry exposes the manifest registry over HTTP: submitting,
// validating, diffing and auditing requirements manifests.
package registry

import (
	"github.com/go-redis/redis/v7"
	gateway "github.com/jamdotjar/pipdex/apigateway"
	"github.com/jamdotjar/pipdex/requirements"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const recentKey = "manifests:recent"

// Service holds the handler dependencies, wired once in main.
type Service struct {
	Db           *gorm.DB
	Redis        *redis.Client
	Logger       *logrus.Logger
	PipdexConfig requirements.PipdexConfig
	Auth         *gateway.JWTAuth
}

// submitRequest is the body of POST /manifests.
type submitRequest struct {
	Project string `json:"project" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// validateRequest is the body of POST /validate.
type validateRequest struct {
	Content string `json:"content" binding:"required"`
}

// loginRequest exchanges a service api key for a jwt.
type loginRequest struct {
	ServiceID string `json:"service_id" binding:"required"`
	APIKey    string `json:"api_key" binding:"required"`
}

// diffRequest compares two manifests, each given as a stored uuid or inline
// content. Exactly one of the pair must be set on each side.
type diffRequest struct {
	OldUUID    string `json:"old_uuid"`
	NewUUID    string `json:"new_uuid"`
	OldContent string `json:"old_content"`
	NewContent string `json:"new_content"`
}

// auditRequest checks a stored manifest against a concrete installed set.
type auditRequest struct {
	UUID      string            `json:"uuid" binding:"required"`
	Installed map[string]string `json:"installed" binding:"required"`
}

// recentEntry is what gets pushed onto the redis recent-list.
type recentEntry struct {
	UUID        string `json:"uuid"`
	Project     string `json:"project"`
	SubmittedBy string `json:"submitted_by,omitempty"`
	Count       int    `json:"count"`
}
