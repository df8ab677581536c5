package registry

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gateway "github.com/jamdotjar/pipdex/apigateway"
	"github.com/jamdotjar/pipdex/apperr"
	"github.com/jamdotjar/pipdex/requirements"
)

// GenerateAPIKey issues (or rotates) the api key for a submitting service.
// The clear key appears in this response and nowhere else.
func (s *Service) GenerateAPIKey(c *gin.Context) {
	var req gateway.KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.Wrap(err, apperr.ErrValidation, err.Error())))
		return
	}
	key, err := gateway.IssueAPIKey(req.ServiceID, s.Db)
	if err != nil {
		s.Logger.WithField("error", err.Error()).Error("api key issue failed")
		c.JSON(http.StatusInternalServerError, apperr.Payload(apperr.Wrap(err, apperr.ErrDatabase, "")))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"service_id": req.ServiceID, "api_key": key})
}

// Stats reports registry-wide counts for the ops dashboard.
func (s *Service) Stats(c *gin.Context) {
	manifests, err := requirements.CountManifests(s.Db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apperr.Payload(apperr.Wrap(err, apperr.ErrDatabase, "")))
		return
	}
	stats := gin.H{"manifests": manifests}
	if s.Redis != nil {
		if n, err := s.Redis.LLen(recentKey).Result(); err == nil {
			stats["recent"] = n
		}
	}
	c.JSON(http.StatusOK, stats)
}
