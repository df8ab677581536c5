package registry

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gateway "github.com/jamdotjar/pipdex/apigateway"
	"github.com/jamdotjar/pipdex/apperr"
	"github.com/jamdotjar/pipdex/requirements"
	"github.com/jamdotjar/pipdex/utils"
	"github.com/sirupsen/logrus"
)

// Login exchanges a service api key for a jwt used on write endpoints.
func (s *Service) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.Wrap(err, apperr.ErrValidation, err.Error())))
		return
	}
	if err := gateway.ValidateAPIKey(req.ServiceID, req.APIKey, s.Db); err != nil {
		c.JSON(http.StatusUnauthorized, apperr.Payload(apperr.Wrap(err, apperr.ErrUnauthorized, "invalid service credentials")))
		return
	}
	token, err := s.Auth.GenerateJWT(req.ServiceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apperr.Payload(apperr.Wrap(err, apperr.ErrInternal, "")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"authorization": token})
}

// SubmitManifest parses, validates and stores a manifest for a project.
func (s *Service) SubmitManifest(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.Wrap(err, apperr.ErrValidation, err.Error())))
		return
	}

	manifest, parseErr := requirements.ParseString(req.Content)
	if parseErr != nil {
		requirements.ObserveManifest(manifest, false)
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.WithFields(apperr.ErrParse, gin.H{
			"errors": parseErr,
		})))
		return
	}
	if violations := manifest.Validate(); len(violations) > 0 {
		requirements.ObserveManifest(manifest, false)
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.WithFields(apperr.ErrDuplicate, gin.H{
			"violations": violations,
		})))
		return
	}
	requirements.ObserveManifest(manifest, true)

	record := requirements.NewManifestRecord(uuid.NewString(), req.Project, c.GetString("username"), req.Content, manifest, s.Db)
	if err := record.Save(); err != nil {
		s.Logger.WithFields(logrus.Fields{"error": err.Error(), "project": req.Project}).Error("store manifest failed")
		c.JSON(http.StatusInternalServerError, apperr.Payload(apperr.Wrap(err, apperr.ErrDatabase, "")))
		return
	}

	s.pushRecent(record)

	c.JSON(http.StatusCreated, gin.H{
		"uuid":    record.UUID,
		"project": record.Project,
		"count":   record.Count,
	})
}

func (s *Service) pushRecent(record *requirements.ManifestRecord) {
	if s.Redis == nil {
		return
	}
	entry := recentEntry{UUID: record.UUID, Project: record.Project, SubmittedBy: record.SubmittedBy, Count: record.Count}
	payload, err := marshalJSON(entry)
	if err != nil {
		return
	}
	cap := int64(s.PipdexConfig.RecentListSize)
	if err := utils.SaveRedisList(s.Redis, recentKey, payload, cap); err != nil {
		s.Logger.WithField("error", err.Error()).Warn("recent list push failed")
	}
}

// ValidateManifest parses and validates without storing anything.
func (s *Service) ValidateManifest(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.Wrap(err, apperr.ErrValidation, err.Error())))
		return
	}

	manifest, parseErr := requirements.ParseString(req.Content)
	violations := manifest.Validate()
	ok := parseErr == nil && len(violations) == 0
	requirements.ObserveManifest(manifest, ok)

	resp := gin.H{
		"ok":           ok,
		"requirements": manifest.Requirements,
		"canonical":    manifest.Serialize(),
	}
	if parseErr != nil {
		resp["errors"] = parseErr
	}
	if len(violations) > 0 {
		resp["violations"] = violations
	}
	c.JSON(http.StatusOK, resp)
}

// ListManifests returns stored manifests, newest first.
func (s *Service) ListManifests(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	records, err := requirements.ListManifests(c.Query("project"), limit, offset, s.Db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apperr.Payload(apperr.Wrap(err, apperr.ErrDatabase, "")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"manifests": records})
}

// GetManifest returns one stored manifest with its parsed requirements and
// canonical serialization.
func (s *Service) GetManifest(c *gin.Context) {
	record, err := requirements.ManifestByUUID(c.Param("uuid"), s.Db)
	if err != nil {
		c.JSON(http.StatusNotFound, apperr.Payload(apperr.Wrap(err, apperr.ErrNotFound, "manifest not found")))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"manifest":  record,
		"canonical": record.Manifest().Serialize(),
	})
}

// PackageProjects lists the projects whose manifests constrain a package.
func (s *Service) PackageProjects(c *gin.Context) {
	name := c.Param("name")
	projects, err := requirements.ProjectsWithPackage(name, s.Db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apperr.Payload(apperr.Wrap(err, apperr.ErrDatabase, "")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"package": requirements.Normalize(name), "projects": projects})
}
