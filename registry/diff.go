package registry

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jamdotjar/pipdex/apperr"
	"github.com/jamdotjar/pipdex/requirements"
	"github.com/jamdotjar/pipdex/utils"
)

func (s *Service) resolveManifest(uuid, content string) (*requirements.Manifest, error) {
	switch {
	case uuid != "" && content != "":
		return nil, apperr.New("bad_request", http.StatusBadRequest, "give either a uuid or inline content, not both")
	case uuid != "":
		record, err := requirements.ManifestByUUID(uuid, s.Db)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.ErrNotFound, "manifest "+uuid+" not found")
		}
		return record.Manifest(), nil
	case content != "":
		manifest, err := requirements.ParseString(content)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.ErrParse, err.Error())
		}
		return manifest, nil
	}
	return nil, apperr.New("bad_request", http.StatusBadRequest, "manifest missing: set a uuid or inline content")
}

// DiffManifests compares two manifests, stored or inline.
func (s *Service) DiffManifests(c *gin.Context) {
	var req diffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.Wrap(err, apperr.ErrValidation, err.Error())))
		return
	}

	old, err := s.resolveManifest(req.OldUUID, req.OldContent)
	if err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	new, err := s.resolveManifest(req.NewUUID, req.NewContent)
	if err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}

	result := requirements.Diff(old, new)
	c.JSON(http.StatusOK, gin.H{"diff": result, "equal": result.Empty()})
}

// AuditManifest checks a stored manifest against an installed set supplied by
// the caller (typically the output of pip freeze on the host machine).
func (s *Service) AuditManifest(c *gin.Context) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.Wrap(err, apperr.ErrValidation, err.Error())))
		return
	}

	record, err := requirements.ManifestByUUID(req.UUID, s.Db)
	if err != nil {
		c.JSON(http.StatusNotFound, apperr.Payload(apperr.Wrap(err, apperr.ErrNotFound, "manifest not found")))
		return
	}

	report := record.Manifest().Audit(req.Installed)
	c.JSON(http.StatusOK, gin.H{"ok": report.Ok(), "report": report})
}

// Recent returns the latest submissions from the redis recent-list.
func (s *Service) Recent(c *gin.Context) {
	if s.Redis == nil {
		c.JSON(http.StatusServiceUnavailable, apperr.Payload(apperr.ErrUnavailable))
		return
	}
	raw, err := utils.GetRedisList(s.Redis, recentKey, int64(s.PipdexConfig.RecentListSize))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apperr.Payload(apperr.Wrap(err, apperr.ErrInternal, "recent list unavailable")))
		return
	}
	entries := make([]recentEntry, 0, len(raw))
	for _, item := range raw {
		var entry recentEntry
		if err := unmarshalJSON([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	c.JSON(http.StatusOK, gin.H{"recent": entries})
}
