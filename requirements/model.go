package requirements

import (
	"errors"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// PipdexConfig holds service-level configuration. Values come from the yaml
// config file merged over Defaults.
type PipdexConfig struct {
	Port               string `json:"port" yaml:"port"`
	IsDebug            bool   `json:"is_debug" yaml:"is_debug"`
	DatabasePath       string `json:"database_path" yaml:"database_path"`
	RedisAddress       string `json:"redis_address" yaml:"redis_address"`
	RedisDB            int    `json:"redis_db" yaml:"redis_db"`
	JWTKey             string `json:"jwt_key" yaml:"jwt_key"`
	AdminKey           string `json:"admin_key" yaml:"admin_key"`
	AdminUser          string `json:"admin_user" yaml:"admin_user"`
	AdminPassword      string `json:"admin_password" yaml:"admin_password"`
	AdminTOTPSecret    string `json:"admin_totp_secret" yaml:"admin_totp_secret"`
	RecentListSize     int    `json:"recent_list_size" yaml:"recent_list_size"`
	LogSamplingTickMs  int    `json:"log_sampling_tick_ms" yaml:"log_sampling_tick_ms"`
	LogSamplingAfterMs int    `json:"log_sampling_after_ms" yaml:"log_sampling_after_ms"`
}

// Defaults fills zero-valued fields with sane local-development values.
func (c *PipdexConfig) Defaults() {
	if c.Port == "" {
		c.Port = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "pipdex.db"
	}
	if c.RedisAddress == "" {
		c.RedisAddress = "localhost:6379"
	}
	if c.RecentListSize == 0 {
		c.RecentListSize = 50
	}
}

// ManifestRecord is a stored manifest submission.
type ManifestRecord struct {
	gorm.Model
	UUID         string `json:"uuid" gorm:"index:idx_manifest_uuid,unique"`
	Project      string `json:"project" gorm:"index:idx_manifest_project"`
	SubmittedBy  string `json:"submitted_by"`
	Raw          string `json:"raw"`
	Count        int    `json:"count"`
	Requirements []RequirementRecord `json:"requirements"`
	db           *gorm.DB
}

// RequirementRecord is one parsed specifier belonging to a ManifestRecord.
// Normalized is the lookup key, Name the spelling as submitted.
type RequirementRecord struct {
	gorm.Model       `json:"-"`
	ManifestRecordID uint   `json:"-"`
	Name             string `json:"name"`
	Normalized       string `json:"-" gorm:"index:idx_requirement_normalized"`
	Op               string `json:"op"`
	Version          string `json:"version"`
	Line             int    `json:"line,omitempty"`
}

// Requirement converts a stored row back into the domain type.
func (r RequirementRecord) Requirement() Requirement {
	return Requirement{Name: r.Name, Op: r.Op, Version: r.Version, Line: r.Line}
}

// NewManifestRecord builds a record from a parsed manifest, ready to be
// persisted with Save.
func NewManifestRecord(uuid, project, submittedBy, raw string, m *Manifest, db *gorm.DB) *ManifestRecord {
	record := &ManifestRecord{
		UUID:        uuid,
		Project:     project,
		SubmittedBy: submittedBy,
		Raw:         raw,
		Count:       len(m.Requirements),
		db:          db,
	}
	for _, req := range m.Requirements {
		record.Requirements = append(record.Requirements, RequirementRecord{
			Name:       req.Name,
			Normalized: req.Key(),
			Op:         req.Op,
			Version:    req.Version,
			Line:       req.Line,
		})
	}
	return record
}

// Save persists the record and its requirement rows.
func (m *ManifestRecord) Save() error {
	if m.db == nil {
		return errors.New("manifest record has no db handle")
	}
	return m.db.Create(m).Error
}

// Manifest rebuilds the domain manifest from the stored rows.
func (m *ManifestRecord) Manifest() *Manifest {
	manifest := &Manifest{}
	for _, row := range m.Requirements {
		manifest.Requirements = append(manifest.Requirements, row.Requirement())
	}
	return manifest
}

// ToJSON renders the record for cache entries and API payloads.
func (m *ManifestRecord) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ManifestByUUID retrieves a stored manifest with its requirement rows.
func ManifestByUUID(uuid string, db *gorm.DB) (*ManifestRecord, error) {
	var record ManifestRecord
	result := db.Preload("Requirements").First(&record, "uuid = ?", uuid)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.New("manifest not found")
	}
	if result.Error != nil {
		return nil, result.Error
	}
	record.db = db
	return &record, nil
}

// ListManifests returns stored manifests, newest first, optionally filtered
// by project.
func ListManifests(project string, limit, offset int, db *gorm.DB) ([]ManifestRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := db.Model(&ManifestRecord{}).Order("created_at desc").Limit(limit).Offset(offset)
	if project != "" {
		query = query.Where("project = ?", project)
	}
	var records []ManifestRecord
	err := query.Find(&records).Error
	return records, err
}

// CountManifests reports how many manifests are stored, for the admin stats
// endpoint.
func CountManifests(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&ManifestRecord{}).Count(&count).Error
	return count, err
}

// ProjectsWithPackage lists projects whose latest manifests constrain the
// given package, any spelling.
func ProjectsWithPackage(name string, db *gorm.DB) ([]string, error) {
	var projects []string
	err := db.Model(&ManifestRecord{}).
		Distinct("manifest_records.project").
		Joins("JOIN requirement_records ON requirement_records.manifest_record_id = manifest_records.id").
		Where("requirement_records.normalized = ?", Normalize(name)).
		Pluck("manifest_records.project", &projects).Error
	return projects, err
}
