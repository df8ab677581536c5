package gateway

import (
	"errors"

	_ "gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// APIKey is a stored, hashed api key issued to a submitting service.
type APIKey struct {
	gorm.Model
	ServiceID string `gorm:"index:idx_service_id,unique"`
	KeyHash   string
}

// IssueAPIKey creates (or rotates) the key for a service and returns the
// clear key exactly once.
func IssueAPIKey(serviceID string, db *gorm.DB) (string, error) {
	if serviceID == "" {
		return "", errNoServiceID
	}
	key, err := GenerateAPIKey()
	if err != nil {
		return "", err
	}
	hash, err := HashAPIKey(key)
	if err != nil {
		return "", err
	}

	var record APIKey
	result := db.Where("service_id = ?", serviceID).First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		record = APIKey{ServiceID: serviceID, KeyHash: hash}
		if err := db.Create(&record).Error; err != nil {
			return "", ErrCreateDbRow
		}
		return key, nil
	}
	if result.Error != nil {
		return "", result.Error
	}
	record.KeyHash = hash
	if err := db.Save(&record).Error; err != nil {
		return "", err
	}
	return key, nil
}

// ValidateAPIKey checks a presented service key against the stored hash.
func ValidateAPIKey(serviceID, key string, db *gorm.DB) error {
	var record APIKey
	result := db.Where("service_id = ?", serviceID).First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return errObjectNotFound
	}
	if result.Error != nil {
		return result.Error
	}
	if !CheckAPIKey(record.KeyHash, key) {
		return errors.New("wrong_key")
	}
	return nil
}
