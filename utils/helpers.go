package utils

import (
	"github.com/go-redis/redis/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// GetRedis returns a *redis.Client instance for the given address.
func GetRedis(addr string, db int) *redis.Client {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return client
}

// SaveRedisList pushes a value onto a capped list, newest first.
func SaveRedisList(r *redis.Client, key string, value interface{}, cap int64) error {
	if _, err := r.LPush(key, value).Result(); err != nil {
		return err
	}
	if cap > 0 {
		return r.LTrim(key, 0, cap-1).Err()
	}
	return nil
}

// GetRedisList reads up to n entries from a list, newest first.
func GetRedisList(r *redis.Client, key string, n int64) ([]string, error) {
	if n <= 0 {
		n = 50
	}
	return r.LRange(key, 0, n-1).Result()
}

// Database opens (or creates) the sqlite database used by pipdex.
func Database(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}
