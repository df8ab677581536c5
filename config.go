package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	gateway "github.com/jamdotjar/pipdex/apigateway"
	"github.com/jamdotjar/pipdex/registry"
	"github.com/jamdotjar/pipdex/requirements"
	"github.com/jamdotjar/pipdex/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "/etc/pipdex/config.yaml"

func isTestRun() bool {
	return strings.HasSuffix(os.Args[0], ".test")
}

func firstExistingPath(paths ...string) string {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func loadConfig() error {
	configPath := firstExistingPath(os.Getenv("PIPDEX_CONFIG"), defaultConfigPath, "./config.yaml", "../config.yaml")
	if configPath == "" {
		if isTestRun() {
			return nil
		}
		return errors.New("config.yaml not found, running on defaults")
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(configData, &pipdexConfig); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	logrusLogger.Printf("Loaded config from %s", configPath)
	return nil
}

// GetMainEngine function responsible for getting all of our routes to be delivered for gin
func GetMainEngine() *gin.Engine {
	route := gin.New()
	route.Use(gin.Recovery())
	route.Use(gateway.RequestID())
	route.Use(gateway.RequestLogger(logrusLogger, logSampling))
	route.Use(gateway.Instrumentation())
	route.Use(gateway.OptionsMiddleware)
	route.HandleMethodNotAllowed = true

	route.POST("/login", registryService.Login)
	route.POST("/validate", registryService.ValidateManifest)
	route.POST("/diff", registryService.DiffManifests)
	route.POST("/audit", registryService.AuditManifest)
	route.GET("/manifests", registryService.ListManifests)
	route.GET("/manifests/:uuid", registryService.GetManifest)
	route.GET("/packages/:name/projects", registryService.PackageProjects)
	route.GET("/recent", registryService.Recent)
	route.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": true})
	})
	route.GET("/metrics", gin.WrapH(promhttp.Handler()))

	route.POST("/manifests", auth.AuthMiddleware(), registryService.SubmitManifest)

	adminGroup := route.Group("/admin", gateway.RequireAdmin(gateway.AdminAuthConfig{
		Key:        pipdexConfig.AdminKey,
		User:       pipdexConfig.AdminUser,
		Password:   pipdexConfig.AdminPassword,
		TOTPSecret: pipdexConfig.AdminTOTPSecret,
		Debug:      pipdexConfig.IsDebug,
	}))
	{
		adminGroup.POST("/api_keys", registryService.GenerateAPIKey)
		adminGroup.GET("/stats", registryService.Stats)
	}
	return route
}

func init() {
	if err := loadConfig(); err != nil {
		logrusLogger.Printf("error in loading config: %v", err)
	}
	pipdexConfig.Defaults()
	if isTestRun() {
		pipdexConfig.DatabasePath = "test.db"
	}
	configureLogger(pipdexConfig)
	requirements.SetLogger(logrusLogger)

	var err error
	database, err = utils.Database(pipdexConfig.DatabasePath)
	if err != nil {
		logrusLogger.Fatalf("error in connecting to db: %v", err)
	}
	if err := database.AutoMigrate(&requirements.ManifestRecord{}, &requirements.RequirementRecord{}, &gateway.APIKey{}); err != nil {
		logrusLogger.Fatalf("error in migration: %v", err)
	}

	redisClient = utils.GetRedis(pipdexConfig.RedisAddress, pipdexConfig.RedisDB)
	if err := redisClient.Ping().Err(); err != nil {
		logrusLogger.Printf("redis unavailable, recent list disabled: %v", err)
		redisClient = nil
	}

	auth = gateway.JWTAuth{PipdexConfig: pipdexConfig}
	auth.Init()

	binding.Validator = new(requirements.DefaultValidator)
	registryService = registry.Service{
		Db:           database,
		Redis:        redisClient,
		Logger:       logrusLogger,
		PipdexConfig: pipdexConfig,
		Auth:         &auth,
	}
}
