package registry

import (
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	gateway "github.com/jamdotjar/pipdex/apigateway"
	"github.com/jamdotjar/pipdex/requirements"
	"github.com/jamdotjar/pipdex/utils"
	"github.com/sirupsen/logrus"
)

type testEnv struct {
	Service *Service
	Router  *gin.Engine
	Auth    *gateway.JWTAuth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	binding.Validator = new(requirements.DefaultValidator)

	db, err := utils.Database(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&requirements.ManifestRecord{}, &requirements.RequirementRecord{}, &gateway.APIKey{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	auth := &gateway.JWTAuth{Key: []byte("registry-test-key")}
	cfg := requirements.PipdexConfig{}
	cfg.Defaults()

	svc := &Service{
		Db:           db,
		Logger:       logrus.New(),
		PipdexConfig: cfg,
		Auth:         auth,
	}

	router := gin.New()
	router.POST("/login", svc.Login)
	router.POST("/validate", svc.ValidateManifest)
	router.POST("/diff", svc.DiffManifests)
	router.POST("/audit", svc.AuditManifest)
	router.GET("/manifests", svc.ListManifests)
	router.GET("/manifests/:uuid", svc.GetManifest)
	router.GET("/packages/:name/projects", svc.PackageProjects)
	router.GET("/recent", svc.Recent)
	router.POST("/manifests", auth.AuthMiddleware(), svc.SubmitManifest)
	router.POST("/admin/api_keys", svc.GenerateAPIKey)
	router.GET("/admin/stats", svc.Stats)

	return &testEnv{Service: svc, Router: router, Auth: auth}
}

func (env *testEnv) token(t *testing.T, username string) string {
	t.Helper()
	token, err := env.Auth.GenerateJWT(username)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}
