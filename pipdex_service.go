package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gateway "github.com/jamdotjar/pipdex/apigateway"
	"github.com/jamdotjar/pipdex/registry"
	"github.com/jamdotjar/pipdex/requirements"
	"github.com/go-redis/redis/v7"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var pipdexConfig requirements.PipdexConfig
var logrusLogger = logrus.New()
var database *gorm.DB
var redisClient *redis.Client
var registryService registry.Service
var auth gateway.JWTAuth
var logSampling gateway.LogSamplingConfig

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    pipdexConfig.Port,
		Handler: GetMainEngine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrusLogger.Fatalf("listen: %v", err)
		}
	}()
	logrusLogger.Printf("pipdex listening on %s", pipdexConfig.Port)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrusLogger.WithError(err).Warn("server shutdown failed")
	}
}
