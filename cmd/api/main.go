package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate-backend/internal/config"
	"estate-backend/internal/interfaces/router"
	"estate-backend/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var fiberApp *fiber.App
var appCfg *config.Config
var startupDB *gorm.DB
var startupRdb redis.UniversalClient

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}
	logger.Setup(cfg.IsProduction())
	appCfg = cfg
	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		panic("app create: " + err.Error())
	}
	fiberApp = app
	startupDB = db
	startupRdb = rdb
}

func Handler(w http.ResponseWriter, r *http.Request) {
	adaptor.FiberApp(fiberApp)(w, r)
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := router.Ping(ctx, startupDB, startupRdb); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("dependency check failed")
	}
	cancel()
	log.Info().Bool("redis", startupRdb != nil).Bool("amqp", appCfg.AMQPURL != "").Msg("dependencies connected")
	log.Info().Str("port", appCfg.Port).Str("health", "http://localhost:"+appCfg.Port+"/health/json").Msg("server starting")

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Info().Msg("shutting down")
		_ = fiberApp.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := fiberApp.Listen(":" + appCfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
