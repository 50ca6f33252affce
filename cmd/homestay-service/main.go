package main

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"homestay-service/internal/auth"
	"homestay-service/internal/config"
	"homestay-service/internal/db"
	httphandler "homestay-service/internal/http"
	"homestay-service/internal/http/middleware"
	"homestay-service/internal/lineage"
	"homestay-service/internal/logger"
	"homestay-service/internal/notify"
	"homestay-service/internal/repository"
	"homestay-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	applicationRepo := repository.NewApplicationRepository(database)
	documentRepo := repository.NewDocumentRepository(database)
	inspectionRepo := repository.NewInspectionRepository(database)
	userRepo := repository.NewUserRepository(database)

	var dispatcher notify.Dispatcher = notify.NopDispatcher{}
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		dispatcher = notify.NewRedisDispatcher(redisClient, cfg.Redis.EventQueue, log)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, notifications disabled")
	}

	settings := cfg.WorkflowSettings()
	lineageManager := lineage.NewManager(applicationRepo)

	applicationService := service.NewApplicationService(applicationRepo, documentRepo, inspectionRepo, lineageManager, settings, log)
	lifecycleService := service.NewLifecycleService(applicationRepo, documentRepo, inspectionRepo, userRepo, dispatcher, settings, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(applicationService, lifecycleService, database, log)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting homestay service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
