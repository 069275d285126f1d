package main

import (
	"os"

	"go.uber.org/zap"

	"smarttasks/internal/api"
	"smarttasks/internal/auth"
	"smarttasks/internal/repository"
	"smarttasks/internal/service"
	"smarttasks/internal/storage"
	"smarttasks/pkg/config"
	"smarttasks/pkg/db"
	"smarttasks/pkg/logger"
	"smarttasks/pkg/mq"
	redisclient "smarttasks/pkg/redis"
)

func main() {
	// Load config
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger()
	defer log.Sync()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()
	revoker := auth.NewRevoker(rdb, log)

	// Init RabbitMQ publisher. The broker is optional: without it the API
	// still serves, it just stops announcing domain events.
	var publisher *mq.Publisher
	if cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("MQ publisher unavailable, events disabled", zap.Error(err))
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	// Attachment payload storage
	var store storage.Store
	switch cfg.Storage.Driver {
	case "minio":
		store, err = storage.NewMinioStore(cfg.Storage.Minio, log)
		if err != nil {
			log.Fatal("MinIO initialization failed", zap.Error(err))
		}
	default:
		store = storage.NewPostgresStore(dbConn)
	}
	log.Info("Attachment storage ready", zap.String("driver", cfg.Storage.Driver))

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn, log)
	taskRepo := repository.NewTaskRepository(dbConn, log)
	attachmentRepo := repository.NewAttachmentRepository(dbConn, log)

	// Init Services
	authService := service.NewAuthService(userRepo, revoker, cfg.JWT.Secret)
	projectService := service.NewProjectService(projectRepo, publisher, log)
	taskService := service.NewTaskService(taskRepo, projectRepo, publisher, log)
	attachmentService := service.NewAttachmentService(attachmentRepo, taskRepo, store, publisher, log)
	dashboardService := service.NewDashboardService(projectRepo, taskRepo, log)

	// Init Handlers
	authHandler := api.NewAuthHandler(authService)
	projectHandler := api.NewProjectHandler(projectService)
	taskHandler := api.NewTaskHandler(taskService)
	attachmentHandler := api.NewAttachmentHandler(attachmentService)
	dashboardHandler := api.NewDashboardHandler(dashboardService)

	// Router
	router := api.NewRouter(authHandler, projectHandler, taskHandler, attachmentHandler,
		dashboardHandler, cfg.JWT.Secret, revoker, log, dbConn)

	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
