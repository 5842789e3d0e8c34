package main

import (
	"net/http"

	"go.uber.org/zap"

	"BabyKeeper/internal/config"
	"BabyKeeper/internal/handlers"
	"BabyKeeper/internal/middleware"
	"BabyKeeper/internal/repo"
	"BabyKeeper/internal/service"
)

func main() {
	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	middleware.SetLogger(sugar)
	defer func() {
		_ = logger.Sync()
	}()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	userRepo := repo.NewUserRepository(gormDB)
	babyRepo := repo.NewBabyRepository(gormDB)
	logRepo := repo.NewLogEntryRepository(gormDB)
	changeRepo := repo.NewChangeLogRepository(gormDB)

	userService := service.NewUserService(userRepo)
	syncService := service.NewSyncService(babyRepo, logRepo, changeRepo, sugar)

	h := handlers.NewHandler(userService, syncService, sugar, cfg)

	addr := cfg.BaseURL
	sugar.Infow("Starting server",
		"addr", addr,
		"database", cfg.DatabaseDSN,
	)

	if err := http.ListenAndServe(addr, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}
