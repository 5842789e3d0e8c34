package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BabyKeeper/internal/config"
	"BabyKeeper/internal/middleware"
	"BabyKeeper/internal/service"
)

type Handler struct {
	Router chi.Router
}

// NewHandler wires routes to handlers.
func NewHandler(
	userService *service.UserService,
	syncService *service.SyncService,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	userHandler := NewUserHandler(userService, logger, config)
	syncHandler := NewSyncHandler(userService, syncService, logger)

	// User routes
	r.Post("/api/user/register", userHandler.Register)
	r.Post("/api/user/login", userHandler.Login)

	// Sync routes
	r.Get("/api/sync/pull", syncHandler.Pull)
	r.Post("/api/sync/push", syncHandler.Push)
	r.Get("/api/sync/bootstrap", syncHandler.Bootstrap)

	// Baby routes
	r.Post("/api/babies", syncHandler.CreateBaby)
	r.Get("/api/babies/verify-access", syncHandler.VerifyAccess)

	return &Handler{Router: r}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
