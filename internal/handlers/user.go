package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"BabyKeeper/internal/config"
	"BabyKeeper/internal/middleware"
	"BabyKeeper/internal/service"
)

type UserHandler struct {
	users  *service.UserService
	logger *zap.SugaredLogger
	cfg    *config.Config
}

func NewUserHandler(users *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{users: users, logger: logger, cfg: cfg}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID     string `json:"userId"`
	ExternalID string `json:"externalId"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.users.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrLoginTaken) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		h.logger.Errorw("register failed", "err", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	if err := middleware.SetLoginCookie(w, u.ID, h.cfg.AuthSecret); err != nil {
		h.logger.Errorw("failed to set auth cookie", "err", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		UserID:     strconv.FormatInt(u.ID, 10),
		ExternalID: u.ExternalID,
	})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.logger.Errorw("login failed", "err", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if err := middleware.SetLoginCookie(w, u.ID, h.cfg.AuthSecret); err != nil {
		h.logger.Errorw("failed to set auth cookie", "err", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		UserID:     strconv.FormatInt(u.ID, 10),
		ExternalID: u.ExternalID,
	})
}
