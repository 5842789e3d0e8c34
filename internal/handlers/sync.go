package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"BabyKeeper/internal/middleware"
	"BabyKeeper/internal/model"
	"BabyKeeper/internal/service"
)

type SyncHandler struct {
	users  *service.UserService
	sync   *service.SyncService
	logger *zap.SugaredLogger
}

func NewSyncHandler(users *service.UserService, sync *service.SyncService, logger *zap.SugaredLogger) *SyncHandler {
	return &SyncHandler{users: users, sync: sync, logger: logger}
}

// Wire shapes. Entity ids and user ids travel as strings, timestamps as
// RFC3339.

type changeRecord struct {
	Type       string          `json:"type"`
	Op         string          `json:"op"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data,omitempty"`
	SequenceID int64           `json:"sequenceId"`
	CreatedAt  string          `json:"createdAt"`
}

type pullResponse struct {
	Changes    []changeRecord `json:"changes"`
	NextCursor int64          `json:"nextCursor"`
	HasMore    bool           `json:"hasMore"`
}

type pushMutation struct {
	MutationID string          `json:"mutationId"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Op         string          `json:"op"`
	Payload    json.RawMessage `json:"payload"`
}

type pushRequest struct {
	Mutations []pushMutation `json:"mutations"`
}

type mutationResult struct {
	MutationID string          `json:"mutationId"`
	Status     string          `json:"status"`
	EntityType string          `json:"entityType,omitempty"`
	ServerData json.RawMessage `json:"serverData,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type pushResponse struct {
	Results []mutationResult `json:"results"`
}

type verifyAccessResponse struct {
	HasAccess bool   `json:"hasAccess"`
	Reason    string `json:"reason,omitempty"`
}

type userDTO struct {
	ID            string `json:"id"`
	ExternalID    string `json:"externalId"`
	Email         string `json:"email,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	DefaultBabyID string `json:"defaultBabyId,omitempty"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

type babyDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BirthDate   string `json:"birthDate,omitempty"`
	OwnerUserID string `json:"ownerUserId,omitempty"`
	ArchivedAt  string `json:"archivedAt,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type accessDTO struct {
	BabyID         string `json:"babyId"`
	UserID         string `json:"userId"`
	AccessLevel    string `json:"accessLevel"`
	CaregiverLabel string `json:"caregiverLabel,omitempty"`
	LastAccessedAt string `json:"lastAccessedAt,omitempty"`
}

type bootstrapResponse struct {
	User       userDTO          `json:"user"`
	Babies     []babyDTO        `json:"babies"`
	BabyAccess []accessDTO      `json:"babyAccess"`
	RecentLogs []changeRecord   `json:"recentLogs"`
	Cursors    map[string]int64 `json:"cursors"`
	ServerTime string           `json:"serverTime"`
}

func wireTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func wireTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return wireTime(*t)
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{
		ID:            strconv.FormatInt(u.ID, 10),
		ExternalID:    u.ExternalID,
		Email:         u.Login,
		FirstName:     u.FirstName,
		DefaultBabyID: u.DefaultBabyID,
		CreatedAt:     wireTime(u.CreatedAt),
		UpdatedAt:     wireTime(u.UpdatedAt),
	}
}

func toBabyDTO(b *model.Baby) babyDTO {
	return babyDTO{
		ID:          b.ID,
		Name:        b.Name,
		BirthDate:   wireTimePtr(b.BirthDate),
		OwnerUserID: strconv.FormatInt(b.OwnerUserID, 10),
		ArchivedAt:  wireTimePtr(b.ArchivedAt),
		CreatedAt:   wireTime(b.CreatedAt),
		UpdatedAt:   wireTime(b.UpdatedAt),
	}
}

func toAccessDTO(g *model.BabyAccess) accessDTO {
	return accessDTO{
		BabyID:         g.BabyID,
		UserID:         strconv.FormatInt(g.UserID, 10),
		AccessLevel:    g.Level,
		CaregiverLabel: g.CaregiverLabel,
		LastAccessedAt: wireTimePtr(g.LastAccessedAt),
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return userID, true
}

func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	babyID := r.URL.Query().Get("babyId")
	if babyID == "" {
		writeError(w, http.StatusBadRequest, "babyId is required")
		return
	}
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	page, err := h.sync.Pull(r.Context(), userID, babyID, since, limit)
	if errors.Is(err, service.ErrNoAccess) {
		writeError(w, http.StatusForbidden, "no access to baby")
		return
	}
	if err != nil {
		h.logger.Errorw("pull failed", "babyId", babyID, "err", err)
		writeError(w, http.StatusInternalServerError, "pull failed")
		return
	}

	resp := pullResponse{
		Changes:    make([]changeRecord, 0, len(page.Changes)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	for _, e := range page.Changes {
		resp.Changes = append(resp.Changes, changeRecord{
			Type:       e.EntityType,
			Op:         e.Op,
			ID:         e.EntityID,
			Data:       e.Data,
			SequenceID: e.Seq,
			CreatedAt:  wireTime(e.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mutations := make([]service.Mutation, 0, len(req.Mutations))
	for _, m := range req.Mutations {
		mutations = append(mutations, service.Mutation{
			MutationID: m.MutationID,
			EntityType: m.EntityType,
			EntityID:   m.EntityID,
			Op:         m.Op,
			Payload:    m.Payload,
		})
	}

	outcomes, err := h.sync.Push(r.Context(), userID, mutations)
	if err != nil {
		h.logger.Errorw("push failed", "err", err)
		writeError(w, http.StatusInternalServerError, "push failed")
		return
	}

	resp := pushResponse{Results: make([]mutationResult, 0, len(outcomes))}
	for _, o := range outcomes {
		resp.Results = append(resp.Results, mutationResult{
			MutationID: o.MutationID,
			Status:     o.Status,
			EntityType: o.EntityType,
			ServerData: o.ServerData,
			Error:      o.Error,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SyncHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("bootstrap failed", "userId", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "bootstrap failed")
		return
	}

	snap, err := h.sync.BuildSnapshot(r.Context(), u)
	if err != nil {
		h.logger.Errorw("bootstrap failed", "userId", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "bootstrap failed")
		return
	}

	resp := bootstrapResponse{
		User:       toUserDTO(snap.User),
		Babies:     make([]babyDTO, 0, len(snap.Babies)),
		BabyAccess: make([]accessDTO, 0, len(snap.Grants)),
		RecentLogs: make([]changeRecord, 0, len(snap.RecentLogs)),
		Cursors:    snap.Cursors,
		ServerTime: wireTime(time.Now()),
	}
	for i := range snap.Babies {
		resp.Babies = append(resp.Babies, toBabyDTO(&snap.Babies[i]))
	}
	for i := range snap.Grants {
		resp.BabyAccess = append(resp.BabyAccess, toAccessDTO(&snap.Grants[i]))
	}
	for i := range snap.RecentLogs {
		e := &snap.RecentLogs[i]
		resp.RecentLogs = append(resp.RecentLogs, changeRecord{
			Type:      e.Type,
			Op:        "create",
			ID:        e.ID,
			Data:      e.Data,
			CreatedAt: wireTime(e.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SyncHandler) VerifyAccess(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	babyID := r.URL.Query().Get("babyId")
	if babyID == "" {
		writeError(w, http.StatusBadRequest, "babyId is required")
		return
	}

	check, err := h.sync.VerifyAccess(r.Context(), userID, babyID)
	if err != nil {
		h.logger.Errorw("verify-access failed", "babyId", babyID, "err", err)
		writeError(w, http.StatusInternalServerError, "verify failed")
		return
	}
	writeJSON(w, http.StatusOK, verifyAccessResponse{HasAccess: check.HasAccess, Reason: check.Reason})
}

type createBabyRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate,omitempty"`
}

func (h *SyncHandler) CreateBaby(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createBabyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	var birth *time.Time
	if req.BirthDate != "" {
		t, err := time.Parse(time.RFC3339, req.BirthDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "birthDate must be RFC3339")
			return
		}
		birth = &t
	}

	b, g, err := h.sync.CreateBaby(r.Context(), userID, req.Name, birth)
	if err != nil {
		h.logger.Errorw("create baby failed", "err", err)
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"baby":   toBabyDTO(b),
		"access": toAccessDTO(g),
	})
}
