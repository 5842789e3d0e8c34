package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"BabyKeeper/internal/config"
	"BabyKeeper/internal/handlers"
	"BabyKeeper/internal/middleware"
	"BabyKeeper/internal/model"
	"BabyKeeper/internal/repo"
	"BabyKeeper/internal/service"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: filepath.Join(t.TempDir(), "test.sqlite")}
	db, err := gorm.Open(dial, &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Baby{}, &model.BabyAccess{},
		&model.LogEntry{}, &model.ChangeEntry{},
	))

	logger := zap.NewNop().Sugar()
	userSvc := service.NewUserService(repo.NewUserRepository(db))
	syncSvc := service.NewSyncService(
		repo.NewBabyRepository(db),
		repo.NewLogEntryRepository(db),
		repo.NewChangeLogRepository(db),
		logger,
	)
	cfg := &config.Config{AuthSecret: testSecret}
	h := handlers.NewHandler(userSvc, syncSvc, logger, cfg)
	return h.Router, db
}

func addAuthCookie(t *testing.T, req *http.Request, userID int64) {
	t.Helper()
	rr := httptest.NewRecorder()
	require.NoError(t, middleware.SetLoginCookie(rr, userID, testSecret))
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}

func registerUser(t *testing.T, router http.Handler, email string) int64 {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/user/register",
		strings.NewReader(`{"email":"`+email+`","password":"p@ss"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	id, err := strconv.ParseInt(resp.UserID, 10, 64)
	require.NoError(t, err)
	return id
}

func seedBabyForUser(t *testing.T, db *gorm.DB, babyID string, userID int64, level string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Baby{ID: babyID, Name: "Ada", OwnerUserID: userID}).Error)
	require.NoError(t, db.Create(&model.BabyAccess{BabyID: babyID, UserID: userID, Level: level}).Error)
}

func TestUser_RegisterAndLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("register sets auth cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/user/register",
			strings.NewReader(`{"email":"ada@example.org","password":"p@ss"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		hasCookie := false
		for _, c := range rr.Result().Cookies() {
			if c.Name == "auth_token" && c.Value != "" {
				hasCookie = true
			}
		}
		assert.True(t, hasCookie, "Set-Cookie auth_token expected")
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/user/register",
			strings.NewReader(`{"email":"ada@example.org","password":"p@ss"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("login ok", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/user/login",
			strings.NewReader(`{"email":"ada@example.org","password":"p@ss"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("wrong password unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/user/login",
			strings.NewReader(`{"email":"ada@example.org","password":"nope"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestSync_RequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/sync/pull?babyId=b1"},
		{http.MethodPost, "/api/sync/push"},
		{http.MethodGet, "/api/sync/bootstrap"},
		{http.MethodGet, "/api/babies/verify-access?babyId=b1"},
		{http.MethodPost, "/api/babies"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equalf(t, http.StatusUnauthorized, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestSync_PushThenPull(t *testing.T) {
	router, db := newTestRouter(t)
	userID := registerUser(t, router, "ada@example.org")
	seedBabyForUser(t, db, "b1", userID, model.AccessOwner)

	now := time.Now().UTC().Format(time.RFC3339)
	pushBody := `{"mutations":[{"mutationId":"m1","entityType":"feed_log","entityId":"f1","op":"create",` +
		`"payload":{"id":"f1","babyId":"b1","amountMl":120,"startedAt":"` + now + `","updatedAt":"` + now + `"}}]}`

	req := httptest.NewRequest(http.MethodPost, "/api/sync/push", strings.NewReader(pushBody))
	addAuthCookie(t, req, userID)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var pushResp struct {
		Results []struct {
			MutationID string `json:"mutationId"`
			Status     string `json:"status"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pushResp))
	require.Len(t, pushResp.Results, 1)
	assert.Equal(t, "success", pushResp.Results[0].Status)

	req = httptest.NewRequest(http.MethodGet, "/api/sync/pull?babyId=b1&since=0&limit=10", nil)
	addAuthCookie(t, req, userID)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var pullResp struct {
		Changes []struct {
			Type       string          `json:"type"`
			Op         string          `json:"op"`
			ID         string          `json:"id"`
			Data       json.RawMessage `json:"data"`
			SequenceID int64           `json:"sequenceId"`
		} `json:"changes"`
		NextCursor int64 `json:"nextCursor"`
		HasMore    bool  `json:"hasMore"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pullResp))
	require.Len(t, pullResp.Changes, 1)
	assert.Equal(t, "feed_log", pullResp.Changes[0].Type)
	assert.Equal(t, "f1", pullResp.Changes[0].ID)
	assert.Equal(t, pullResp.Changes[0].SequenceID, pullResp.NextCursor)
	assert.False(t, pullResp.HasMore)
}

func TestSync_PullForbiddenWithoutGrant(t *testing.T) {
	router, db := newTestRouter(t)
	owner := registerUser(t, router, "owner@example.org")
	stranger := registerUser(t, router, "stranger@example.org")
	seedBabyForUser(t, db, "b1", owner, model.AccessOwner)

	req := httptest.NewRequest(http.MethodGet, "/api/sync/pull?babyId=b1", nil)
	addAuthCookie(t, req, stranger)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSync_Bootstrap(t *testing.T) {
	router, db := newTestRouter(t)
	userID := registerUser(t, router, "ada@example.org")
	seedBabyForUser(t, db, "b1", userID, model.AccessOwner)

	now := time.Now().UTC().Format(time.RFC3339)
	pushBody := `{"mutations":[{"mutationId":"m1","entityType":"feed_log","entityId":"f1","op":"create",` +
		`"payload":{"id":"f1","babyId":"b1","amountMl":120,"startedAt":"` + now + `","updatedAt":"` + now + `"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/sync/push", strings.NewReader(pushBody))
	addAuthCookie(t, req, userID)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/sync/bootstrap", nil)
	addAuthCookie(t, req, userID)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Babies []struct {
			ID string `json:"id"`
		} `json:"babies"`
		BabyAccess []struct {
			AccessLevel string `json:"accessLevel"`
		} `json:"babyAccess"`
		RecentLogs []struct {
			ID string `json:"id"`
		} `json:"recentLogs"`
		Cursors    map[string]int64 `json:"cursors"`
		ServerTime string           `json:"serverTime"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ada@example.org", resp.User.Email)
	require.Len(t, resp.Babies, 1)
	assert.Equal(t, "b1", resp.Babies[0].ID)
	require.Len(t, resp.BabyAccess, 1)
	assert.Equal(t, model.AccessOwner, resp.BabyAccess[0].AccessLevel)
	require.Len(t, resp.RecentLogs, 1)
	assert.Equal(t, "f1", resp.RecentLogs[0].ID)
	assert.Equal(t, int64(1), resp.Cursors["b1"])
	assert.NotEmpty(t, resp.ServerTime)
}

func TestBabies_VerifyAccess(t *testing.T) {
	router, db := newTestRouter(t)
	owner := registerUser(t, router, "owner@example.org")
	stranger := registerUser(t, router, "stranger@example.org")
	seedBabyForUser(t, db, "b1", owner, model.AccessOwner)

	check := func(userID int64, babyID string) (bool, string) {
		req := httptest.NewRequest(http.MethodGet, "/api/babies/verify-access?babyId="+babyID, nil)
		addAuthCookie(t, req, userID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp struct {
			HasAccess bool   `json:"hasAccess"`
			Reason    string `json:"reason"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp.HasAccess, resp.Reason
	}

	has, _ := check(owner, "b1")
	assert.True(t, has)

	has, reason := check(stranger, "b1")
	assert.False(t, has)
	assert.Equal(t, "no_access", reason)

	has, reason = check(owner, "missing")
	assert.False(t, has)
	assert.Equal(t, "baby_not_found", reason)
}

func TestBabies_Create(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := registerUser(t, router, "ada@example.org")

	req := httptest.NewRequest(http.MethodPost, "/api/babies",
		strings.NewReader(`{"name":"Max","birthDate":"2026-01-15T00:00:00Z"}`))
	addAuthCookie(t, req, userID)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Baby struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"baby"`
		Access struct {
			AccessLevel string `json:"accessLevel"`
		} `json:"access"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Baby.ID)
	assert.Equal(t, "Max", resp.Baby.Name)
	assert.Equal(t, model.AccessOwner, resp.Access.AccessLevel)

	// the new baby is pullable right away
	pullReq := httptest.NewRequest(http.MethodGet, "/api/sync/pull?babyId="+resp.Baby.ID, nil)
	addAuthCookie(t, pullReq, userID)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, pullReq)
	assert.Equal(t, http.StatusOK, rr.Code)
}
