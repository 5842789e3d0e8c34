package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"BabyKeeper/internal/model"
	"BabyKeeper/internal/repo"
)

func newSyncService(t *testing.T) (*SyncService, *gorm.DB) {
	t.Helper()
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: filepath.Join(t.TempDir(), "test.sqlite")}
	db, err := gorm.Open(dial, &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Baby{}, &model.BabyAccess{},
		&model.LogEntry{}, &model.ChangeEntry{},
	))
	svc := NewSyncService(
		repo.NewBabyRepository(db),
		repo.NewLogEntryRepository(db),
		repo.NewChangeLogRepository(db),
		zap.NewNop().Sugar(),
	)
	return svc, db
}

func seedBaby(t *testing.T, db *gorm.DB, babyID string, userID int64, level string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Baby{ID: babyID, Name: "Ada", OwnerUserID: userID}).Error)
	require.NoError(t, db.Create(&model.BabyAccess{BabyID: babyID, UserID: userID, Level: level}).Error)
}

func feedPayload(id, babyID string, amount int, updatedAt time.Time) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"id":%q,"babyId":%q,"amountMl":%d,"startedAt":%q,"updatedAt":%q}`,
		id, babyID, amount,
		updatedAt.UTC().Format(time.RFC3339), updatedAt.UTC().Format(time.RFC3339),
	))
}

func TestSyncService_PushAndPullRoundTrip(t *testing.T) {
	svc, db := newSyncService(t)
	seedBaby(t, db, "b1", 1, model.AccessOwner)
	ctx := context.Background()

	outcomes, err := svc.Push(ctx, 1, []Mutation{
		{MutationID: "m1", EntityType: "feed_log", EntityID: "f1", Op: "create",
			Payload: feedPayload("f1", "b1", 120, time.Now())},
		{MutationID: "m2", EntityType: "feed_log", EntityID: "f2", Op: "create",
			Payload: feedPayload("f2", "b1", 90, time.Now())},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, ResultSuccess, outcomes[0].Status)
	assert.Equal(t, ResultSuccess, outcomes[1].Status)

	page, err := svc.Pull(ctx, 1, "b1", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Changes, 2)
	assert.False(t, page.HasMore)
	assert.Equal(t, "f1", page.Changes[0].EntityID)
	assert.Equal(t, page.Changes[1].Seq, page.NextCursor)

	// nothing new after the cursor
	page, err = svc.Pull(ctx, 1, "b1", page.NextCursor, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Changes)
	assert.False(t, page.HasMore)
}

func TestSyncService_PullPagingAndClamp(t *testing.T) {
	svc, db := newSyncService(t)
	seedBaby(t, db, "b1", 1, model.AccessOwner)
	ctx := context.Background()

	var mutations []Mutation
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("f%d", i)
		mutations = append(mutations, Mutation{
			MutationID: id, EntityType: "feed_log", EntityID: id, Op: "create",
			Payload: feedPayload(id, "b1", 100, time.Now()),
		})
	}
	_, err := svc.Push(ctx, 1, mutations)
	require.NoError(t, err)

	page, err := svc.Pull(ctx, 1, "b1", 0, 2)
	require.NoError(t, err)
	assert.Len(t, page.Changes, 2)
	assert.True(t, page.HasMore)

	page, err = svc.Pull(ctx, 1, "b1", page.NextCursor, 2)
	require.NoError(t, err)
	assert.Len(t, page.Changes, 2)
	assert.True(t, page.HasMore)

	page, err = svc.Pull(ctx, 1, "b1", page.NextCursor, 2)
	require.NoError(t, err)
	assert.Len(t, page.Changes, 1)
	assert.False(t, page.HasMore)

	// zero and oversized limits fall back to the server cap
	page, err = svc.Pull(ctx, 1, "b1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Changes, 5)
}

func TestSyncService_PullRequiresGrant(t *testing.T) {
	svc, db := newSyncService(t)
	seedBaby(t, db, "b1", 1, model.AccessOwner)

	_, err := svc.Pull(context.Background(), 99, "b1", 0, 10)
	assert.ErrorIs(t, err, ErrNoAccess)
}

func TestSyncService_PushVerdicts(t *testing.T) {
	svc, db := newSyncService(t)
	seedBaby(t, db, "b1", 1, model.AccessOwner)
	require.NoError(t, db.Create(&model.BabyAccess{BabyID: "b1", UserID: 2, Level: model.AccessViewer}).Error)
	ctx := context.Background()

	t.Run("viewer is denied", func(t *testing.T) {
		outcomes, err := svc.Push(ctx, 2, []Mutation{
			{MutationID: "m1", EntityType: "feed_log", EntityID: "f1", Op: "create",
				Payload: feedPayload("f1", "b1", 120, time.Now())},
		})
		require.NoError(t, err)
		assert.Equal(t, ResultDenied, outcomes[0].Status)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		outcomes, err := svc.Push(ctx, 77, []Mutation{
			{MutationID: "m1", EntityType: "feed_log", EntityID: "f1", Op: "create",
				Payload: feedPayload("f1", "b1", 120, time.Now())},
		})
		require.NoError(t, err)
		assert.Equal(t, ResultDenied, outcomes[0].Status)
	})

	t.Run("malformed payload is invalid", func(t *testing.T) {
		outcomes, err := svc.Push(ctx, 1, []Mutation{
			{MutationID: "m1", EntityType: "feed_log", EntityID: "f1", Op: "create",
				Payload: json.RawMessage(`{broken`)},
		})
		require.NoError(t, err)
		assert.Equal(t, ResultInvalid, outcomes[0].Status)
	})

	t.Run("id mismatch is invalid", func(t *testing.T) {
		outcomes, err := svc.Push(ctx, 1, []Mutation{
			{MutationID: "m1", EntityType: "feed_log", EntityID: "f1", Op: "create",
				Payload: feedPayload("other", "b1", 120, time.Now())},
		})
		require.NoError(t, err)
		assert.Equal(t, ResultInvalid, outcomes[0].Status)
	})

	t.Run("one bad mutation does not poison the batch", func(t *testing.T) {
		outcomes, err := svc.Push(ctx, 1, []Mutation{
			{MutationID: "m1", EntityType: "feed_log", EntityID: "bad", Op: "create",
				Payload: json.RawMessage(`{broken`)},
			{MutationID: "m2", EntityType: "feed_log", EntityID: "ok1", Op: "create",
				Payload: feedPayload("ok1", "b1", 100, time.Now())},
		})
		require.NoError(t, err)
		assert.Equal(t, ResultInvalid, outcomes[0].Status)
		assert.Equal(t, ResultSuccess, outcomes[1].Status)
	})
}

func TestSyncService_ConflictKeepsNewerWrite(t *testing.T) {
	svc, db := newSyncService(t)
	seedBaby(t, db, "b1", 1, model.AccessOwner)
	ctx := context.Background()

	newer := time.Now()
	older := newer.Add(-time.Hour)

	outcomes, err := svc.Push(ctx, 1, []Mutation{
		{MutationID: "m1", EntityType: "feed_log", EntityID: "f1", Op: "update",
			Payload: feedPayload("f1", "b1", 200, newer)},
	})
	require.NoError(t, err)
	require.Equal(t, ResultSuccess, outcomes[0].Status)

	// a stale write loses and receives the stored state back
	outcomes, err = svc.Push(ctx, 1, []Mutation{
		{MutationID: "m2", EntityType: "feed_log", EntityID: "f1", Op: "update",
			Payload: feedPayload("f1", "b1", 50, older)},
	})
	require.NoError(t, err)
	require.Equal(t, ResultConflict, outcomes[0].Status)

	var stored struct {
		AmountMl int `json:"amountMl"`
	}
	require.NoError(t, json.Unmarshal(outcomes[0].ServerData, &stored))
	assert.Equal(t, 200, stored.AmountMl)
}

func TestSyncService_DeleteIsIdempotent(t *testing.T) {
	svc, db := newSyncService(t)
	seedBaby(t, db, "b1", 1, model.AccessOwner)
	ctx := context.Background()

	_, err := svc.Push(ctx, 1, []Mutation{
		{MutationID: "m1", EntityType: "feed_log", EntityID: "f1", Op: "create",
			Payload: feedPayload("f1", "b1", 120, time.Now())},
	})
	require.NoError(t, err)

	del := Mutation{MutationID: "m2", EntityType: "feed_log", EntityID: "f1", Op: "delete",
		Payload: feedPayload("f1", "b1", 120, time.Now())}

	outcomes, err := svc.Push(ctx, 1, []Mutation{del})
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, outcomes[0].Status)

	// deleting a row that never existed also succeeds
	missing := Mutation{MutationID: "m3", EntityType: "feed_log", EntityID: "ghost", Op: "delete",
		Payload: feedPayload("ghost", "b1", 0, time.Now())}
	outcomes, err = svc.Push(ctx, 1, []Mutation{missing})
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, outcomes[0].Status)
}

func TestSyncService_VerifyAccess(t *testing.T) {
	svc, db := newSyncService(t)
	seedBaby(t, db, "b1", 1, model.AccessOwner)
	ctx := context.Background()

	check, err := svc.VerifyAccess(ctx, 1, "b1")
	require.NoError(t, err)
	assert.True(t, check.HasAccess)

	check, err = svc.VerifyAccess(ctx, 99, "b1")
	require.NoError(t, err)
	assert.False(t, check.HasAccess)
	assert.Equal(t, "no_access", check.Reason)

	check, err = svc.VerifyAccess(ctx, 1, "missing")
	require.NoError(t, err)
	assert.False(t, check.HasAccess)
	assert.Equal(t, "baby_not_found", check.Reason)
}

func TestSyncService_BuildSnapshot(t *testing.T) {
	svc, db := newSyncService(t)
	seedBaby(t, db, "b1", 1, model.AccessOwner)
	ctx := context.Background()

	u := &model.User{ID: 1, Login: "ada@example.org", ExternalID: "ext-1"}
	require.NoError(t, db.Create(u).Error)

	// a recent log, an old log outside the window and a change-log watermark
	_, err := svc.Push(ctx, 1, []Mutation{
		{MutationID: "m1", EntityType: "feed_log", EntityID: "fresh", Op: "create",
			Payload: feedPayload("fresh", "b1", 120, time.Now())},
	})
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.LogEntry{
		ID: "old", BabyID: "b1", Type: "feed_log", UserID: 1,
		Data: []byte(`{"id":"old","babyId":"b1"}`), StartedAt: time.Now().Add(-40 * 24 * time.Hour),
	}).Error)

	snap, err := svc.BuildSnapshot(ctx, u)
	require.NoError(t, err)
	require.Len(t, snap.Babies, 1)
	require.Len(t, snap.Grants, 1)
	require.Len(t, snap.RecentLogs, 1)
	assert.Equal(t, "fresh", snap.RecentLogs[0].ID)
	assert.Equal(t, int64(1), snap.Cursors["b1"])
}

func TestSyncService_CreateBaby(t *testing.T) {
	svc, db := newSyncService(t)
	ctx := context.Background()

	b, g, err := svc.CreateBaby(ctx, 7, "Max", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, model.AccessOwner, g.Level)

	level, err := repo.NewBabyRepository(db).AccessLevel(ctx, b.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.AccessOwner, level)

	_, _, err = svc.CreateBaby(ctx, 7, "", nil)
	assert.Error(t, err)
}
