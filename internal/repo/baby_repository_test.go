package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BabyKeeper/internal/model"
)

func TestBabyRepository_CreateAndAccess(t *testing.T) {
	db := newTestDB(t)
	r := NewBabyRepository(db)
	ctx := context.Background()

	baby := &model.Baby{ID: "b1", Name: "Ada", OwnerUserID: 1}
	grant := &model.BabyAccess{BabyID: "b1", UserID: 1, Level: model.AccessOwner}
	require.NoError(t, r.CreateBaby(ctx, baby, grant))

	got, err := r.GetBaby(ctx, "b1")
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Name)

	// missing baby is nil, nil
	got, err = r.GetBaby(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)

	level, err := r.AccessLevel(ctx, "b1", 1)
	assert.NoError(t, err)
	assert.Equal(t, model.AccessOwner, level)

	// no grant reads as empty level
	level, err = r.AccessLevel(ctx, "b1", 99)
	assert.NoError(t, err)
	assert.Equal(t, "", level)
}

func TestBabyRepository_ListForUser(t *testing.T) {
	db := newTestDB(t)
	r := NewBabyRepository(db)
	ctx := context.Background()

	require.NoError(t, r.CreateBaby(ctx,
		&model.Baby{ID: "b1", Name: "Zoe", OwnerUserID: 1},
		&model.BabyAccess{BabyID: "b1", UserID: 1, Level: model.AccessOwner}))
	require.NoError(t, r.CreateBaby(ctx,
		&model.Baby{ID: "b2", Name: "Ada", OwnerUserID: 1},
		&model.BabyAccess{BabyID: "b2", UserID: 1, Level: model.AccessOwner}))
	require.NoError(t, r.CreateBaby(ctx,
		&model.Baby{ID: "b3", Name: "Max", OwnerUserID: 2},
		&model.BabyAccess{BabyID: "b3", UserID: 2, Level: model.AccessOwner}))

	babies, grants, err := r.ListForUser(ctx, 1)
	assert.NoError(t, err)
	require.Len(t, babies, 2)
	assert.Len(t, grants, 2)
	// ordered by name
	assert.Equal(t, "Ada", babies[0].Name)
	assert.Equal(t, "Zoe", babies[1].Name)

	babies, grants, err = r.ListForUser(ctx, 3)
	assert.NoError(t, err)
	assert.Empty(t, babies)
	assert.Empty(t, grants)
}
