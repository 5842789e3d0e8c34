package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"BabyKeeper/internal/model"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db)
	ctx := context.Background()

	u, err := r.CreateUser(ctx, &model.User{Login: "ada@example.org", Password: "hash"})
	assert.NoError(t, err)
	assert.NotZero(t, u.ID)

	got, err := r.GetUserByLogin(ctx, "ada@example.org")
	assert.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	byID, err := r.GetUserByID(ctx, u.ID)
	assert.NoError(t, err)
	assert.Equal(t, "ada@example.org", byID.Login)

	// login is unique
	_, err = r.CreateUser(ctx, &model.User{Login: "ada@example.org", Password: "x"})
	assert.Error(t, err)

	got, err = r.GetUserByLogin(ctx, "nobody@example.org")
	assert.Nil(t, got)
	assert.Equal(t, gorm.ErrRecordNotFound, err)
}
