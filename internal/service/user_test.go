package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func registerRequest(username string) *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "correct-horse",
	}
}

func TestRegister(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	svc := service.NewUserService(db, new(mocks.MockImageStore), nil)

	req := registerRequest("ada")
	req.Email = "  ADA@Example.com "
	view, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", view.Email)
	assert.Equal(t, "ada", view.Username)
	assert.False(t, view.IsSubscribed)

	var user models.User
	require.NoError(t, db.First(&user, view.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))
}

func TestRegisterConflicts(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	svc := service.NewUserService(db, new(mocks.MockImageStore), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest("ada"))
	require.NoError(t, err)

	sameEmail := registerRequest("other")
	sameEmail.Email = "ada@example.com"
	_, err = svc.Register(ctx, sameEmail)
	var conflict *service.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "email", conflict.Field)

	sameName := registerRequest("ada")
	sameName.Email = "new@example.com"
	_, err = svc.Register(ctx, sameName)
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "username", conflict.Field)
	assert.Equal(t, service.KindConflict, service.KindOf(err))
}

func TestUserGetAndList(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	bob := testhelpers.CreateUser(t, db, "bob")
	alice := testhelpers.CreateUser(t, db, "alice")
	carol := testhelpers.CreateUser(t, db, "carol")
	relations := service.NewRelationService(db)
	svc := service.NewUserService(db, new(mocks.MockImageStore), relations)
	ctx := context.Background()

	_, err := relations.Subscribe(ctx, carol.ID, bob.ID, 0)
	require.NoError(t, err)

	v, err := svc.Get(ctx, bob.ID, carol.ID)
	require.NoError(t, err)
	assert.True(t, v.IsSubscribed)

	v, err = svc.Get(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.False(t, v.IsSubscribed)

	_, err = svc.Get(ctx, 9999, 0)
	assert.ErrorIs(t, err, service.ErrUserNotFound)

	page, err := svc.List(ctx, types.Page{Number: 1, Limit: 2}, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, alice.ID, page.Results[0].ID)
	assert.Equal(t, bob.ID, page.Results[1].ID)
	assert.True(t, page.Results[1].IsSubscribed)
}

func TestSubscriptionsListing(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	fan := testhelpers.CreateUser(t, db, "fan")
	zed := testhelpers.CreateUser(t, db, "zed")
	amy := testhelpers.CreateUser(t, db, "amy")
	testhelpers.CreateUser(t, db, "ignored")
	testhelpers.CreateRecipe(t, db, zed, "Z1")
	testhelpers.CreateRecipe(t, db, zed, "Z2")
	relations := service.NewRelationService(db)
	svc := service.NewUserService(db, new(mocks.MockImageStore), relations)
	ctx := context.Background()

	for _, author := range []*models.User{zed, amy} {
		_, err := relations.Subscribe(ctx, fan.ID, author.ID, 0)
		require.NoError(t, err)
	}

	page, err := svc.Subscriptions(ctx, fan.ID, types.Page{Number: 1, Limit: 10}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Count)
	require.Len(t, page.Results, 2)

	assert.Equal(t, amy.ID, page.Results[0].ID)
	assert.Empty(t, page.Results[0].Recipes)
	assert.Zero(t, page.Results[0].RecipesCount)

	assert.Equal(t, zed.ID, page.Results[1].ID)
	assert.Equal(t, "zed", page.Results[1].Username)
	assert.Len(t, page.Results[1].Recipes, 1)
	assert.Equal(t, int64(2), page.Results[1].RecipesCount)
	assert.True(t, page.Results[1].IsSubscribed)
}

func TestAvatar(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	user := testhelpers.CreateUser(t, db, "ada")
	images := new(mocks.MockImageStore)
	svc := service.NewUserService(db, images, nil)
	ctx := context.Background()

	images.On("Save", mock.Anything, "avatars", mock.Anything).Return("first.png", nil).Once()
	url, err := svc.SetAvatar(ctx, user.ID, testImage)
	require.NoError(t, err)
	assert.Equal(t, "first.png", url)

	images.On("Save", mock.Anything, "avatars", mock.Anything).Return("second.png", nil).Once()
	images.On("Delete", mock.Anything, "first.png").Return(nil).Once()
	_, err = svc.SetAvatar(ctx, user.ID, testImage)
	require.NoError(t, err)

	images.On("Delete", mock.Anything, "second.png").Return(nil).Once()
	require.NoError(t, svc.ClearAvatar(ctx, user.ID))

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Empty(t, stored.Avatar)
	images.AssertExpectations(t)

	_, err = svc.SetAvatar(ctx, user.ID, "garbage")
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "avatar", verr.Field)
}

func TestAvatarFilesOnLocalStore(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	user := testhelpers.CreateUser(t, db, "ada")
	root := t.TempDir()
	images, err := storage.NewLocalStore(root, "/media")
	require.NoError(t, err)
	svc := service.NewUserService(db, images, nil)
	ctx := context.Background()

	fileOf := func(url string) string {
		return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(url, "/media/")))
	}

	first, err := svc.SetAvatar(ctx, user.ID, testImage)
	require.NoError(t, err)
	assert.FileExists(t, fileOf(first))

	second, err := svc.SetAvatar(ctx, user.ID, testImage)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	assert.FileExists(t, fileOf(second))
	_, err = os.Stat(fileOf(first))
	assert.True(t, os.IsNotExist(err), "previous avatar should be removed")

	require.NoError(t, svc.ClearAvatar(ctx, user.ID))
	_, err = os.Stat(fileOf(second))
	assert.True(t, os.IsNotExist(err), "cleared avatar should be removed")
}
