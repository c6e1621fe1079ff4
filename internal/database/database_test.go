package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "foodgram.db"),
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	require.NoError(t, database.RunMigrations(db, "does-not-matter"))
	assert.NoError(t, database.HealthCheck(context.Background(), db))

	user := models.User{Email: "a@example.com", Username: "a", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotZero(t, user.ID)

	// foreign keys are enforced
	err = db.Create(&models.Favorite{UserID: user.ID, RecipeID: 9999}).Error
	assert.Error(t, err)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := database.Open(&config.Config{DBDriver: "mysql"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestModelConstraints(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	author := testhelpers.CreateUser(t, db, "chef")

	dup := models.User{Email: "chef@example.com", Username: "chef2", PasswordHash: "x"}
	assert.Error(t, db.Create(&dup).Error)

	zeroTime := models.Recipe{AuthorID: author.ID, Name: "R", Image: "i", Text: "t", CookingTime: 0, ShortLink: "abc123"}
	assert.Error(t, db.Omit("Author", "Ingredients").Create(&zeroTime).Error)
}

func TestRunMigrationsPostgres(t *testing.T) {
	db := testhelpers.SetupPostgres(t)

	require.NoError(t, database.RunMigrations(db, filepath.Join("..", "..", "migrations")))
	// re-running is a no-op
	require.NoError(t, database.RunMigrations(db, filepath.Join("..", "..", "migrations")))

	var applied int64
	require.NoError(t, db.Table("migrations").Count(&applied).Error)
	assert.Positive(t, applied)
}
