package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientListPrefix(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	testhelpers.CreateIngredient(t, db, "Sugar", "g")
	testhelpers.CreateIngredient(t, db, "salt", "pinch")
	testhelpers.CreateIngredient(t, db, "Flour", "g")
	testhelpers.CreateIngredient(t, db, "100% juice", "ml")
	svc := service.NewIngredientService(db)
	ctx := context.Background()

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	s, err := svc.List(ctx, "S")
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, "Sugar", s[0].Name)
	assert.Equal(t, "salt", s[1].Name)

	// wildcards in the prefix match literally
	pct, err := svc.List(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, pct, 1)
	assert.Equal(t, "100% juice", pct[0].Name)

	none, err := svc.List(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIngredientListCyrillicPrefix(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	testhelpers.CreateIngredient(t, db, "Мука", "г")
	testhelpers.CreateIngredient(t, db, "Молоко", "мл")
	testhelpers.CreateIngredient(t, db, "Сахар", "г")
	svc := service.NewIngredientService(db)
	ctx := context.Background()

	for _, prefix := range []string{"Му", "му"} {
		got, err := svc.List(ctx, prefix)
		require.NoError(t, err)
		require.Len(t, got, 1, prefix)
		assert.Equal(t, "Мука", got[0].Name)
	}

	got, err := svc.List(ctx, "м")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestIngredientGet(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")
	svc := service.NewIngredientService(db)

	v, err := svc.Get(context.Background(), flour.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flour", v.Name)
	assert.Equal(t, "g", v.MeasurementUnit)

	_, err = svc.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, service.ErrIngredientNotFound)
}

func TestIngredientImport(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	testhelpers.CreateIngredient(t, db, "Flour", "g")
	svc := service.NewIngredientService(db)

	data := strings.Join([]string{
		"name,measurement_unit",
		"Flour,g",
		"Flour,kg",
		"  Milk , ml",
		"",
		"broken",
		"Milk,ml",
	}, "\n")

	inserted, err := svc.Import(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// importing again changes nothing
	inserted, err = svc.Import(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestIngredientImportCSV(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	svc := service.NewIngredientService(db)

	n, err := svc.ImportCSV(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	assert.Zero(t, n)

	path := filepath.Join(t.TempDir(), "ingredients.csv")
	require.NoError(t, os.WriteFile(path, []byte("Salt,pinch\nPepper,pinch\n"), 0o644))
	n, err = svc.ImportCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
