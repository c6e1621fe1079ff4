package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentFavoriteAddsPostgres(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	author := testhelpers.CreateUser(t, db, "chef")
	fan := testhelpers.CreateUser(t, db, "fan")
	recipe := testhelpers.CreateRecipe(t, db, author, "Bread")
	svc := service.NewRelationService(db)

	const workers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, dupes  int
		unexpected []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddFavorite(context.Background(), fan.ID, recipe.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case service.IsDuplicateRelation(err):
				dupes++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unexpected)
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dupes)

	var count int64
	require.NoError(t, db.Model(&models.Favorite{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestShoppingListPostgres(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	author := testhelpers.CreateUser(t, db, "chef")
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")
	a := testhelpers.CreateRecipe(t, db, author, "A", testhelpers.Amount{Ingredient: flour, Amount: 200})
	b := testhelpers.CreateRecipe(t, db, author, "B", testhelpers.Amount{Ingredient: flour, Amount: 300})
	relations := service.NewRelationService(db)
	ctx := context.Background()

	for _, r := range []*models.Recipe{a, b} {
		_, err := relations.AddToCart(ctx, author.ID, r.ID)
		require.NoError(t, err)
	}

	items, err := service.NewShoppingListService(db).Build(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ShoppingListItem{{Name: "Flour", MeasurementUnit: "g", Total: 500}}, items)
}
