package testhelpers

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

var fixtureSeq atomic.Int64

func nextSeq() int64 {
	return fixtureSeq.Add(1)
}

// CreateUser inserts a user. The password hash is not a real bcrypt hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "not-a-hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// CreateIngredient inserts an ingredient.
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ing
}

// Amount pairs an ingredient with a quantity for CreateRecipe.
type Amount struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateRecipe inserts a recipe and its composition directly, bypassing
// validation.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, items ...Amount) *models.Recipe {
	t.Helper()
	seq := nextSeq()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "recipes/test.png",
		Text:        "Mix and cook.",
		CookingTime: 10,
		ShortLink:   fmt.Sprintf("t%05d", seq%100000),
	}
	if err := db.Omit("Author", "Ingredients").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	for _, it := range items {
		row := &models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: it.Ingredient.ID, Amount: it.Amount}
		if err := db.Omit("Ingredient").Create(row).Error; err != nil {
			t.Fatalf("failed to add ingredient to recipe %s: %v", name, err)
		}
	}
	return recipe
}
