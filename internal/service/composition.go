package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// ValidateComposition checks a recipe's ingredient list before it is written.
// Items are checked in request order, range before existence, so the first
// offending position is reported; duplicates are reported last and list
// every repeated id.
func ValidateComposition(ctx context.Context, db *gorm.DB, items []types.IngredientAmount) error {
	if len(items) == 0 {
		return ErrEmptyComposition
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}

	var found []uint
	if err := db.WithContext(ctx).Model(&models.Ingredient{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("failed to look up ingredients: %w", err)
	}
	known := make(map[uint]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}

	for i, it := range items {
		if it.Amount < models.MinIngredientAmount || it.Amount > models.MaxIngredientAmount {
			return &QuantityOutOfRangeError{Index: i, IngredientID: it.ID, Amount: it.Amount}
		}
		if _, ok := known[it.ID]; !ok {
			return &UnknownIngredientError{Index: i, ID: it.ID}
		}
	}

	if dups := duplicateIDs(items); len(dups) > 0 {
		return &DuplicateIngredientError{IDs: dups}
	}
	return nil
}

// duplicateIDs returns every id that occurs more than once, ascending.
func duplicateIDs(items []types.IngredientAmount) []uint {
	seen := make(map[uint]int, len(items))
	for _, it := range items {
		seen[it.ID]++
	}
	var dups []uint
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i] < dups[j] })
	return dups
}

// ReplaceComposition swaps the whole ingredient set of a recipe. It must run
// inside the caller's transaction so a failure keeps the previous set.
func ReplaceComposition(tx *gorm.DB, recipeID uint, items []types.IngredientAmount) error {
	if len(items) == 0 {
		return ErrEmptyComposition
	}

	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}

	rows := make([]models.RecipeIngredient, 0, len(items))
	for _, it := range items {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: it.ID,
			Amount:       it.Amount,
		})
	}
	if err := tx.Omit("Ingredient").Create(&rows).Error; err != nil {
		return translateCompositionError(err, items)
	}
	return nil
}

// translateCompositionError maps store constraint failures to the error
// taxonomy. Only reachable when validation was skipped or raced.
func translateCompositionError(err error, items []types.IngredientAmount) error {
	switch {
	case isUniqueViolation(err):
		return &DuplicateIngredientError{IDs: duplicateIDs(items)}
	case isForeignKeyViolation(err):
		return fmt.Errorf("failed to save recipe ingredients: %w", ErrIngredientNotFound)
	case isCheckViolation(err):
		for i, it := range items {
			if it.Amount < models.MinIngredientAmount || it.Amount > models.MaxIngredientAmount {
				return &QuantityOutOfRangeError{Index: i, IngredientID: it.ID, Amount: it.Amount}
			}
		}
		return &ValidationError{Field: "ingredients", Message: "amount out of range"}
	}
	return fmt.Errorf("failed to save recipe ingredients: %w", err)
}

// loadComposition returns the ingredient views of the given recipes keyed by recipe id.
func loadComposition(ctx context.Context, db *gorm.DB, recipeIDs []uint) (map[uint][]types.RecipeIngredientView, error) {
	out := make(map[uint][]types.RecipeIngredientView, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		RecipeID        uint
		ID              uint
		Name            string
		MeasurementUnit string
		Amount          int
	}
	err := db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("recipe_ingredients.recipe_id, ingredients.id, ingredients.name, ingredients.measurement_unit, recipe_ingredients.amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id IN ?", recipeIDs).
		Order("ingredients.name, ingredients.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe ingredients: %w", err)
	}

	for _, r := range rows {
		out[r.RecipeID] = append(out[r.RecipeID], types.RecipeIngredientView{
			ID:              r.ID,
			Name:            r.Name,
			MeasurementUnit: r.MeasurementUnit,
			Amount:          r.Amount,
		})
	}
	return out, nil
}
