package service

import (
	"context"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

func userView(u *models.User, isSubscribed bool) types.UserView {
	return types.UserView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
		Avatar:       u.Avatar,
	}
}

func recipeBrief(r *models.Recipe) types.RecipeBrief {
	return types.RecipeBrief{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

func ingredientView(i *models.Ingredient) types.IngredientView {
	return types.IngredientView{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

// UnlimitedRecipes disables the recipes_limit of a subscription view.
const UnlimitedRecipes = -1

// subscriptionViews projects followed authors with their recipe counts and up
// to recipesLimit most recent recipes each.
func subscriptionViews(ctx context.Context, db *gorm.DB, authors []models.User, recipesLimit int) ([]types.SubscriptionView, error) {
	views := make([]types.SubscriptionView, 0, len(authors))
	if len(authors) == 0 {
		return views, nil
	}

	ids := make([]uint, len(authors))
	for i := range authors {
		ids[i] = authors[i].ID
	}

	var counts []struct {
		AuthorID uint
		Total    int64
	}
	if err := db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count author recipes: %w", err)
	}
	countByAuthor := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countByAuthor[c.AuthorID] = c.Total
	}

	for i := range authors {
		author := &authors[i]
		briefs := []types.RecipeBrief{}
		if recipesLimit != 0 {
			q := db.WithContext(ctx).Where("author_id = ?", author.ID).Order("created_at DESC, id DESC")
			if recipesLimit > 0 {
				q = q.Limit(recipesLimit)
			}
			var recipes []models.Recipe
			if err := q.Find(&recipes).Error; err != nil {
				return nil, fmt.Errorf("failed to load author recipes: %w", err)
			}
			for j := range recipes {
				briefs = append(briefs, recipeBrief(&recipes[j]))
			}
		}

		views = append(views, types.SubscriptionView{
			UserView:     userView(author, true),
			Recipes:      briefs,
			RecipesCount: countByAuthor[author.ID],
		})
	}
	return views, nil
}
