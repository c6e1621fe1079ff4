package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// RelationService exposes favorites, shopping cart and subscriptions with
// their response projections.
type RelationService struct {
	db            *gorm.DB
	Favorites     *RelationGuard[models.Favorite]
	Cart          *RelationGuard[models.ShoppingCartEntry]
	Subscriptions *RelationGuard[models.Subscription]
}

func NewRelationService(db *gorm.DB) *RelationService {
	return &RelationService{
		db:            db,
		Favorites:     NewFavoriteGuard(db),
		Cart:          NewShoppingCartGuard(db),
		Subscriptions: NewSubscriptionGuard(db),
	}
}

func (s *RelationService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeBrief, error) {
	if _, err := s.Favorites.Add(ctx, userID, recipeID); err != nil {
		return nil, err
	}
	return s.brief(ctx, recipeID)
}

func (s *RelationService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.Favorites.Remove(ctx, userID, recipeID)
}

func (s *RelationService) AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeBrief, error) {
	if _, err := s.Cart.Add(ctx, userID, recipeID); err != nil {
		return nil, err
	}
	return s.brief(ctx, recipeID)
}

func (s *RelationService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.Cart.Remove(ctx, userID, recipeID)
}

// Subscribe makes userID follow authorID and returns the author's
// subscription view with up to recipesLimit recipes.
func (s *RelationService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionView, error) {
	if _, err := s.Subscriptions.Add(ctx, userID, authorID); err != nil {
		return nil, err
	}

	var author models.User
	if err := s.db.WithContext(ctx).First(&author, authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load author: %w", err)
	}

	views, err := subscriptionViews(ctx, s.db, []models.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *RelationService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	return s.Subscriptions.Remove(ctx, userID, authorID)
}

func (s *RelationService) brief(ctx context.Context, recipeID uint) (*types.RecipeBrief, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	b := recipeBrief(&recipe)
	return &b, nil
}
