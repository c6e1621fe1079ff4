package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	GenerateToken(user *models.User) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IUserService defines the interface for user operations
type IUserService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*types.UserView, error)
	Get(ctx context.Context, id, viewerID uint) (*types.UserView, error)
	List(ctx context.Context, page types.Page, viewerID uint) (*types.PageResult[types.UserView], error)
	SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error)
	ClearAvatar(ctx context.Context, userID uint) error
	Subscriptions(ctx context.Context, userID uint, page types.Page, recipesLimit int) (*types.PageResult[types.SubscriptionView], error)
}

// IIngredientService defines the interface for ingredient operations
type IIngredientService interface {
	List(ctx context.Context, prefix string) ([]types.IngredientView, error)
	Get(ctx context.Context, id uint) (*types.IngredientView, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, authorID uint, req *types.CreateRecipeRequest) (*types.RecipeDetail, error)
	Update(ctx context.Context, recipeID, userID uint, req *types.UpdateRecipeRequest) (*types.RecipeDetail, error)
	Delete(ctx context.Context, recipeID, userID uint) error
	Get(ctx context.Context, recipeID, viewerID uint) (*types.RecipeDetail, error)
	List(ctx context.Context, filter types.RecipeFilter, page types.Page, viewerID uint) (*types.PageResult[types.RecipeDetail], error)
	ShortLink(ctx context.Context, recipeID uint) (string, error)
	ResolveShortLink(ctx context.Context, code string) (uint, error)
}

// IRelationService defines the interface for favorites, cart and subscriptions
type IRelationService interface {
	AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeBrief, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeBrief, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionView, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
}

// IShoppingListService defines the interface for shopping list aggregation
type IShoppingListService interface {
	Build(ctx context.Context, userID uint) ([]types.ShoppingListItem, error)
}

var (
	_ IAuthService         = (*AuthService)(nil)
	_ IUserService         = (*UserService)(nil)
	_ IIngredientService   = (*IngredientService)(nil)
	_ IRecipeService       = (*RecipeService)(nil)
	_ IRelationService     = (*RelationService)(nil)
	_ IShoppingListService = (*ShoppingListService)(nil)
)
