package api

import (
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"gorm.io/gorm"
)

// Services bundles everything the handlers call.
type Services struct {
	Auth        service.IAuthService
	Users       service.IUserService
	Ingredients service.IIngredientService
	Recipes     service.IRecipeService
	Relations   service.IRelationService
	Shopping    service.IShoppingListService
}

// NewServices builds the service graph over one database handle. The
// relation guards are shared so recipe, user and relation views agree.
func NewServices(db *gorm.DB, images storage.ImageStore, cache *service.ShortLinkCache, auth *service.AuthService) *Services {
	relations := service.NewRelationService(db)
	return &Services{
		Auth:        auth,
		Users:       service.NewUserService(db, images, relations),
		Ingredients: service.NewIngredientService(db),
		Recipes:     service.NewRecipeService(db, images, cache, relations),
		Relations:   relations,
		Shopping:    service.NewShoppingListService(db),
	}
}

// Options carries the HTTP-facing settings of RegisterRoutes.
type Options struct {
	// PublicBaseURL prefixes pagination links, short links and redirects
	PublicBaseURL string
	// RecipeCreationLimiter may be nil
	RecipeCreationLimiter *middleware.RateLimiter
}
