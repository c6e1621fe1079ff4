package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
)

// HealthCheck reports each named dependency as "ok" or its error.
type HealthCheck func(ctx context.Context) error

// HealthHandler answers 200 when every check passes and 503 otherwise
func HealthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}

// RegisterRoutes registers all API routes under /api plus the short-link
// redirect at /s/:code.
func RegisterRoutes(router *gin.Engine, svc *Services, opts Options) {
	RegisterValidators()

	requireAuth := middleware.AuthMiddleware(svc.Auth)
	optionalAuth := middleware.OptionalAuth(svc.Auth)

	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users, svc.Relations, opts.PublicBaseURL)
	ingredientHandler := NewIngredientHandler(svc.Ingredients)
	recipeHandler := NewRecipeHandler(svc.Recipes, svc.Relations, svc.Shopping, opts)

	api := router.Group("/api")
	authHandler.RegisterRoutes(api, requireAuth)
	userHandler.RegisterRoutes(api, requireAuth, optionalAuth)
	ingredientHandler.RegisterRoutes(api)
	recipeHandler.RegisterRoutes(api, requireAuth, optionalAuth)

	router.GET("/s/:code", recipeHandler.RedirectShortLink)
}
