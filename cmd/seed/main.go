// Command seed fills a development database with demo users, one recipe per
// user and a few subscriptions. Run it again safely: existing users are
// skipped.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	demoPassword = "testpassword123"
	// 1x1 transparent PNG
	demoImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
)

var demoUsers = []struct {
	first, last, username string
	recipe                string
}{
	{"John", "Doe", "johndoe", "Buttermilk pancakes"},
	{"Jane", "Smith", "janesmith", "Tomato soup"},
	{"Bob", "Wilson", "bobwilson", "Garlic bread"},
	{"Alice", "Cooper", "alicecooper", "Lemon cake"},
}

func main() {
	log := logging.Component("seed")
	if err := run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Str("password", demoPassword).Msg("demo data ready")
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Component("seed")

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if err := database.RunMigrations(db, "migrations"); err != nil {
		return err
	}

	images, err := storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		return err
	}
	cache, err := service.NewShortLinkCache(64)
	if err != nil {
		return err
	}
	relations := service.NewRelationService(db)
	users := service.NewUserService(db, images, relations)
	recipes := service.NewRecipeService(db, images, cache, relations)

	if _, err := service.NewIngredientService(db).ImportCSV(ctx, cfg.IngredientsCSV); err != nil {
		return err
	}
	var ingredients []models.Ingredient
	if err := db.WithContext(ctx).Order("id").Limit(len(demoUsers) + 2).Find(&ingredients).Error; err != nil {
		return fmt.Errorf("failed to load ingredients: %w", err)
	}
	if len(ingredients) < 3 {
		return errors.New("the ingredient catalogue needs at least 3 entries")
	}

	var created []uint
	for i, u := range demoUsers {
		view, err := users.Register(ctx, &types.RegisterRequest{
			Email:     u.username + "@example.com",
			Username:  u.username,
			FirstName: u.first,
			LastName:  u.last,
			Password:  demoPassword,
		})
		if service.KindOf(err) == service.KindConflict {
			log.Info().Str("username", u.username).Msg("user already exists, skipping")
			continue
		}
		if err != nil {
			return err
		}

		recipe, err := recipes.Create(ctx, view.ID, &types.CreateRecipeRequest{
			Ingredients: []types.IngredientAmount{
				{ID: ingredients[i].ID, Amount: 100 + 50*i},
				{ID: ingredients[i+1].ID, Amount: 2},
				{ID: ingredients[i+2].ID, Amount: 1},
			},
			Image:       demoImage,
			Name:        u.recipe,
			Text:        "Combine everything and cook until done.",
			CookingTime: 20 + 5*i,
		})
		if err != nil {
			return fmt.Errorf("failed to create recipe for %s: %w", u.username, err)
		}
		log.Info().Str("username", u.username).Uint("recipe_id", recipe.ID).Msg("created demo user")
		created = append(created, view.ID)
	}

	// each demo user follows the next one
	for i, id := range created {
		next := created[(i+1)%len(created)]
		if next == id {
			continue
		}
		if _, err := relations.Subscribe(ctx, id, next, 0); err != nil && service.KindOf(err) != service.KindConflict {
			return err
		}
	}
	return nil
}
