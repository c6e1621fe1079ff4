package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const recipeImagePrefix = "recipes"

// ShortLinkSource hands out candidate short links that are free in the store.
type ShortLinkSource interface {
	Allocate(ctx context.Context, tx *gorm.DB) (string, error)
}

// maxLinkInsertAttempts bounds retries after losing a short-link race to a
// concurrent insert.
const maxLinkInsertAttempts = 5

type RecipeService struct {
	db        *gorm.DB
	images    storage.ImageStore
	links     ShortLinkSource
	cache     *ShortLinkCache
	relations *RelationService
}

func NewRecipeService(db *gorm.DB, images storage.ImageStore, cache *ShortLinkCache, relations *RelationService) *RecipeService {
	if relations == nil {
		relations = NewRelationService(db)
	}
	return &RecipeService{
		db:        db,
		images:    images,
		links:     NewShortLinkAllocator(),
		cache:     cache,
		relations: relations,
	}
}

// WithShortLinks replaces the short-link allocator.
func (s *RecipeService) WithShortLinks(links ShortLinkSource) *RecipeService {
	s.links = links
	return s
}

// Create publishes a recipe. Composition is validated before the image is
// uploaded, and the image is removed again if the transaction fails.
func (s *RecipeService) Create(ctx context.Context, authorID uint, req *types.CreateRecipeRequest) (*types.RecipeDetail, error) {
	if err := validateRecipeFields(req.Name, req.Text, req.CookingTime); err != nil {
		return nil, err
	}
	if err := ValidateComposition(ctx, s.db, req.Ingredients); err != nil {
		return nil, err
	}
	img, err := decodeImage(req.Image)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.Save(ctx, recipeImagePrefix, img)
	if err != nil {
		return nil, fmt.Errorf("failed to store recipe image: %w", err)
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(req.Name),
		Image:       imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.insertWithShortLink(ctx, tx, recipe); err != nil {
			return err
		}
		return ReplaceComposition(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		s.discardImage(ctx, imageURL)
		return nil, err
	}

	logging.L().Info().Uint("recipe_id", recipe.ID).Uint("author_id", authorID).Msg("recipe created")
	return s.Get(ctx, recipe.ID, authorID)
}

// insertWithShortLink inserts recipe under a savepoint so a short_link
// unique violation can be retried with a fresh code without aborting the
// surrounding transaction.
func (s *RecipeService) insertWithShortLink(ctx context.Context, tx *gorm.DB, recipe *models.Recipe) error {
	for attempt := 0; attempt < maxLinkInsertAttempts; attempt++ {
		code, err := s.links.Allocate(ctx, tx)
		if err != nil {
			return err
		}
		recipe.ID = 0
		recipe.ShortLink = code

		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Omit(clause.Associations).Create(recipe).Error
		})
		if err == nil {
			return nil
		}
		switch {
		case isUniqueViolation(err):
			// short_link is the only unique column of recipes
			metrics.ShortLinkCollisions.Inc()
			continue
		case isCheckViolation(err):
			return &ValidationError{Field: "cooking_time", Message: fmt.Sprintf("must be between %d and %d", models.MinCookingTime, models.MaxCookingTime)}
		case isForeignKeyViolation(err):
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return ErrShortLinkExhausted
}

// Update applies a partial update by the author. The composition is
// required and replaces the previous one entirely.
func (s *RecipeService) Update(ctx context.Context, recipeID, userID uint, req *types.UpdateRecipeRequest) (*types.RecipeDetail, error) {
	recipe, err := s.load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrNotAuthor
	}

	if req.Name != nil {
		recipe.Name = strings.TrimSpace(*req.Name)
	}
	if req.Text != nil {
		recipe.Text = *req.Text
	}
	if req.CookingTime != nil {
		recipe.CookingTime = *req.CookingTime
	}
	if err := validateRecipeFields(recipe.Name, recipe.Text, recipe.CookingTime); err != nil {
		return nil, err
	}
	if err := ValidateComposition(ctx, s.db, req.Ingredients); err != nil {
		return nil, err
	}

	oldImage, newImage := recipe.Image, ""
	if req.Image != nil {
		img, err := decodeImage(*req.Image)
		if err != nil {
			return nil, err
		}
		if newImage, err = s.images.Save(ctx, recipeImagePrefix, img); err != nil {
			return nil, fmt.Errorf("failed to store recipe image: %w", err)
		}
		recipe.Image = newImage
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).
			Select("name", "text", "cooking_time", "image").
			Updates(map[string]interface{}{
				"name":         recipe.Name,
				"text":         recipe.Text,
				"cooking_time": recipe.CookingTime,
				"image":        recipe.Image,
			}).Error; err != nil {
			if isCheckViolation(err) {
				return &ValidationError{Field: "cooking_time", Message: "out of range"}
			}
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		return ReplaceComposition(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		if newImage != "" {
			s.discardImage(ctx, newImage)
		}
		return nil, err
	}
	if newImage != "" {
		s.discardImage(ctx, oldImage)
	}

	return s.Get(ctx, recipe.ID, userID)
}

// Delete removes a recipe with its composition and every relation row
// pointing at it.
func (s *RecipeService) Delete(ctx context.Context, recipeID, userID uint) error {
	recipe, err := s.load(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return ErrNotAuthor
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Favorite{}, &models.ShoppingCartEntry{}, &models.RecipeIngredient{}} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete recipe dependents: %w", err)
			}
		}
		if err := tx.Delete(&models.Recipe{}, recipe.ID).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Remove(recipe.ShortLink)
	s.discardImage(ctx, recipe.Image)
	return nil
}

// Get returns the recipe detail as seen by viewerID (0 for anonymous).
func (s *RecipeService) Get(ctx context.Context, recipeID, viewerID uint) (*types.RecipeDetail, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Preload("Author").First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	details, err := s.details(ctx, []models.Recipe{recipe}, viewerID)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// List returns recipes newest first. Relation filters are ignored for
// anonymous viewers.
func (s *RecipeService) List(ctx context.Context, filter types.RecipeFilter, page types.Page, viewerID uint) (*types.PageResult[types.RecipeDetail], error) {
	page = page.Normalize()
	db := s.db.WithContext(ctx)

	q := db.Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if viewerID != 0 && filter.IsFavorited {
		q = q.Where("id IN (?)", s.relations.Favorites.SubQuery(db, viewerID))
	}
	if viewerID != 0 && filter.IsInShoppingCart {
		q = q.Where("id IN (?)", s.relations.Cart.SubQuery(db, viewerID))
	}

	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	if err := q.Session(&gorm.Session{}).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	details, err := s.details(ctx, recipes, viewerID)
	if err != nil {
		return nil, err
	}
	return &types.PageResult[types.RecipeDetail]{Count: count, Results: details}, nil
}

// ShortLink returns the recipe's short-link code.
func (s *RecipeService) ShortLink(ctx context.Context, recipeID uint) (string, error) {
	recipe, err := s.load(ctx, recipeID)
	if err != nil {
		return "", err
	}
	s.cache.Add(recipe.ShortLink, recipe.ID)
	return recipe.ShortLink, nil
}

// ResolveShortLink maps a code back to its recipe id.
func (s *RecipeService) ResolveShortLink(ctx context.Context, code string) (uint, error) {
	if id, ok := s.cache.Get(code); ok {
		return id, nil
	}

	var recipe models.Recipe
	err := s.db.WithContext(ctx).Select("id", "short_link").Where("short_link = ?", code).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrShortLinkNotFound
		}
		return 0, fmt.Errorf("failed to resolve short link: %w", err)
	}
	s.cache.Add(code, recipe.ID)
	return recipe.ID, nil
}

func (s *RecipeService) load(ctx context.Context, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

// details projects recipes with their composition and the viewer's flags,
// loading each in one query for the whole batch.
func (s *RecipeService) details(ctx context.Context, recipes []models.Recipe, viewerID uint) ([]types.RecipeDetail, error) {
	out := make([]types.RecipeDetail, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}

	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}

	composition, err := loadComposition(ctx, s.db, recipeIDs)
	if err != nil {
		return nil, err
	}
	favorited, err := s.relations.Favorites.TargetsOf(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.relations.Cart.TargetsOf(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.relations.Subscriptions.TargetsOf(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	for i := range recipes {
		r := &recipes[i]
		ingredients := composition[r.ID]
		if ingredients == nil {
			ingredients = []types.RecipeIngredientView{}
		}
		out = append(out, types.RecipeDetail{
			ID:               r.ID,
			Author:           userView(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		})
	}
	return out, nil
}

func (s *RecipeService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		logging.L().Warn().Err(err).Str("image", url).Msg("failed to delete image")
	}
}

func validateRecipeFields(name, text string, cookingTime int) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return &ValidationError{Field: "name", Message: "is required"}
	case utf8.RuneCountInString(name) > models.MaxRecipeName:
		return &ValidationError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", models.MaxRecipeName)}
	case strings.TrimSpace(text) == "":
		return &ValidationError{Field: "text", Message: "is required"}
	case cookingTime < models.MinCookingTime || cookingTime > models.MaxCookingTime:
		return &ValidationError{Field: "cooking_time", Message: fmt.Sprintf("must be between %d and %d", models.MinCookingTime, models.MaxCookingTime)}
	}
	return nil
}

func decodeImage(dataURI string) (*storage.Image, error) {
	img, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		return nil, &ValidationError{Field: "image", Message: err.Error()}
	}
	return img, nil
}
