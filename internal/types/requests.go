package types

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest represents the request body for obtaining a token
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AvatarRequest carries a base64 data URI
type AvatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

// IngredientAmount is one entry of a recipe's composition in a request
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// CreateRecipeRequest represents the request body for creating a recipe.
// Ingredient amounts are checked by the composition validator, not by
// binding tags, so errors can point at the offending item.
type CreateRecipeRequest struct {
	Ingredients []IngredientAmount `json:"ingredients"`
	Image       string             `json:"image" binding:"required"`
	Name        string             `json:"name" binding:"required,max=256"`
	Text        string             `json:"text" binding:"required"`
	CookingTime int                `json:"cooking_time" binding:"required,min=1,max=1440"`
}

// UpdateRecipeRequest is a partial update; the composition is always replaced
type UpdateRecipeRequest struct {
	Ingredients []IngredientAmount `json:"ingredients"`
	Image       *string            `json:"image" binding:"omitempty"`
	Name        *string            `json:"name" binding:"omitempty,max=256"`
	Text        *string            `json:"text" binding:"omitempty"`
	CookingTime *int               `json:"cooking_time" binding:"omitempty,min=1,max=1440"`
}

// RecipeFilter narrows a recipe listing. Relation filters only apply when
// the viewer is authenticated.
type RecipeFilter struct {
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
}
