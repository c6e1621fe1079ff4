package api_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

type recipeAPI struct {
	*testAPI
	author       *models.User
	authorToken  string
	flour, sugar *models.Ingredient
}

func newRecipeAPI(t *testing.T) *recipeAPI {
	a := newTestAPI(t)
	author := testhelpers.CreateUser(t, a.db, "chef")
	return &recipeAPI{
		testAPI:     a,
		author:      author,
		authorToken: a.token(t, author),
		flour:       testhelpers.CreateIngredient(t, a.db, "Flour", "g"),
		sugar:       testhelpers.CreateIngredient(t, a.db, "Sugar", "g"),
	}
}

func (r *recipeAPI) recipeBody(ingredients ...map[string]any) map[string]any {
	return map[string]any{
		"ingredients":  ingredients,
		"image":        testImage,
		"name":         "Pancakes",
		"text":         "Mix and fry.",
		"cooking_time": 15,
	}
}

func item(ing *models.Ingredient, amount int) map[string]any {
	return map[string]any{"id": ing.ID, "amount": amount}
}

func (r *recipeAPI) create(t *testing.T) uint {
	t.Helper()
	w := r.do(t, http.MethodPost, "/api/recipes", r.authorToken, r.recipeBody(item(r.flour, 200), item(r.sugar, 50)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id, ok := decode(t, w)["id"].(float64)
	require.True(t, ok)
	return uint(id)
}

func TestCreateRecipe(t *testing.T) {
	r := newRecipeAPI(t)

	w := r.do(t, http.MethodPost, "/api/recipes", r.authorToken, r.recipeBody(item(r.sugar, 50), item(r.flour, 200)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Pancakes", body["name"])
	assert.Equal(t, false, body["is_favorited"])
	assert.Contains(t, body["image"], baseURL+"/media/")

	author, ok := body["author"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "chef", author["username"])

	ingredients, ok := body["ingredients"].([]any)
	require.True(t, ok)
	require.Len(t, ingredients, 2)
	assert.Equal(t, "Flour", ingredients[0].(map[string]any)["name"])
	assert.EqualValues(t, 200, ingredients[0].(map[string]any)["amount"])
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	r := newRecipeAPI(t)
	w := r.do(t, http.MethodPost, "/api/recipes", "", r.recipeBody(item(r.flour, 1)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeCompositionErrors(t *testing.T) {
	r := newRecipeAPI(t)

	t.Run("duplicate ingredient", func(t *testing.T) {
		w := r.do(t, http.MethodPost, "/api/recipes", r.authorToken,
			r.recipeBody(item(r.flour, 1), item(r.sugar, 2), item(r.flour, 3)))
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "validation_error", body["code"])
		assert.Equal(t, "ingredients", body["field"])
		assert.Equal(t, []any{float64(r.flour.ID)}, body["ingredient_ids"])
	})

	t.Run("amount out of range", func(t *testing.T) {
		w := r.do(t, http.MethodPost, "/api/recipes", r.authorToken,
			r.recipeBody(item(r.flour, 1), item(r.sugar, 5001)))
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.EqualValues(t, 1, body["index"])
		assert.EqualValues(t, 5001, body["amount"])
	})

	t.Run("unknown ingredient", func(t *testing.T) {
		w := r.do(t, http.MethodPost, "/api/recipes", r.authorToken,
			r.recipeBody(map[string]any{"id": 9999, "amount": 1}))
		require.Equal(t, http.StatusNotFound, w.Code)
		body := decode(t, w)
		assert.EqualValues(t, 9999, body["ingredient_id"])
	})

	t.Run("empty composition", func(t *testing.T) {
		w := r.do(t, http.MethodPost, "/api/recipes", r.authorToken, r.recipeBody())
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ingredients", decode(t, w)["field"])
	})

	t.Run("cooking time", func(t *testing.T) {
		body := r.recipeBody(item(r.flour, 1))
		body["cooking_time"] = 0
		w := r.do(t, http.MethodPost, "/api/recipes", r.authorToken, body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "cooking_time", decode(t, w)["field"])
	})

	t.Run("wrong type", func(t *testing.T) {
		body := r.recipeBody(item(r.flour, 1))
		body["cooking_time"] = "soon"
		w := r.do(t, http.MethodPost, "/api/recipes", r.authorToken, body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "cooking_time", decode(t, w)["field"])
	})

	var count int64
	require.NoError(t, r.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetRecipe(t *testing.T) {
	r := newRecipeAPI(t)
	id := r.create(t)

	w := r.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pancakes", decode(t, w)["name"])

	assert.Equal(t, http.StatusNotFound, r.do(t, http.MethodGet, "/api/recipes/9999", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, r.do(t, http.MethodGet, "/api/recipes/0", "", nil).Code)
}

func TestUpdateRecipe(t *testing.T) {
	r := newRecipeAPI(t)
	id := r.create(t)
	path := fmt.Sprintf("/api/recipes/%d", id)

	w := r.do(t, http.MethodPatch, path, r.authorToken, map[string]any{
		"name":        "Crepes",
		"ingredients": []map[string]any{item(r.sugar, 10)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Crepes", body["name"])
	assert.Len(t, body["ingredients"], 1)

	stranger := testhelpers.CreateUser(t, r.db, "stranger")
	w = r.do(t, http.MethodPatch, path, r.token(t, stranger), map[string]any{
		"name":        "Stolen",
		"ingredients": []map[string]any{item(r.sugar, 10)},
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode(t, w)["code"])
}

func TestDeleteRecipe(t *testing.T) {
	r := newRecipeAPI(t)
	id := r.create(t)
	path := fmt.Sprintf("/api/recipes/%d", id)

	stranger := testhelpers.CreateUser(t, r.db, "stranger")
	assert.Equal(t, http.StatusForbidden, r.do(t, http.MethodDelete, path, r.token(t, stranger), nil).Code)

	assert.Equal(t, http.StatusNoContent, r.do(t, http.MethodDelete, path, r.authorToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, r.do(t, http.MethodGet, path, "", nil).Code)
}

func TestListRecipesFilters(t *testing.T) {
	r := newRecipeAPI(t)
	first := r.create(t)
	r.create(t)

	other := testhelpers.CreateUser(t, r.db, "other")
	testhelpers.CreateRecipe(t, r.db, other, "Soup", testhelpers.Amount{Ingredient: r.flour, Amount: 5})

	w := r.do(t, http.MethodGet, "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["count"])

	w = r.do(t, http.MethodGet, fmt.Sprintf("/api/recipes?author=%d", other.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	require.Equal(t, http.StatusCreated,
		r.do(t, http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite", first), r.authorToken, nil).Code)

	w = r.do(t, http.MethodGet, "/api/recipes?is_favorited=1", r.authorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["count"])
	results := body["results"].([]any)
	assert.Equal(t, true, results[0].(map[string]any)["is_favorited"])

	w = r.do(t, http.MethodGet, "/api/recipes?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Len(t, body["results"], 2)
	assert.Equal(t, baseURL+"/api/recipes?limit=2&page=2", body["next"])

	w = r.do(t, http.MethodGet, "/api/recipes?author=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFavoriteRelation(t *testing.T) {
	r := newRecipeAPI(t)
	id := r.create(t)
	path := fmt.Sprintf("/api/recipes/%d/favorite", id)

	w := r.do(t, http.MethodPost, path, r.authorToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	brief := decode(t, w)
	assert.Equal(t, "Pancakes", brief["name"])
	assert.NotContains(t, brief, "ingredients")

	w = r.do(t, http.MethodPost, path, r.authorToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "favorite", decode(t, w)["relation"])

	assert.Equal(t, http.StatusNoContent, r.do(t, http.MethodDelete, path, r.authorToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, r.do(t, http.MethodDelete, path, r.authorToken, nil).Code)

	assert.Equal(t, http.StatusNotFound, r.do(t, http.MethodPost, "/api/recipes/9999/favorite", r.authorToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, r.do(t, http.MethodPost, path, "", nil).Code)
}

func TestDownloadShoppingCart(t *testing.T) {
	r := newRecipeAPI(t)
	first := r.create(t)
	second := r.create(t)

	for _, id := range []uint{first, second} {
		w := r.do(t, http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", id), r.authorToken, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := r.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", r.authorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, `attachment; filename="shopping_list.txt"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Flour (g) - 400\nSugar (g) - 100", w.Body.String())

	require.Equal(t, http.StatusNoContent,
		r.do(t, http.MethodDelete, fmt.Sprintf("/api/recipes/%d/shopping_cart", first), r.authorToken, nil).Code)
	w = r.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", r.authorToken, nil)
	assert.Equal(t, "Flour (g) - 200\nSugar (g) - 50", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized,
		r.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", "", nil).Code)
}

func TestShortLinkRedirect(t *testing.T) {
	r := newRecipeAPI(t)
	id := r.create(t)

	w := r.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d/get-link", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	link, _ := decode(t, w)["short-link"].(string)
	require.True(t, strings.HasPrefix(link, baseURL+"/s/"), link)
	code := strings.TrimPrefix(link, baseURL+"/s/")
	assert.Regexp(t, `^[a-zA-Z0-9]{6}$`, code)

	w = r.do(t, http.MethodGet, "/s/"+code, "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("%s/recipes/%d/", baseURL, id), w.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, r.do(t, http.MethodGet, "/s/nope00", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, r.do(t, http.MethodGet, "/api/recipes/9999/get-link", "", nil).Code)
}

func TestFavoriteFromDeletedUser(t *testing.T) {
	r := newRecipeAPI(t)
	id := r.create(t)

	gone := testhelpers.CreateUser(t, r.db, "gone")
	auth := r.token(t, gone)
	require.NoError(t, r.db.Delete(&models.User{}, gone.ID).Error)

	w := r.do(t, http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite", id), auth, nil)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	assert.Equal(t, "not_found", decode(t, w)["code"])
}
