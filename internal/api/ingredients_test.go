package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestIngredients(t *testing.T) {
	a := newTestAPI(t)
	flour := testhelpers.CreateIngredient(t, a.db, "Flour", "g")
	testhelpers.CreateIngredient(t, a.db, "Fennel", "g")
	testhelpers.CreateIngredient(t, a.db, "Sugar", "g")

	w := a.do(t, http.MethodGet, "/api/ingredients?name=f", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []types.IngredientView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Fennel", items[0].Name)
	assert.Equal(t, "Flour", items[1].Name)

	w = a.do(t, http.MethodGet, "/api/ingredients?name=zzz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = a.do(t, http.MethodGet, fmt.Sprintf("/api/ingredients/%d", flour.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"name":"Flour","measurement_unit":"g"}`, flour.ID), w.Body.String())

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/ingredients/9999", "", nil).Code)
}
