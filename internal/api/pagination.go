package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// parsePage reads ?page=&limit=. Unparsable values fall back to defaults.
func parsePage(c *gin.Context) types.Page {
	number, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return types.Page{Number: number, Limit: limit}.Normalize()
}

// paginate wraps a page of results with absolute next/previous links built
// from baseURL and the current request's path and query.
func paginate[T any](c *gin.Context, baseURL string, page types.Page, result *types.PageResult[T]) types.Paginated[T] {
	out := types.Paginated[T]{Count: result.Count, Results: result.Results}
	if out.Results == nil {
		out.Results = []T{}
	}
	if page.HasNext(result.Count) {
		next := pageURL(c, baseURL, page.Number+1)
		out.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(c, baseURL, page.Number-1)
		out.Previous = &prev
	}
	return out
}

func pageURL(c *gin.Context, baseURL string, number int) string {
	q := url.Values{}
	for k, v := range c.Request.URL.Query() {
		q[k] = v
	}
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}

	u := baseURL + c.Request.URL.Path
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// parseRecipesLimit reads ?recipes_limit=. Missing, negative or malformed
// values mean no limit.
func parseRecipesLimit(c *gin.Context) int {
	raw, ok := c.GetQuery("recipes_limit")
	if !ok {
		return service.UnlimitedRecipes
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return service.UnlimitedRecipes
	}
	return n
}
