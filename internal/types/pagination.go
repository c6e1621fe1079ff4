package types

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// Page is a 1-based page request
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page to valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// HasNext reports whether rows exist beyond this page.
func (p Page) HasNext(count int64) bool {
	return int64(p.Number*p.Limit) < count
}

// PageResult is a slice of results plus the total count
type PageResult[T any] struct {
	Count   int64
	Results []T
}

// Paginated is the paginated response envelope
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
