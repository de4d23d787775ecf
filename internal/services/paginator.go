package services

import "strconv"

// PageSize is the number of posts on every listing page.
const PageSize = 10

// Page is one page of a listing, shaped for the presentation layer.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// ParsePage reads a ?page= value. Missing or malformed values mean the first page.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}

// pageWindow resolves the requested page against count items. Requests past the
// last page, or below the first, land on the last page. An empty listing still has
// one (empty) page.
func pageWindow(count int64, requested, perPage int) (number, numPages, offset int) {
	numPages = int((count + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}
	number = requested
	if number < 1 || number > numPages {
		number = numPages
	}
	return number, numPages, (number - 1) * perPage
}

func newPage[T any](items []T, count int64, number, numPages, perPage int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:       items,
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     perPage,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}
