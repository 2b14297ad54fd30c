// Package catalog provides free-text search over songs and albums.
package catalog

import "context"

// Song is a catalog track.
type Song struct {
	ID     string `json:"id" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Artist string `json:"artist" validate:"required"`
	Album  string `json:"album,omitempty"`
}

// Album is a catalog release.
type Album struct {
	ID     string `json:"id" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Artist string `json:"artist" validate:"required"`
	Year   int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
}

// Results holds the matches of a search. Both slices may be empty.
type Results struct {
	Songs  []Song  `json:"songs"`
	Albums []Album `json:"albums"`
}

// Empty reports whether nothing matched.
func (r Results) Empty() bool {
	return len(r.Songs) == 0 && len(r.Albums) == 0
}

// Searcher looks up songs and albums by free text.
type Searcher interface {
	Search(ctx context.Context, query string) (Results, error)
}
