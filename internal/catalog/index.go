package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/blugelabs/bluge"
	"github.com/blugelabs/bluge/search"
)

const (
	kindSong  = "song"
	kindAlbum = "album"

	fieldKind   = "kind"
	fieldRef    = "ref"
	fieldTitle  = "title"
	fieldArtist = "artist"
	fieldAlbum  = "album"
	fieldYear   = "year"
	fieldAll    = "_all"

	// maxHits bounds a single search.
	maxHits = 10
)

// ErrClosed is returned by Index operations after Close.
var ErrClosed = errors.New("catalog index is closed")

// Index is an in-memory full-text index over the catalog.
type Index struct {
	mu     sync.RWMutex
	writer *bluge.Writer
	reader *bluge.Reader
	closed bool
}

// NewIndex creates an empty index.
func NewIndex() (*Index, error) {
	idx := &Index{}
	if err := idx.Load(nil, nil); err != nil {
		return nil, err
	}
	return idx, nil
}

// Load replaces the whole catalog. Searches running concurrently see either
// the old or the new catalog, never a mix. It fails with ErrClosed once the
// index is closed.
func (i *Index) Load(songs []Song, albums []Album) error {
	i.mu.RLock()
	closed := i.closed
	i.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return fmt.Errorf("failed to open catalog index: %w", err)
	}

	batch := bluge.NewBatch()
	for _, s := range songs {
		doc := bluge.NewDocument(kindSong + ":" + s.ID).
			AddField(bluge.NewKeywordField(fieldKind, kindSong).StoreValue()).
			AddField(bluge.NewKeywordField(fieldRef, s.ID).StoreValue()).
			AddField(bluge.NewTextField(fieldTitle, s.Title).StoreValue()).
			AddField(bluge.NewTextField(fieldArtist, s.Artist).StoreValue()).
			AddField(bluge.NewTextField(fieldAlbum, s.Album).StoreValue()).
			AddField(bluge.NewCompositeFieldIncluding(fieldAll, []string{fieldTitle, fieldArtist, fieldAlbum}))
		batch.Update(doc.ID(), doc)
	}
	for _, a := range albums {
		doc := bluge.NewDocument(kindAlbum + ":" + a.ID).
			AddField(bluge.NewKeywordField(fieldKind, kindAlbum).StoreValue()).
			AddField(bluge.NewKeywordField(fieldRef, a.ID).StoreValue()).
			AddField(bluge.NewTextField(fieldTitle, a.Title).StoreValue()).
			AddField(bluge.NewTextField(fieldArtist, a.Artist).StoreValue()).
			AddField(bluge.NewKeywordField(fieldYear, strconv.Itoa(a.Year)).StoreValue()).
			AddField(bluge.NewCompositeFieldIncluding(fieldAll, []string{fieldTitle, fieldArtist}))
		batch.Update(doc.ID(), doc)
	}
	if err := writer.Batch(batch); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to index catalog: %w", err)
	}

	reader, err := writer.Reader()
	if err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to open catalog reader: %w", err)
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		_ = reader.Close()
		_ = writer.Close()
		return ErrClosed
	}
	oldWriter, oldReader := i.writer, i.reader
	i.writer, i.reader = writer, reader
	i.mu.Unlock()

	if oldReader != nil {
		_ = oldReader.Close()
	}
	if oldWriter != nil {
		_ = oldWriter.Close()
	}
	slog.Info("Catalog index loaded", "songs", len(songs), "albums", len(albums))
	return nil
}

// Search returns the best matches for query, highest score first and ties
// broken by id so equal catalogs give equal answers.
func (i *Index) Search(ctx context.Context, query string) (Results, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Results{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return Results{}, ErrClosed
	}

	req := bluge.NewTopNSearch(maxHits, bluge.NewMatchQuery(query).SetField(fieldAll)).
		SortBy([]string{"-_score", "_id"})
	matches, err := i.reader.Search(ctx, req)
	if err != nil {
		return Results{}, fmt.Errorf("catalog search failed: %w", err)
	}

	var results Results
	match, err := matches.Next()
	for err == nil && match != nil {
		collect(&results, match)
		match, err = matches.Next()
	}
	if err != nil {
		return Results{}, fmt.Errorf("catalog search failed: %w", err)
	}
	return results, nil
}

// collect appends the stored fields of match to results.
func collect(results *Results, match *search.DocumentMatch) {
	fields := make(map[string]string)
	_ = match.VisitStoredFields(func(field string, value []byte) bool {
		fields[field] = string(value)
		return true
	})

	switch fields[fieldKind] {
	case kindSong:
		results.Songs = append(results.Songs, Song{
			ID:     fields[fieldRef],
			Title:  fields[fieldTitle],
			Artist: fields[fieldArtist],
			Album:  fields[fieldAlbum],
		})
	case kindAlbum:
		year, _ := strconv.Atoi(fields[fieldYear])
		results.Albums = append(results.Albums, Album{
			ID:     fields[fieldRef],
			Title:  fields[fieldTitle],
			Artist: fields[fieldArtist],
			Year:   year,
		})
	}
}

// Close releases the index. Later calls are no-ops.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.closed = true
	var err error
	if i.reader != nil {
		err = i.reader.Close()
		i.reader = nil
	}
	if i.writer != nil {
		if werr := i.writer.Close(); err == nil {
			err = werr
		}
		i.writer = nil
	}
	return err
}
