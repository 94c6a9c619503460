package librarian

import (
	"context"
	"hash/fnv"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder is a deterministic embedder: identical texts map to identical
// vectors, so exact-text queries rank their own document first.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, 16)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33)) / float32(math.MaxInt32)
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func newTestLibrarian(t *testing.T) *Librarian {
	t.Helper()
	l, err := New(Config{}, hashEmbedder{}, nil)
	require.NoError(t, err)
	return l
}

func entry(id, title string) Entry {
	return Entry{
		VideoID:   id,
		Title:     title,
		Channel:   "GopherCon",
		Goal:      "learn Go generics",
		Score:     85,
		WatchedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLibrarian_IndexAndSearch(t *testing.T) {
	l := newTestLibrarian(t)
	ctx := context.Background()

	entries := []Entry{
		entry("aaaaaaaaaaa", "Go Generics Deep Dive"),
		entry("bbbbbbbbbbb", "Understanding Rust Lifetimes"),
		entry("ccccccccccc", "Sourdough Starter Basics"),
	}
	for _, e := range entries {
		require.NoError(t, l.Index(ctx, e))
	}
	assert.Equal(t, 3, l.Stats().Documents)

	// Querying with a document's exact searchable text must rank it first.
	hits, err := l.Search(ctx, documentText(entries[0]), 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "aaaaaaaaaaa", hits[0].Entry.VideoID)
	assert.Equal(t, "Go Generics Deep Dive", hits[0].Entry.Title)
	assert.Equal(t, 85, hits[0].Entry.Score)
	assert.Equal(t, "learn Go generics", hits[0].Entry.Goal)
	assert.True(t, hits[0].Entry.WatchedAt.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
}

func TestLibrarian_Index_Validation(t *testing.T) {
	l := newTestLibrarian(t)
	ctx := context.Background()

	err := l.Index(ctx, Entry{Title: "no id"})
	assert.ErrorIs(t, err, ErrInvalidEntry)

	err = l.Index(ctx, Entry{VideoID: "aaaaaaaaaaa", Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestLibrarian_Index_OverwritesSameVideo(t *testing.T) {
	l := newTestLibrarian(t)
	ctx := context.Background()

	require.NoError(t, l.Index(ctx, entry("aaaaaaaaaaa", "First Title")))
	require.NoError(t, l.Index(ctx, entry("aaaaaaaaaaa", "Second Title")))
	assert.Equal(t, 1, l.Stats().Documents)
}

func TestLibrarian_Search_LimitClampedToLibrarySize(t *testing.T) {
	l := newTestLibrarian(t)
	ctx := context.Background()

	require.NoError(t, l.Index(ctx, entry("aaaaaaaaaaa", "Go Generics Deep Dive")))

	// Asking for more results than the library holds must not error.
	hits, err := l.Search(ctx, "generics", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestLibrarian_Search_EmptyLibrary(t *testing.T) {
	l := newTestLibrarian(t)

	hits, err := l.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLibrarian_Search_EmptyQuery(t *testing.T) {
	l := newTestLibrarian(t)

	_, err := l.Search(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestLibrarian_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	l, err := New(Config{Path: dir}, hashEmbedder{}, nil)
	require.NoError(t, err)
	require.NoError(t, l.Index(ctx, entry("aaaaaaaaaaa", "Go Generics Deep Dive")))

	reopened, err := New(Config{Path: dir}, hashEmbedder{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Stats().Documents)
}
