package librarian

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/usnaveen/TubeFocus-Backend/internal/genai"
)

const (
	defaultCollection = "watched_videos"
	defaultLimit      = 5
	maxLimit          = 50
)

var (
	// ErrInvalidEntry reports a library entry missing its video ID or title.
	ErrInvalidEntry = errors.New("invalid library entry")

	// ErrEmptyQuery reports a blank search query.
	ErrEmptyQuery = errors.New("search query is empty")
)

// timeNow is a variable for testing purposes (allows mocking time).
var timeNow = time.Now

// Entry is one watched video recorded into the library.
type Entry struct {
	VideoID   string    `json:"video_id"`
	Title     string    `json:"title"`
	Channel   string    `json:"channel,omitempty"`
	Category  string    `json:"category,omitempty"`
	Goal      string    `json:"goal,omitempty"`
	Score     int       `json:"score"`
	WatchedAt time.Time `json:"watched_at"`
}

// Hit is one search result.
type Hit struct {
	Entry      Entry   `json:"entry"`
	Similarity float32 `json:"similarity"`
}

// Stats describes the library's size.
type Stats struct {
	Documents int `json:"documents"`
}

// Config configures the librarian.
type Config struct {
	// Path is the directory for persistent storage. Empty means in-memory
	// only, which is what tests use.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection overrides the collection name.
	Collection string
}

// Librarian indexes and searches watched videos.
type Librarian struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger
}

// New opens (or creates) the library.
func New(cfg Config, embedder genai.Embedder, logger *zap.Logger) (*Librarian, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating library directory %s: %w", cfg.Path, err)
		}
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("opening library DB: %w", err)
		}
	}

	name := cfg.Collection
	if name == "" {
		name = defaultCollection
	}
	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	col, err := db.GetOrCreateCollection(name, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", name, err)
	}

	logger.Info("library opened",
		zap.String("path", cfg.Path),
		zap.String("collection", name),
		zap.Int("documents", col.Count()))

	return &Librarian{db: db, collection: col, logger: logger}, nil
}

// Index records a watched video. Re-indexing the same video ID overwrites
// the previous entry.
func (l *Librarian) Index(ctx context.Context, e Entry) error {
	if e.VideoID == "" || strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: video id and title are required", ErrInvalidEntry)
	}
	if e.WatchedAt.IsZero() {
		e.WatchedAt = timeNow()
	}

	doc := chromem.Document{
		ID:      e.VideoID,
		Content: documentText(e),
		Metadata: map[string]string{
			"video_id":   e.VideoID,
			"title":      e.Title,
			"channel":    e.Channel,
			"category":   e.Category,
			"goal":       e.Goal,
			"score":      strconv.Itoa(e.Score),
			"watched_at": e.WatchedAt.UTC().Format(time.RFC3339),
		},
	}
	if err := l.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("indexing %s: %w", e.VideoID, err)
	}

	l.logger.Debug("video indexed",
		zap.String("video_id", e.VideoID),
		zap.String("title", e.Title))
	return nil
}

// documentText is what gets embedded: the searchable surface of an entry.
func documentText(e Entry) string {
	parts := []string{e.Title}
	if e.Channel != "" {
		parts = append(parts, "by "+e.Channel)
	}
	if e.Category != "" {
		parts = append(parts, "category: "+e.Category)
	}
	if e.Goal != "" {
		parts = append(parts, "watched while working on: "+e.Goal)
	}
	return strings.Join(parts, ". ")
}

// Search returns up to limit entries most similar to the query.
func (l *Librarian) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	// chromem rejects nResults above the collection size.
	if n := l.collection.Count(); limit > n {
		limit = n
	}
	if limit == 0 {
		return nil, nil
	}

	results, err := l.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("searching library: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{Entry: entryFromMetadata(r.Metadata), Similarity: r.Similarity})
	}
	return hits, nil
}

func entryFromMetadata(md map[string]string) Entry {
	e := Entry{
		VideoID:  md["video_id"],
		Title:    md["title"],
		Channel:  md["channel"],
		Category: md["category"],
		Goal:     md["goal"],
	}
	e.Score, _ = strconv.Atoi(md["score"])
	if t, err := time.Parse(time.RFC3339, md["watched_at"]); err == nil {
		e.WatchedAt = t
	}
	return e
}

// Stats returns the library size.
func (l *Librarian) Stats() Stats {
	return Stats{Documents: l.collection.Count()}
}
