package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// ArticleStoreFile keeps the harvest on disk as one JSON document.
type ArticleStoreFile struct {
	path   string
	logger *slog.Logger
}

var (
	_ ports.ArticleStoreWriter = (*ArticleStoreFile)(nil)
	_ ports.ArticleStoreReader = (*ArticleStoreFile)(nil)
)

// NewArticleStoreFile binds the store to path.
func NewArticleStoreFile(path string, log *slog.Logger) *ArticleStoreFile {
	return &ArticleStoreFile{path: path, logger: log}
}

// Path returns the file location.
func (f *ArticleStoreFile) Path() string {
	return f.path
}

// SaveArticleStore replaces the file atomically.
func (f *ArticleStoreFile) SaveArticleStore(ctx context.Context, store domain.ArticleStore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeJSONAtomic(f.path, store)
}

type rawStore struct {
	Categories  json.RawMessage   `json:"categories"`
	AllArticles []json.RawMessage `json:"all_articles"`
}

type rawCategory struct {
	CategoryName string            `json:"category_name"`
	Articles     []json.RawMessage `json:"articles"`
}

// LoadArticleRecords returns the article records of every category in file
// order. Categories that cannot be read are logged and skipped; when the
// document has no categories the flattened list is returned as one group.
func (f *ArticleStoreFile) LoadArticleRecords(ctx context.Context) ([]domain.StoredCategory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read article store: %w", err)
	}

	var doc rawStore
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode article store: %w", err)
	}

	entries, err := domain.DecodeOrderedObject(doc.Categories)
	if err != nil && len(bytes.TrimSpace(doc.Categories)) > 0 {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	categories := make([]domain.StoredCategory, 0, len(entries))
	for _, entry := range entries {
		var cat rawCategory
		if err := json.Unmarshal(entry.Value, &cat); err != nil {
			f.warn("skip malformed category", "category", entry.Key, "error", err)
			continue
		}
		categories = append(categories, domain.StoredCategory{Name: entry.Key, Records: cat.Articles})
	}

	if len(categories) == 0 && len(doc.AllArticles) > 0 {
		categories = append(categories, domain.StoredCategory{Name: "general", Records: doc.AllArticles})
	}
	return categories, nil
}

func (f *ArticleStoreFile) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

// PostQueueFile keeps composed drafts on disk as a JSON array.
type PostQueueFile struct {
	path string
}

var (
	_ ports.PostQueueWriter = (*PostQueueFile)(nil)
	_ ports.PostQueueReader = (*PostQueueFile)(nil)
)

// NewPostQueueFile binds the queue to path.
func NewPostQueueFile(path string) *PostQueueFile {
	return &PostQueueFile{path: path}
}

// Path returns the file location.
func (f *PostQueueFile) Path() string {
	return f.path
}

// SavePostQueue replaces the file atomically.
func (f *PostQueueFile) SavePostQueue(ctx context.Context, drafts []domain.PostDraft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if drafts == nil {
		drafts = []domain.PostDraft{}
	}
	return writeJSONAtomic(f.path, drafts)
}

// LoadPostQueue returns the queued records without decoding them.
func (f *PostQueueFile) LoadPostQueue(ctx context.Context) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read post queue: %w", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode post queue: %w", err)
	}
	return records, nil
}

func writeJSONAtomic(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
