package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const publishedTable = "published_posts"

const ledgerSchema = `CREATE TABLE IF NOT EXISTS published_posts (
	article_url  TEXT PRIMARY KEY,
	post_text    TEXT NOT NULL,
	strategy     TEXT NOT NULL,
	run_id       TEXT NOT NULL,
	published_at TIMESTAMP NOT NULL
)`

// SQLLedger remembers published posts in Postgres or SQLite.
type SQLLedger struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.PostLedger = (*SQLLedger)(nil)

// OpenLedger connects to driver ("postgres" or "sqlite3") and ensures the schema.
func OpenLedger(ctx context.Context, driver, dsn string) (*SQLLedger, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}

	ledger, err := NewSQLLedger(ctx, db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// NewSQLLedger wires an open database and creates the table if needed.
func NewSQLLedger(ctx context.Context, db *sql.DB, driver string) (*SQLLedger, error) {
	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}

	return &SQLLedger{
		db:      db,
		builder: builderFor(driver),
	}, nil
}

func builderFor(driver string) sq.StatementBuilderType {
	if driver == "postgres" {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// AlreadyPublished returns the subset of urls that have a ledger entry.
func (l *SQLLedger) AlreadyPublished(ctx context.Context, urls []string) (map[string]bool, error) {
	if l.db == nil || len(urls) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := l.builder.
		Select("article_url").
		From(publishedTable).
		Where(sq.Eq{"article_url": urls}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build published query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query published: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan url: %w", err)
		}
		result[u] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// RecordPublished upserts the ledger row for post.ArticleURL.
func (l *SQLLedger) RecordPublished(ctx context.Context, post domain.PublishedPost) error {
	if l.db == nil {
		return nil
	}

	publishedAt := post.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	query, args, err := l.builder.
		Insert(publishedTable).
		Columns("article_url", "post_text", "strategy", "run_id", "published_at").
		Values(post.ArticleURL, post.PostText, post.Strategy, post.RunID, publishedAt.UTC()).
		Suffix(`ON CONFLICT (article_url) DO UPDATE
			SET post_text = excluded.post_text,
			    strategy = excluded.strategy,
			    run_id = excluded.run_id,
			    published_at = excluded.published_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert published: %w", err)
	}

	return nil
}

// Close releases the database handle.
func (l *SQLLedger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}
