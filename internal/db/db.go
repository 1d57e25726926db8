package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"etherfund_news/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS rss_feeds (
	id SERIAL PRIMARY KEY,
	url VARCHAR(2048) UNIQUE NOT NULL,
	last_polled TIMESTAMP WITH TIME ZONE
);

CREATE TABLE IF NOT EXISTS news (
	id SERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	content_snippet TEXT,
	image VARCHAR(2048) NOT NULL,
	source_link VARCHAR(2048) UNIQUE NOT NULL,
	first_seen TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	rss_feed_id INTEGER NOT NULL REFERENCES rss_feeds(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS news_first_seen_idx ON news (first_seen DESC);
`

// Database инкапсулирует пул соединений к PostgreSQL.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDB создаёт новый пул соединений по connString и возвращает Database.
func NewDB(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &Database{Pool: pool}, nil
}

// Close закрывает пул соединений.
func (db *Database) Close() {
	db.Pool.Close()
}

func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Migrate creates the archive tables if they do not exist.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate archive schema: %w", err)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SaveFeed сохраняет URL RSS-ленты в таблицу rss_feeds, отмечает время опроса и возвращает её id.
func (db *Database) SaveFeed(ctx context.Context, url string) (int, error) {
	return saveFeed(ctx, db.Pool, url)
}

// SaveNewsItem сохраняет одну новость в таблицу news.
// Если запись с таким source_link уже есть, то операция игнорируется.
func (db *Database) SaveNewsItem(ctx context.Context, item models.NewsItem, feedID int) error {
	_, err := saveNewsItem(ctx, db.Pool, item, feedID)
	return err
}

// SaveSnapshot stores one aggregation result in a single transaction and returns
// how many items were new. Items whose link is the placeholder are skipped since
// they have no stable identity.
func (db *Database) SaveSnapshot(ctx context.Context, items []models.NewsItem) (int, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	byFeed := lo.GroupBy(
		lo.Reject(items, func(item models.NewsItem, _ int) bool { return item.Link == models.DefaultLink }),
		func(item models.NewsItem) string { return item.Feed },
	)

	saved := 0
	for feedURL, feedItems := range byFeed {
		feedID, err := saveFeed(ctx, tx, feedURL)
		if err != nil {
			return 0, fmt.Errorf("save feed %s: %w", feedURL, err)
		}
		for _, item := range feedItems {
			inserted, err := saveNewsItem(ctx, tx, item, feedID)
			if err != nil {
				return 0, fmt.Errorf("save news %s: %w", item.Link, err)
			}
			if inserted {
				saved++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}
	return saved, nil
}

// LatestNews возвращает последние limit новостей архива, сортированных по времени появления.
func (db *Database) LatestNews(ctx context.Context, limit int) ([]models.ArchivedNews, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT n.title, COALESCE(n.content_snippet, ''), n.image, n.source_link, r.url, n.first_seen
        FROM news n
        JOIN rss_feeds r ON n.rss_feed_id = r.id
        ORDER BY n.first_seen DESC, n.id DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	news := []models.ArchivedNews{}
	for rows.Next() {
		var n models.ArchivedNews
		if err := rows.Scan(&n.Title, &n.ContentSnippet, &n.Image, &n.Link, &n.Feed, &n.SeenAt); err != nil {
			return nil, err
		}
		news = append(news, n)
	}
	return news, rows.Err()
}

// CountSince возвращает количество новостей, впервые увиденных после since.
func (db *Database) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM news
        WHERE first_seen > $1
    `, since).Scan(&count)
	return count, err
}

func saveFeed(ctx context.Context, q querier, url string) (int, error) {
	var id int
	err := q.QueryRow(ctx, `
        INSERT INTO rss_feeds (url, last_polled)
        VALUES ($1, NOW())
        ON CONFLICT (url) DO UPDATE SET last_polled = EXCLUDED.last_polled
        RETURNING id
    `, url).Scan(&id)
	return id, err
}

func saveNewsItem(ctx context.Context, q querier, item models.NewsItem, feedID int) (bool, error) {
	tag, err := q.Exec(ctx, `
        INSERT INTO news (title, content_snippet, image, source_link, rss_feed_id)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (source_link) DO NOTHING
    `, item.Title, item.ContentSnippet, item.Image, item.Link, feedID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
