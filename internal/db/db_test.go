package db_test

import (
	"context"
	"os"
	"testing"
	"time"

	"etherfund_news/internal/db"
	"etherfund_news/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *db.Database {
	t.Helper()
	connString := os.Getenv("TEST_DATABASE_DSN")
	if connString == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	database := &db.Database{Pool: pool}
	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS news, rss_feeds CASCADE;`)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx))

	return database
}

func TestSaveFeed(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	t.Run("save new feed", func(t *testing.T) {
		id, err := database.SaveFeed(ctx, "https://test.com/rss")
		require.NoError(t, err)
		require.Equal(t, 1, id)
	})

	t.Run("same feed keeps its id", func(t *testing.T) {
		id, err := database.SaveFeed(ctx, "https://test.com/rss")
		require.NoError(t, err)
		require.Equal(t, 1, id)
	})
}

func TestSaveSnapshot(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	before := time.Now().Add(-time.Minute)

	items := []models.NewsItem{
		{Title: "A", Link: "https://a.example.com/1", ContentSnippet: "a", Image: "https://img/a.jpg", Feed: "https://a.example.com/rss"},
		{Title: "B", Link: "https://b.example.com/1", ContentSnippet: "b", Image: "https://img/b.jpg", Feed: "https://b.example.com/rss"},
		{Title: "No link", Link: models.DefaultLink, ContentSnippet: "c", Image: "https://img/c.jpg", Feed: "https://b.example.com/rss"},
	}

	saved, err := database.SaveSnapshot(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 2, saved)

	saved, err = database.SaveSnapshot(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 0, saved)

	latest, err := database.LatestNews(ctx, 10)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	for _, n := range latest {
		require.NotEqual(t, models.DefaultLink, n.Link)
		require.NotEmpty(t, n.Feed)
	}

	count, err := database.CountSince(ctx, before)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, database.Ping(ctx))
}
