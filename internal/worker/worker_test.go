package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"etherfund_news/internal/models"
	"etherfund_news/internal/worker"

	"github.com/stretchr/testify/require"
)

type fakeAggregator struct {
	items []models.NewsItem
	err   error
}

func (f *fakeAggregator) Aggregate(ctx context.Context) ([]models.NewsItem, error) {
	return f.items, f.err
}

type fakeStore struct {
	mu        sync.Mutex
	snapshots [][]models.NewsItem
	err       error
}

func (f *fakeStore) SaveSnapshot(ctx context.Context, items []models.NewsItem) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.snapshots = append(f.snapshots, items)
	return len(items), nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func TestHandleTask(t *testing.T) {
	items := []models.NewsItem{{Title: "A", Link: "https://a", Image: "https://img/a.jpg"}}

	t.Run("saves snapshot", func(t *testing.T) {
		store := &fakeStore{}
		w := worker.NewWorker(&fakeAggregator{items: items}, store)
		require.NoError(t, w.HandleTask(context.Background()))
		require.Equal(t, [][]models.NewsItem{items}, store.snapshots)
	})

	t.Run("aggregation error", func(t *testing.T) {
		store := &fakeStore{}
		w := worker.NewWorker(&fakeAggregator{err: errors.New("boom")}, store)
		err := w.HandleTask(context.Background())
		require.ErrorContains(t, err, "aggregate: boom")
		require.Empty(t, store.snapshots)
	})

	t.Run("store error", func(t *testing.T) {
		store := &fakeStore{err: errors.New("db down")}
		w := worker.NewWorker(&fakeAggregator{items: items}, store)
		require.ErrorContains(t, w.HandleTask(context.Background()), "save snapshot: db down")
	})
}

func TestStartPolling(t *testing.T) {
	store := &fakeStore{}
	w := worker.NewWorker(&fakeAggregator{}, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.StartPolling(ctx, w, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
