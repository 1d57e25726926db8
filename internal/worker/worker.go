package worker

import (
	"context"
	"fmt"

	"etherfund_news/internal/logger"
	"etherfund_news/internal/models"
)

// Aggregator produces one fresh news list.
type Aggregator interface {
	Aggregate(ctx context.Context) ([]models.NewsItem, error)
}

// Store persists aggregation results and reports how many items were new.
type Store interface {
	SaveSnapshot(ctx context.Context, items []models.NewsItem) (int, error)
}

// Worker сохраняет снимки агрегированных новостей в архив.
type Worker struct {
	aggregator Aggregator
	store      Store
}

func NewWorker(aggregator Aggregator, store Store) *Worker {
	return &Worker{aggregator: aggregator, store: store}
}

// HandleTask runs one aggregation and archives its result.
func (w *Worker) HandleTask(ctx context.Context) error {
	log := logger.Log.WithField("service", "worker")

	items, err := w.aggregator.Aggregate(ctx)
	if err != nil {
		log.Errorf("Aggregation failed: %v", err)
		return fmt.Errorf("aggregate: %w", err)
	}

	saved, err := w.store.SaveSnapshot(ctx, items)
	if err != nil {
		log.Errorf("Save snapshot failed: %v", err)
		return fmt.Errorf("save snapshot: %w", err)
	}

	log.WithFields(logger.Fields{
		"items":     len(items),
		"new_items": saved,
	}).Info("Archived news snapshot")
	return nil
}
