package worker

import (
	"context"
	"time"

	"etherfund_news/internal/logger"
)

// StartPolling runs w once immediately and then on every tick until ctx ends.
func StartPolling(ctx context.Context, w *Worker, interval time.Duration) {
	log := logger.Log.WithFields(logger.Fields{
		"service":  "poller",
		"interval": interval.String(),
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Starting new polling cycle")
	_ = w.HandleTask(ctx)

	for {
		select {
		case <-ticker.C:
			log.Info("Starting new polling cycle")
			_ = w.HandleTask(ctx)

		case <-ctx.Done():
			log.Info("Stopping poller by context")
			return
		}
	}
}
