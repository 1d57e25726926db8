package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"etherfund_news/internal/db"
	"etherfund_news/internal/logger"
	"etherfund_news/internal/server"
	"etherfund_news/internal/worker"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the news API",
		Description: `Starts the HTTP server with GET /api/rss, /health and /metrics.

When a database DSN is configured the archive routes are enabled and, with a
non-zero poll interval, a background poller stores a snapshot on every tick.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address, overrides the config file",
				EnvVars: []string{"NEWS_ADDR"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if addr := c.String("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			defer logger.Log.Info("Application stopped")

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			agg := newAggregator(cfg)

			var archive server.Archive
			if cfg.Database.DSN != "" {
				database, err := db.NewDB(ctx, cfg.Database.DSN)
				if err != nil {
					return err
				}
				defer database.Close()

				if err := database.Migrate(ctx); err != nil {
					return err
				}
				archive = database

				if cfg.PollInterval > 0 {
					wrk := worker.NewWorker(agg, database)
					go worker.StartPolling(ctx, wrk, time.Duration(cfg.PollInterval)*time.Minute)
				}
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           server.NewServer(agg, archive).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Log.WithField("feeds", len(cfg.RSSFeeds)).Infof("Starting HTTP server on %s", cfg.Server.Addr)
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-errCh:
				return err
			}

			logger.Log.Info("Shutting down...")
			cancel()
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
			defer cancelShutdown()

			return srv.Shutdown(ctxShutdown)
		},
	}
}
