package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"etherfund_news/internal/aggregator"
	"etherfund_news/internal/config"
	"etherfund_news/internal/fetcher"
	"etherfund_news/internal/logger"
)

func main() {
	logger.Init()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Log.Warnf("Error loading .env file: %v", err)
	}

	if err := app().Run(os.Args); err != nil {
		logger.Log.Fatalf("%v", err)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "aggregator",
		Usage: "Crowdfunding and crypto news for the EtherFund dashboard",
		Description: `Fetches a fixed set of RSS feeds in parallel, keeps the entries
that carry an image and serves them as one shuffled JSON list.

Flags can be set via environment variables, e.g.:

--config => NEWS_CONFIG=config.yaml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a .json, .yaml or .toml config file",
				EnvVars: []string{"NEWS_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			fetchCmd(),
			migrateCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return cli.ShowAppHelp(ctx)
		},
	}
}

// loadConfig reads and validates the config named by the global --config flag.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func newAggregator(cfg *config.Config) *aggregator.Aggregator {
	client := fetcher.NewClient(
		&http.Client{Timeout: time.Duration(cfg.Fetch.Timeout) * time.Second},
		fetcher.WithRetries(cfg.Fetch.Retries),
		fetcher.WithRetryDelay(time.Duration(cfg.Fetch.RetryDelayMS)*time.Millisecond),
	)
	return aggregator.New(
		cfg.RSSFeeds,
		client,
		aggregator.WithPolicy(aggregator.Policy(cfg.Fetch.FailurePolicy)),
		aggregator.WithConcurrency(cfg.Fetch.Concurrency),
	)
}

func loggerToStderr() {
	logger.Log.SetOutput(os.Stderr)
}
