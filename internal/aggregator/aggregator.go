package aggregator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"etherfund_news/internal/fetcher"
	"etherfund_news/internal/logger"
	"etherfund_news/internal/models"
)

// Policy decides what a failed feed fetch does to the whole aggregation.
type Policy string

const (
	// PolicyIsolate drops a failed feed and keeps the others.
	PolicyIsolate Policy = "isolate"
	// PolicyAbort fails the whole call on any fetch error. Parse errors stay isolated.
	PolicyAbort Policy = "abort"
)

// Stage names where a feed failed.
type Stage string

const (
	StageFetch Stage = "fetch"
	StageParse Stage = "parse"
)

// Fetcher returns the raw document of one feed.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, stamp time.Time) ([]byte, error)
}

// FeedError reports a feed that contributed no items.
type FeedError struct {
	URL   string
	Stage Stage
	Err   error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

type feedResult struct {
	items []models.NewsItem
	err   *FeedError
}

// Aggregator собирает записи с картинками из фиксированного набора лент.
type Aggregator struct {
	feeds       []string
	fetcher     Fetcher
	policy      Policy
	concurrency int
	now         func() time.Time
	intN        func(int) int
}

type Option func(*Aggregator)

func WithPolicy(p Policy) Option {
	return func(a *Aggregator) { a.policy = p }
}

// WithConcurrency caps simultaneous feed fetches; 0 means one goroutine per feed.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) { a.concurrency = n }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithRandom replaces the source used by the shuffle. intN must be safe for
// concurrent use if the aggregator is.
func WithRandom(intN func(int) int) Option {
	return func(a *Aggregator) { a.intN = intN }
}

// New copies feeds, so later changes to the caller's slice are not seen.
func New(feeds []string, f Fetcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		feeds:   append([]string(nil), feeds...),
		fetcher: f,
		policy:  PolicyIsolate,
		now:     time.Now,
		intN:    rand.IntN,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Feeds returns a copy of the configured feed list.
func (a *Aggregator) Feeds() []string {
	return append([]string(nil), a.feeds...)
}

// Aggregate fetches every feed concurrently, waits for all of them, and returns
// the imaged items of the feeds that succeeded in random order.
func (a *Aggregator) Aggregate(ctx context.Context) ([]models.NewsItem, error) {
	stamp := a.now()
	results := make([]feedResult, len(a.feeds))

	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, feedURL := range a.feeds {
		g.Go(func() error {
			results[i] = a.collect(ctx, feedURL, stamp)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		aggregationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	failed := lo.Filter(results, func(r feedResult, _ int) bool { return r.err != nil })
	for _, r := range failed {
		if a.policy == PolicyAbort && r.err.Stage == StageFetch {
			aggregationsTotal.WithLabelValues("error").Inc()
			return nil, r.err
		}
	}

	items := lo.Flatten(lo.Map(results, func(r feedResult, _ int) []models.NewsItem { return r.items }))
	if items == nil {
		items = []models.NewsItem{}
	}
	Shuffle(items, a.intN)

	aggregationsTotal.WithLabelValues("ok").Inc()
	aggregatedItems.Set(float64(len(items)))
	logger.Log.WithFields(logger.Fields{
		"feeds":        len(a.feeds),
		"failed_feeds": len(failed),
		"items":        len(items),
	}).Info("Aggregated news feeds")
	return items, nil
}

func (a *Aggregator) collect(ctx context.Context, feedURL string, stamp time.Time) feedResult {
	log := logger.Log.WithField("url", feedURL)
	start := time.Now()
	defer func() {
		feedDuration.WithLabelValues(feedURL).Observe(time.Since(start).Seconds())
	}()

	log.Debug("Fetching RSS feed")
	body, err := a.fetcher.Fetch(ctx, feedURL, stamp)
	if err != nil {
		log.Errorf("Failed to fetch RSS: %v", err)
		feedFetchesTotal.WithLabelValues(feedURL, string(StageFetch)+"_error").Inc()
		return feedResult{err: &FeedError{URL: feedURL, Stage: StageFetch, Err: err}}
	}

	items, err := fetcher.ParseItems(body, feedURL)
	if err != nil {
		log.Errorf("Failed to parse RSS: %v", err)
		feedFetchesTotal.WithLabelValues(feedURL, string(StageParse)+"_error").Inc()
		return feedResult{err: &FeedError{URL: feedURL, Stage: StageParse, Err: err}}
	}

	log.WithField("items_count", len(items)).Debug("Parsed RSS feed")
	feedFetchesTotal.WithLabelValues(feedURL, "ok").Inc()
	return feedResult{items: items}
}
