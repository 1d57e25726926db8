package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feedFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etherfund_news_feed_fetches_total",
		Help: "Feed fetch attempts by feed and outcome",
	}, []string{"feed", "outcome"})

	feedDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etherfund_news_feed_duration_seconds",
		Help:    "Time spent fetching and parsing a single feed",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"feed"})

	aggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etherfund_news_aggregations_total",
		Help: "Aggregation calls by result",
	}, []string{"result"})

	aggregatedItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etherfund_news_aggregated_items",
		Help: "Number of items returned by the last successful aggregation",
	})
)
