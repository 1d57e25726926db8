package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"etherfund_news/internal/fetcher"

	"github.com/stretchr/testify/require"
)

const validRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Test Feed</title>
		<item>
			<title>Test Title</title>
			<description>Test Description</description>
			<link>http://example.com/test</link>
			<enclosure url="http://example.com/test.jpg" type="image/jpeg" length="10"/>
		</item>
	</channel>
</rss>`

func TestFetch(t *testing.T) {
	stamp := time.UnixMilli(1700000000000)

	testCases := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "valid rss", status: http.StatusOK, body: validRSS},
		{name: "not found", status: http.StatusNotFound, body: "missing", wantErr: true},
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got *http.Request
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Clone(context.Background())
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := fetcher.NewClient(server.Client())
			body, err := client.Fetch(context.Background(), server.URL+"/feed", stamp)
			if tc.wantErr {
				var statusErr *fetcher.StatusError
				require.ErrorAs(t, err, &statusErr)
				require.Equal(t, tc.status, statusErr.StatusCode)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.body, string(body))
			require.NotNil(t, got)
			require.Equal(t, "/feed", got.URL.Path)
			require.Equal(t, "1700000000000", got.URL.Query().Get("t"))
			require.Equal(t, "Mozilla/5.0", got.Header.Get("User-Agent"))
			require.Equal(t, "application/rss+xml, application/xml, text/xml", got.Header.Get("Accept"))
			require.Equal(t, "no-store", got.Header.Get("Cache-Control"))
		})
	}
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(validRSS))
	}))
	defer server.Close()

	client := fetcher.NewClient(server.Client(), fetcher.WithRetries(2), fetcher.WithRetryDelay(time.Millisecond))
	body, err := client.Fetch(context.Background(), server.URL, time.Now())
	require.NoError(t, err)
	require.Equal(t, validRSS, string(body))
	require.Equal(t, int32(2), calls.Load())
}

func TestFetch_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := fetcher.NewClient(server.Client(), fetcher.WithRetries(3), fetcher.WithRetryDelay(time.Millisecond))
	_, err := client.Fetch(context.Background(), server.URL, time.Now())
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestFetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	client := fetcher.NewClient(nil)
	_, err := client.Fetch(context.Background(), deadURL, time.Now())
	require.Error(t, err)

	var statusErr *fetcher.StatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestCacheBustURL(t *testing.T) {
	stamp := time.UnixMilli(1234)

	got, err := fetcher.CacheBustURL("https://www.coindesk.com/arc/outboundfeeds/rss/?outputType=xml", stamp)
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	require.Equal(t, "www.coindesk.com", u.Host)
	require.Equal(t, "/arc/outboundfeeds/rss/", u.Path)
	require.Equal(t, "xml", u.Query().Get("outputType"))
	require.Equal(t, "1234", u.Query().Get("t"))

	_, err = fetcher.CacheBustURL("://broken", stamp)
	require.Error(t, err)
}
