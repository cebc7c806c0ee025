package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/Sternrassler/wubba/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for pagination.
var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wubba_pages_fetched_total",
		Help: "Total list pages fetched by collection",
	}, []string{"collection"})

	recordsDrainedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wubba_records_drained_total",
		Help: "Total records assembled by completed drains by collection",
	}, []string{"collection"})
)

// PageFetcher is the interface the API client implements for single round trips.
type PageFetcher interface {
	// Get fetches an absolute URL and returns its JSON body
	Get(ctx context.Context, url string) ([]byte, error)

	// CollectionURL returns the list endpoint of a collection
	CollectionURL(collection catalog.Collection) string
}

// FetchPage fetches and decodes one page envelope.
func FetchPage[T any](ctx context.Context, fetcher PageFetcher, url string) (*catalog.Page[T], error) {
	body, err := fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var page catalog.Page[T]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode page %s: %w", url, err)
	}
	return &page, nil
}

// FetchOne fetches and decodes a single record, e.g. /character/1.
func FetchOne[T any](ctx context.Context, fetcher PageFetcher, url string) (T, error) {
	var record T

	body, err := fetcher.Get(ctx, url)
	if err != nil {
		return record, err
	}

	if err := json.Unmarshal(body, &record); err != nil {
		return record, fmt.Errorf("decode record %s: %w", url, err)
	}
	return record, nil
}

// DrainAll returns every record of a collection.
func DrainAll[T any](ctx context.Context, fetcher PageFetcher, collection catalog.Collection) ([]T, error) {
	return drain[T](ctx, fetcher, fetcher.CollectionURL(collection), string(collection))
}

// Drain returns every record reachable from startURL by following next links.
// startURL may carry query parameters; the API keeps them in its next links.
func Drain[T any](ctx context.Context, fetcher PageFetcher, startURL string) ([]T, error) {
	return drain[T](ctx, fetcher, startURL, collectionOf[T]())
}

func drain[T any](ctx context.Context, fetcher PageFetcher, startURL, label string) ([]T, error) {
	start := time.Now()
	logger := logging.NewLogger("pagination").With().Str("collection", label).Logger()

	results := make([]T, 0)
	pages := 0

	for url := startURL; url != ""; {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("drain %s cancelled after %d pages: %w", startURL, pages, err)
		}

		page, err := FetchPage[T](ctx, fetcher, url)
		if err != nil {
			logger.Debug().
				Err(err).
				Int("pages_fetched", pages).
				Msg("Page fetch failed, discarding partial results")
			return nil, err
		}

		pages++
		pagesFetchedTotal.WithLabelValues(label).Inc()
		results = append(results, page.Results...)

		logger.Debug().
			Str("url", url).
			Int("page", pages).
			Int("page_results", len(page.Results)).
			Int("total_pages", page.Info.Pages).
			Msg("Fetched page")

		url = page.NextURL()
	}

	recordsDrainedTotal.WithLabelValues(label).Add(float64(len(results)))

	logger.Info().
		Str("url", startURL).
		Int("pages", pages).
		Int("records", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Drain complete")

	return results, nil
}

// collectionOf names the collection of a record type for metrics and logs.
func collectionOf[T any]() string {
	var zero T
	switch any(zero).(type) {
	case catalog.Character:
		return string(catalog.CollectionCharacter)
	case catalog.Location:
		return string(catalog.CollectionLocation)
	case catalog.Episode:
		return string(catalog.CollectionEpisode)
	default:
		return "other"
	}
}
