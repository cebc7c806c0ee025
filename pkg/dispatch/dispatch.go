// Package dispatch routes a resolved command to the pipeline that serves it:
// full drains for ls, single fetches for get, translated queries plus local
// predicates for filter, and rarity rankings for matrix.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/Sternrassler/wubba/pkg/filter"
	"github.com/Sternrassler/wubba/pkg/logging"
	"github.com/Sternrassler/wubba/pkg/pagination"
	"github.com/Sternrassler/wubba/pkg/rarity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Command names.
const (
	CommandList   = "ls"
	CommandGet    = "get"
	CommandFilter = "filter"
	CommandMatrix = "matrix"
)

var (
	// ErrUnknownCommand is returned for a command name Run cannot route.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrCollectionRequired is returned when get, filter or matrix is not
	// given exactly one collection.
	ErrCollectionRequired = errors.New("exactly one collection is required")

	// ErrUnsupportedMatrix is returned for a matrix over episodes.
	ErrUnsupportedMatrix = errors.New("matrix is only available for character and location")
)

var commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wubba_commands_total",
	Help: "Total dispatched commands by command and outcome",
}, []string{"command", "outcome"})

// Fetcher is the API surface the dispatcher needs. *client.Client implements it.
type Fetcher interface {
	pagination.PageFetcher

	// EntityURL returns the endpoint of a single record
	EntityURL(collection catalog.Collection, id int) string

	// QueryURL returns the list endpoint with an encoded query string
	QueryURL(collection catalog.Collection, query string) string
}

// Command is a resolved invocation.
type Command struct {
	// Name is one of ls, get, filter or matrix.
	Name string

	// Collections selects the collections to work on. ls accepts zero or
	// more; the other commands need exactly one.
	Collections []catalog.Collection

	// ID selects a single record for get. Zero drains the collection.
	ID int

	// Criteria are the filter values for filter.
	Criteria filter.Criteria

	// Limit truncates matrix rankings when positive.
	Limit int
}

// Dispatcher runs commands against a Fetcher.
type Dispatcher struct {
	fetcher Fetcher
	logger  zerolog.Logger
}

// New creates a Dispatcher.
func New(fetcher Fetcher) *Dispatcher {
	return &Dispatcher{
		fetcher: fetcher,
		logger:  logging.NewLogger("dispatch"),
	}
}

// Run executes cmd and returns its rows in output order. Any failure aborts
// the whole command; no partial results are returned.
func (d *Dispatcher) Run(ctx context.Context, cmd Command) ([]catalog.Row, error) {
	start := time.Now()

	rows, err := d.run(ctx, cmd)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	commandsTotal.WithLabelValues(cmd.Name, outcome).Inc()

	event := d.logger.Debug()
	if err != nil {
		event = d.logger.Error().Err(err)
	}
	event.
		Str("command", cmd.Name).
		Interface("collections", cmd.Collections).
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("Command finished")

	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *Dispatcher) run(ctx context.Context, cmd Command) ([]catalog.Row, error) {
	switch cmd.Name {
	case CommandList:
		return d.list(ctx, cmd.Collections)
	case CommandGet:
		collection, err := single(cmd)
		if err != nil {
			return nil, err
		}
		return d.get(ctx, collection, cmd.ID)
	case CommandFilter:
		collection, err := single(cmd)
		if err != nil {
			return nil, err
		}
		return d.filter(ctx, collection, cmd.Criteria)
	case CommandMatrix:
		collection, err := single(cmd)
		if err != nil {
			return nil, err
		}
		return d.matrix(ctx, collection, cmd.Limit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
}

func single(cmd Command) (catalog.Collection, error) {
	if len(cmd.Collections) != 1 {
		return "", fmt.Errorf("%s: %w (got %d)", cmd.Name, ErrCollectionRequired, len(cmd.Collections))
	}
	return cmd.Collections[0], nil
}

// list drains every requested collection, all three when none are given.
func (d *Dispatcher) list(ctx context.Context, collections []catalog.Collection) ([]catalog.Row, error) {
	if len(collections) == 0 {
		collections = catalog.Collections
	}

	var out []catalog.Row
	for _, c := range collections {
		rows, err := d.drainAll(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	if out == nil {
		out = []catalog.Row{}
	}
	return out, nil
}

func (d *Dispatcher) drainAll(ctx context.Context, collection catalog.Collection) ([]catalog.Row, error) {
	switch collection {
	case catalog.CollectionCharacter:
		return drainRows[catalog.Character](ctx, d.fetcher, collection)
	case catalog.CollectionLocation:
		return drainRows[catalog.Location](ctx, d.fetcher, collection)
	case catalog.CollectionEpisode:
		return drainRows[catalog.Episode](ctx, d.fetcher, collection)
	default:
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCollection, collection)
	}
}

// get fetches one record when id is positive, otherwise the whole collection.
func (d *Dispatcher) get(ctx context.Context, collection catalog.Collection, id int) ([]catalog.Row, error) {
	if id <= 0 {
		return d.drainAll(ctx, collection)
	}

	url := d.fetcher.EntityURL(collection, id)
	switch collection {
	case catalog.CollectionCharacter:
		return fetchRow[catalog.Character](ctx, d.fetcher, url)
	case catalog.CollectionLocation:
		return fetchRow[catalog.Location](ctx, d.fetcher, url)
	case catalog.CollectionEpisode:
		return fetchRow[catalog.Episode](ctx, d.fetcher, url)
	default:
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCollection, collection)
	}
}

// filter sends the remote criteria as a query and applies the rest locally.
// Local predicates are built before any request so invalid criteria fail
// without network traffic.
func (d *Dispatcher) filter(ctx context.Context, collection catalog.Collection, criteria filter.Criteria) ([]catalog.Row, error) {
	query, local := filter.Translate(collection, criteria)
	url := d.fetcher.QueryURL(collection, query)

	d.logger.Debug().
		Str("collection", collection.String()).
		Str("query", query).
		Int("local_criteria", len(local)).
		Msg("Translated filter")

	switch collection {
	case catalog.CollectionCharacter:
		pred, err := filter.CharacterPredicate(local)
		if err != nil {
			return nil, err
		}
		return filterRows(ctx, d.fetcher, url, pred)
	case catalog.CollectionLocation:
		pred, err := filter.LocationPredicate(local)
		if err != nil {
			return nil, err
		}
		return filterRows(ctx, d.fetcher, url, pred)
	case catalog.CollectionEpisode:
		pred, err := filter.EpisodePredicate(local)
		if err != nil {
			return nil, err
		}
		return filterRows(ctx, d.fetcher, url, pred)
	default:
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCollection, collection)
	}
}

// matrix drains a collection and ranks it.
func (d *Dispatcher) matrix(ctx context.Context, collection catalog.Collection, limit int) ([]catalog.Row, error) {
	switch collection {
	case catalog.CollectionCharacter:
		characters, err := pagination.DrainAll[catalog.Character](ctx, d.fetcher, collection)
		if err != nil {
			return nil, err
		}
		return toRows(rarity.RankEpisodes(characters, limit)), nil
	case catalog.CollectionLocation:
		locations, err := pagination.DrainAll[catalog.Location](ctx, d.fetcher, collection)
		if err != nil {
			return nil, err
		}
		return toRows(rarity.RankResidents(locations, limit)), nil
	case catalog.CollectionEpisode:
		return nil, ErrUnsupportedMatrix
	default:
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCollection, collection)
	}
}

func drainRows[T catalog.Row](ctx context.Context, fetcher Fetcher, collection catalog.Collection) ([]catalog.Row, error) {
	records, err := pagination.DrainAll[T](ctx, fetcher, collection)
	if err != nil {
		return nil, err
	}
	return toRows(records), nil
}

func fetchRow[T catalog.Row](ctx context.Context, fetcher Fetcher, url string) ([]catalog.Row, error) {
	record, err := pagination.FetchOne[T](ctx, fetcher, url)
	if err != nil {
		return nil, err
	}
	return []catalog.Row{record}, nil
}

func filterRows[T catalog.Row](ctx context.Context, fetcher Fetcher, url string, pred filter.Predicate[T]) ([]catalog.Row, error) {
	records, err := pagination.Drain[T](ctx, fetcher, url)
	if err != nil {
		return nil, err
	}
	return toRows(filter.Apply(records, pred)), nil
}

func toRows[T catalog.Row](records []T) []catalog.Row {
	rows := make([]catalog.Row, len(records))
	for i, r := range records {
		rows[i] = r
	}
	return rows
}
