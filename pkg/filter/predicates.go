package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/wubba/pkg/catalog"
)

const (
	// BoundLayout is the day/month/year layout of --before and --after.
	// Day and month take one or two digits.
	BoundLayout = "2/1/2006"

	// displayLayout renders bounds in error messages.
	displayLayout = "02/01/2006"

	// AirDateLayout is the layout of an episode's air_date, e.g. "December 2, 2013".
	AirDateLayout = "January 2, 2006"
)

// Predicate reports whether a record passes a filter.
type Predicate[T any] func(T) bool

// Always passes every record. Absent criteria become Always.
func Always[T any](T) bool {
	return true
}

// All combines predicates with logical AND.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(record T) bool {
		for _, p := range preds {
			if !p(record) {
				return false
			}
		}
		return true
	}
}

// Apply returns the records passing pred, in their original order.
func Apply[T any](records []T, pred Predicate[T]) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// DateRange keeps episodes aired strictly after after and strictly before
// before. Either bound may be empty. A before bound strictly earlier than the
// after bound is an *InvalidDateRangeError; equal bounds are accepted and
// match nothing. Episodes whose air date cannot be parsed never match.
func DateRange(before, after string) (Predicate[catalog.Episode], error) {
	if before == "" && after == "" {
		return Always[catalog.Episode], nil
	}

	var beforeDate, afterDate time.Time
	var err error

	if before != "" {
		if beforeDate, err = time.Parse(BoundLayout, before); err != nil {
			return nil, fmt.Errorf("%w: before %q: expected dd/mm/yyyy", ErrInvalidDate, before)
		}
	}
	if after != "" {
		if afterDate, err = time.Parse(BoundLayout, after); err != nil {
			return nil, fmt.Errorf("%w: after %q: expected dd/mm/yyyy", ErrInvalidDate, after)
		}
	}

	if before != "" && after != "" && beforeDate.Before(afterDate) {
		return nil, &InvalidDateRangeError{Before: beforeDate, After: afterDate}
	}

	return func(e catalog.Episode) bool {
		aired, err := time.Parse(AirDateLayout, e.AirDate)
		if err != nil {
			return false
		}
		if after != "" && !aired.After(afterDate) {
			return false
		}
		if before != "" && !aired.Before(beforeDate) {
			return false
		}
		return true
	}, nil
}

// ParseCode splits an episode code such as "S03E07" into season 3 and
// episode 7.
func ParseCode(code string) (season, episode int, err error) {
	left, right, ok := strings.Cut(code, "E")
	if !ok {
		return 0, 0, fmt.Errorf("%w: episode code %q", ErrInvalidNumber, code)
	}
	if season, err = strconv.Atoi(strings.TrimPrefix(left, "S")); err != nil {
		return 0, 0, fmt.Errorf("%w: season in %q", ErrInvalidNumber, code)
	}
	if episode, err = strconv.Atoi(right); err != nil {
		return 0, 0, fmt.Errorf("%w: episode in %q", ErrInvalidNumber, code)
	}
	return season, episode, nil
}

// Season keeps episodes of the given season. Zero means unset.
func Season(season int) Predicate[catalog.Episode] {
	if season == 0 {
		return Always[catalog.Episode]
	}
	return func(e catalog.Episode) bool {
		s, _, err := ParseCode(e.Code)
		return err == nil && s == season
	}
}

// EpisodeNumber keeps episodes with the given number within their season.
// Zero means unset.
func EpisodeNumber(number int) Predicate[catalog.Episode] {
	if number == 0 {
		return Always[catalog.Episode]
	}
	return func(e catalog.Episode) bool {
		_, n, err := ParseCode(e.Code)
		return err == nil && n == number
	}
}

// Code keeps episodes whose code contains code, ignoring case,
// so "S01" selects the whole first season.
func Code(code string) Predicate[catalog.Episode] {
	if code == "" {
		return Always[catalog.Episode]
	}
	code = strings.ToLower(code)
	return func(e catalog.Episode) bool {
		return strings.Contains(strings.ToLower(e.Code), code)
	}
}

// Origin keeps characters whose origin name equals name exactly.
func Origin(name string) Predicate[catalog.Character] {
	if name == "" {
		return Always[catalog.Character]
	}
	return func(c catalog.Character) bool {
		return c.Origin.Name == name
	}
}

// Location keeps characters whose current location name equals name exactly.
func Location(name string) Predicate[catalog.Character] {
	if name == "" {
		return Always[catalog.Character]
	}
	return func(c catalog.Character) bool {
		return c.Location.Name == name
	}
}

// EpisodePredicate builds the local episode filter:
// date range AND season AND episode number AND code.
func EpisodePredicate(local Criteria) (Predicate[catalog.Episode], error) {
	if err := checkKnown(local, FieldCode, FieldBefore, FieldAfter, FieldSeason, FieldEpisode); err != nil {
		return nil, err
	}

	dates, err := DateRange(local.Get(FieldBefore), local.Get(FieldAfter))
	if err != nil {
		return nil, err
	}
	season, err := atoi(FieldSeason, local.Get(FieldSeason))
	if err != nil {
		return nil, err
	}
	number, err := atoi(FieldEpisode, local.Get(FieldEpisode))
	if err != nil {
		return nil, err
	}

	return All(dates, Season(season), EpisodeNumber(number), Code(local.Get(FieldCode))), nil
}

// CharacterPredicate builds the local character filter: origin AND location.
func CharacterPredicate(local Criteria) (Predicate[catalog.Character], error) {
	if err := checkKnown(local, FieldOrigin, FieldLocation); err != nil {
		return nil, err
	}
	return All(Origin(local.Get(FieldOrigin)), Location(local.Get(FieldLocation))), nil
}

// LocationPredicate builds the local location filter. Every location
// criterion is remote, so any local one is unknown.
func LocationPredicate(local Criteria) (Predicate[catalog.Location], error) {
	if err := checkKnown(local); err != nil {
		return nil, err
	}
	return Always[catalog.Location], nil
}

func checkKnown(local Criteria, known ...string) error {
	for _, cr := range local {
		if cr.Value == "" {
			continue
		}
		found := false
		for _, k := range known {
			if cr.Name == k {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q", ErrUnknownCriterion, cr.Name)
		}
	}
	return nil
}

func atoi(field, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidNumber, field, value)
	}
	return n, nil
}
