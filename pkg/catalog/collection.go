// Package catalog defines the records served by the Rick and Morty API:
// characters, locations, episodes, the page envelope wrapping them and the
// derived rarity records.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCollection is returned when a collection name is not one of
// character, location or episode.
var ErrUnknownCollection = errors.New("unknown collection")

// Collection selects a remote endpoint and the filters and aggregates valid
// for its records.
type Collection string

const (
	// CollectionCharacter is the /character endpoint.
	CollectionCharacter Collection = "character"

	// CollectionLocation is the /location endpoint.
	CollectionLocation Collection = "location"

	// CollectionEpisode is the /episode endpoint.
	CollectionEpisode Collection = "episode"
)

// Collections lists every collection in the order ls prints them.
var Collections = []Collection{CollectionCharacter, CollectionLocation, CollectionEpisode}

// ParseCollection converts a user supplied name into a Collection.
func ParseCollection(name string) (Collection, error) {
	c := Collection(strings.ToLower(strings.TrimSpace(name)))
	switch c {
	case CollectionCharacter, CollectionLocation, CollectionEpisode:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
}

// String implements fmt.Stringer.
func (c Collection) String() string {
	return string(c)
}
