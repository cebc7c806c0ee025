// Package rarity ranks characters by the number of episodes they appear in and
// locations by the number of residents they have.
package rarity

import (
	"sort"

	"github.com/Sternrassler/wubba/pkg/catalog"
)

// RankEpisodes ranks characters by episode count, most frequent first.
// Characters with equal counts keep their input order. A limit in
// (0, len(characters)] keeps only the first limit entries.
func RankEpisodes(characters []catalog.Character, limit int) []catalog.EpisodeRarity {
	ranked := make([]catalog.EpisodeRarity, 0, len(characters))
	for _, c := range characters {
		ranked = append(ranked, catalog.EpisodeRarity{
			Name:          c.Name,
			EpisodeAmount: len(c.Episode),
			Origin:        c.Origin.Name,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EpisodeAmount > ranked[j].EpisodeAmount
	})

	return truncate(ranked, limit)
}

// RankResidents ranks locations by resident count, most populated first.
// Ties and limit behave as in RankEpisodes.
func RankResidents(locations []catalog.Location, limit int) []catalog.ResidentRarity {
	ranked := make([]catalog.ResidentRarity, 0, len(locations))
	for _, l := range locations {
		ranked = append(ranked, catalog.ResidentRarity{
			Name:            l.Name,
			ResidentsAmount: len(l.Residents),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ResidentsAmount > ranked[j].ResidentsAmount
	})

	return truncate(ranked, limit)
}

func truncate[T any](ranked []T, limit int) []T {
	if limit > 0 && limit <= len(ranked) {
		return ranked[:limit]
	}
	return ranked
}
