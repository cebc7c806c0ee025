package catalog

import "strconv"

// EpisodeRarity counts the episodes a character appears in.
type EpisodeRarity struct {
	Name          string `json:"name" yaml:"name"`
	EpisodeAmount int    `json:"episode_amount" yaml:"episode_amount"`
	Origin        string `json:"origin" yaml:"origin"`
}

// Columns implements Row.
func (EpisodeRarity) Columns() []string {
	return []string{"name", "episode_amount", "origin"}
}

// Values implements Row.
func (r EpisodeRarity) Values() []string {
	return []string{r.Name, strconv.Itoa(r.EpisodeAmount), r.Origin}
}

// ResidentRarity counts the residents of a location.
type ResidentRarity struct {
	Name            string `json:"name" yaml:"name"`
	ResidentsAmount int    `json:"residents_amount" yaml:"residents_amount"`
}

// Columns implements Row.
func (ResidentRarity) Columns() []string {
	return []string{"name", "residents_amount"}
}

// Values implements Row.
func (r ResidentRarity) Values() []string {
	return []string{r.Name, strconv.Itoa(r.ResidentsAmount)}
}
