package catalog

import (
	"strconv"
)

// Ref is an embedded reference to another record.
// Only Name takes part in equality filters.
type Ref struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Row is a record the presentation layer can print as a table row.
type Row interface {
	Columns() []string
	Values() []string
}

// Character is a record of the /character endpoint.
type Character struct {
	ID       int      `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Status   string   `json:"status" yaml:"status"`
	Species  string   `json:"species" yaml:"species"`
	Type     string   `json:"type" yaml:"type"`
	Gender   string   `json:"gender" yaml:"gender"`
	Origin   Ref      `json:"origin" yaml:"origin"`
	Location Ref      `json:"location" yaml:"location"`
	Image    string   `json:"image" yaml:"image"`
	Episode  []string `json:"episode" yaml:"episode"`
	URL      string   `json:"url" yaml:"url"`
	Created  string   `json:"created" yaml:"created"`
}

// Columns implements Row.
func (Character) Columns() []string {
	return []string{"id", "name", "status", "species", "type", "gender", "origin", "location", "image", "episode", "url", "created"}
}

// Values implements Row. References print as their name, reference lists as
// their length.
func (c Character) Values() []string {
	return []string{
		strconv.Itoa(c.ID), c.Name, c.Status, c.Species, c.Type, c.Gender,
		c.Origin.Name, c.Location.Name, c.Image, strconv.Itoa(len(c.Episode)),
		c.URL, c.Created,
	}
}

// Location is a record of the /location endpoint.
type Location struct {
	ID        int      `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Type      string   `json:"type" yaml:"type"`
	Dimension string   `json:"dimension" yaml:"dimension"`
	Residents []string `json:"residents" yaml:"residents"`
	URL       string   `json:"url" yaml:"url"`
	Created   string   `json:"created" yaml:"created"`
}

// Columns implements Row.
func (Location) Columns() []string {
	return []string{"id", "name", "type", "dimension", "residents", "url", "created"}
}

// Values implements Row.
func (l Location) Values() []string {
	return []string{
		strconv.Itoa(l.ID), l.Name, l.Type, l.Dimension,
		strconv.Itoa(len(l.Residents)), l.URL, l.Created,
	}
}

// Episode is a record of the /episode endpoint. Code holds the
// S<season>E<episode> code the API calls "episode".
type Episode struct {
	ID         int      `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	AirDate    string   `json:"air_date" yaml:"air_date"`
	Code       string   `json:"episode" yaml:"episode"`
	Characters []string `json:"characters" yaml:"characters"`
	URL        string   `json:"url" yaml:"url"`
	Created    string   `json:"created" yaml:"created"`
}

// Columns implements Row.
func (Episode) Columns() []string {
	return []string{"id", "name", "air_date", "episode", "characters", "url", "created"}
}

// Values implements Row.
func (e Episode) Values() []string {
	return []string{
		strconv.Itoa(e.ID), e.Name, e.AirDate, e.Code,
		strconv.Itoa(len(e.Characters)), e.URL, e.Created,
	}
}
