// Package filter turns user filter criteria into a remote query string plus
// client-side predicates for what the API cannot filter itself.
package filter

import (
	"strconv"
)

// Criterion names.
const (
	FieldName      = "name"
	FieldStatus    = "status"
	FieldSpecies   = "species"
	FieldType      = "type"
	FieldGender    = "gender"
	FieldOrigin    = "origin"
	FieldLocation  = "location"
	FieldDimension = "dimension"
	FieldCode      = "code"
	FieldBefore    = "before"
	FieldAfter     = "after"
	FieldSeason    = "season"
	FieldEpisode   = "episode"
)

// Criterion is one named filter value. An empty Value is a no-op.
type Criterion struct {
	Name  string
	Value string
}

// Criteria is an ordered list of criteria. It is built once and never
// modified; Translate returns new values instead of removing entries.
type Criteria []Criterion

// Get returns the value of a criterion, or "" when absent.
func (c Criteria) Get(name string) string {
	for _, cr := range c {
		if cr.Name == name {
			return cr.Value
		}
	}
	return ""
}

// Empty reports whether no criterion carries a value.
func (c Criteria) Empty() bool {
	for _, cr := range c {
		if cr.Value != "" {
			return false
		}
	}
	return true
}

// CharacterCriteria are the filters accepted for characters.
type CharacterCriteria struct {
	Name     string
	Status   string
	Species  string
	Type     string
	Gender   string
	Origin   string
	Location string
}

// Criteria lists the fields in flag order.
func (c CharacterCriteria) Criteria() Criteria {
	return compact(Criteria{
		{FieldName, c.Name},
		{FieldStatus, c.Status},
		{FieldSpecies, c.Species},
		{FieldType, c.Type},
		{FieldGender, c.Gender},
		{FieldOrigin, c.Origin},
		{FieldLocation, c.Location},
	})
}

// LocationCriteria are the filters accepted for locations.
type LocationCriteria struct {
	Name      string
	Dimension string
	Type      string
}

// Criteria lists the fields in flag order.
func (c LocationCriteria) Criteria() Criteria {
	return compact(Criteria{
		{FieldName, c.Name},
		{FieldDimension, c.Dimension},
		{FieldType, c.Type},
	})
}

// EpisodeCriteria are the filters accepted for episodes. Before and After are
// dd/mm/yyyy dates; Season and Episode of 0 mean unset.
type EpisodeCriteria struct {
	Name    string
	Code    string
	Before  string
	After   string
	Season  int
	Episode int
}

// Criteria lists the fields in flag order.
func (c EpisodeCriteria) Criteria() Criteria {
	return compact(Criteria{
		{FieldName, c.Name},
		{FieldCode, c.Code},
		{FieldBefore, c.Before},
		{FieldAfter, c.After},
		{FieldSeason, itoa(c.Season)},
		{FieldEpisode, itoa(c.Episode)},
	})
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// compact drops criteria without a value.
func compact(c Criteria) Criteria {
	out := make(Criteria, 0, len(c))
	for _, cr := range c {
		if cr.Value != "" {
			out = append(out, cr)
		}
	}
	return out
}
