package filter

import (
	"net/url"
	"strings"

	"github.com/Sternrassler/wubba/pkg/catalog"
)

// remoteFields lists the criteria the API filters server-side. Everything
// else is evaluated locally. Character origin and location stay local: the
// API cannot match an embedded reference's name.
var remoteFields = map[catalog.Collection]map[string]bool{
	catalog.CollectionCharacter: {
		FieldName:    true,
		FieldStatus:  true,
		FieldSpecies: true,
		FieldType:    true,
		FieldGender:  true,
	},
	catalog.CollectionLocation: {
		FieldName:      true,
		FieldType:      true,
		FieldDimension: true,
	},
	catalog.CollectionEpisode: {
		FieldName: true,
	},
}

// IsRemote reports whether the API filters a criterion for a collection.
func IsRemote(collection catalog.Collection, name string) bool {
	return remoteFields[collection][name]
}

// Translate splits criteria into an encoded query string for the API and the
// criteria left for local predicates. Pairs keep the criteria order, values
// are URL-escaped, and there is no trailing separator. No remote criteria
// yields an empty query, equivalent to an unfiltered drain.
func Translate(collection catalog.Collection, criteria Criteria) (string, Criteria) {
	var pairs []string
	local := make(Criteria, 0, len(criteria))

	for _, cr := range criteria {
		if cr.Value == "" {
			continue
		}
		if IsRemote(collection, cr.Name) {
			pairs = append(pairs, url.QueryEscape(cr.Name)+"="+url.QueryEscape(cr.Value))
			continue
		}
		local = append(local, cr)
	}

	return strings.Join(pairs, "&"), local
}
