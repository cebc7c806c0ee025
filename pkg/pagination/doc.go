// Package pagination drains the API's cursor-paginated list endpoints.
//
// Every list response carries an info.next link to the following page. The
// link of page N is only known once page N-1 has arrived, so pages are
// fetched strictly one after another and the link is followed verbatim.
//
// Example usage:
//
//	characters, err := pagination.DrainAll[catalog.Character](ctx, apiClient, catalog.CollectionCharacter)
//
// The drain:
//   - Fetches the first page from the collection (or filtered) URL
//   - Appends results in page-arrival, then in-page order
//   - Follows info.next until it is null
//   - Discards everything fetched so far when any page fails
package pagination
