package catalog

// PageInfo is the pagination block of a list response.
type PageInfo struct {
	Count int     `json:"count"`
	Pages int     `json:"pages"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}

// Page is one paginated response of a list endpoint.
type Page[T any] struct {
	Info    PageInfo `json:"info"`
	Results []T      `json:"results"`
}

// HasNext reports whether another page follows this one.
func (p *Page[T]) HasNext() bool {
	return p.Info.Next != nil && *p.Info.Next != ""
}

// NextURL returns the verbatim next link, or "" on the terminal page.
func (p *Page[T]) NextURL() string {
	if !p.HasNext() {
		return ""
	}
	return *p.Info.Next
}
