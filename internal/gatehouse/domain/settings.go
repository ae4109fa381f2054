package domain

// SiteSettings are the presentation-facing portal settings stored as a single
// row. Loaded explicitly per request by the HTTP layer, with in-code defaults
// when the row is absent.
type SiteSettings struct {
	Name     string
	Subtitle string
}
