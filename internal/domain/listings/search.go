package listings

import "strings"

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchParams describe catalog filters and paging options.
type SearchParams struct {
	Owner         OwnerID
	PropertyType  PropertyType
	City          string
	Country       string
	PriceMinCents int64
	PriceMaxCents int64
	Limit         int
	Offset        int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.PropertyType = PropertyType(strings.TrimSpace(strings.ToLower(string(normalized.PropertyType))))
	normalized.City = strings.TrimSpace(strings.ToLower(normalized.City))
	normalized.Country = strings.TrimSpace(strings.ToLower(normalized.Country))
	if normalized.PriceMinCents < 0 {
		normalized.PriceMinCents = 0
	}
	if normalized.PriceMaxCents > 0 && normalized.PriceMaxCents < normalized.PriceMinCents {
		normalized.PriceMaxCents = 0
	}
	if normalized.Limit <= 0 {
		normalized.Limit = defaultSearchLimit
	}
	if normalized.Limit > maxSearchLimit {
		normalized.Limit = maxSearchLimit
	}
	if normalized.Offset < 0 {
		normalized.Offset = 0
	}
	return normalized
}

// Matches reports whether a listing satisfies the (normalized) filters.
func (p SearchParams) Matches(l *Listing) bool {
	if p.Owner != "" && l.Owner != p.Owner {
		return false
	}
	if p.PropertyType != "" && l.PropertyType != p.PropertyType {
		return false
	}
	if p.City != "" && !strings.Contains(strings.ToLower(l.City), p.City) {
		return false
	}
	if p.Country != "" && !strings.Contains(strings.ToLower(l.Country), p.Country) {
		return false
	}
	if p.PriceMinCents > 0 && l.PriceCents < p.PriceMinCents {
		return false
	}
	if p.PriceMaxCents > 0 && l.PriceCents > p.PriceMaxCents {
		return false
	}
	return true
}
