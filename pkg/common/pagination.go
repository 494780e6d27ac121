package common

// Constants for pagination
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest represents offset pagination parameters for list queries
type PageRequest struct {
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	SortBy string `json:"sort_by,omitempty"`
}

// EffectiveLimit returns the limit to use, clamped to sane bounds
func (p PageRequest) EffectiveLimit() int {
	if p.Limit <= 0 || p.Limit > MaxPageSize {
		return DefaultPageSize
	}
	return p.Limit
}

// EffectiveOffset returns the offset to use, never negative
func (p PageRequest) EffectiveOffset() int {
	if p.Offset < 0 {
		return 0
	}
	return p.Offset
}
