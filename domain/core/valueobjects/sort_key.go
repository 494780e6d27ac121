package valueobjects

import "fmt"

// SortKey is the user-facing sort selection for the card feed
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortTitleAsc  SortKey = "title_asc"
	SortTitleDesc SortKey = "title_desc"
)

// SortField is the store-level column a sort key maps onto
type SortField string

const (
	SortFieldCreatedAt SortField = "created_at"
	SortFieldTitle     SortField = "title"
)

// SortOrder is the direction of a sort
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// ParseSortKey converts a raw string into a SortKey
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortNewest, SortOldest, SortTitleAsc, SortTitleDesc:
		return SortKey(s), nil
	default:
		return "", fmt.Errorf("unknown sort key: %q", s)
	}
}

// Valid reports whether the sort key is one of the known keys
func (k SortKey) Valid() bool {
	_, err := ParseSortKey(string(k))
	return err == nil
}

// Field returns the store column this sort key orders by
func (k SortKey) Field() SortField {
	switch k {
	case SortTitleAsc, SortTitleDesc:
		return SortFieldTitle
	default:
		return SortFieldCreatedAt
	}
}

// Order returns the direction this sort key orders in
func (k SortKey) Order() SortOrder {
	switch k {
	case SortOldest, SortTitleAsc:
		return SortOrderAsc
	default:
		return SortOrderDesc
	}
}

func (k SortKey) String() string {
	return string(k)
}
