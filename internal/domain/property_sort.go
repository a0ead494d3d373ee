package domain

import (
	"fmt"
	"strings"
)

// SortDirection represents ordering direction for sortable fields.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// PropertySortField enumerates fields that can be sorted when listing properties.
type PropertySortField string

const (
	PropertySortFieldID        PropertySortField = "id"
	PropertySortFieldAddress   PropertySortField = "address"
	PropertySortFieldPrice     PropertySortField = "price"
	PropertySortFieldSize      PropertySortField = "size"
	PropertySortFieldCreatedAt PropertySortField = "created_at"
)

var sortFieldAliases = map[string]PropertySortField{
	"id":         PropertySortFieldID,
	"address":    PropertySortFieldAddress,
	"price":      PropertySortFieldPrice,
	"size":       PropertySortFieldSize,
	"created_at": PropertySortFieldCreatedAt,
	"createdat":  PropertySortFieldCreatedAt,
}

// PropertySort captures ordering preferences for property listings.
type PropertySort struct {
	Field     PropertySortField
	Direction SortDirection
}

// ParsePropertySort parses "field" or "field,asc|desc".
func ParsePropertySort(raw string) (PropertySort, error) {
	name, dir, _ := strings.Cut(strings.TrimSpace(raw), ",")
	field, ok := sortFieldAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return PropertySort{}, fmt.Errorf("unsupported sort field %q", name)
	}

	sort := PropertySort{Field: field, Direction: SortDirectionAsc}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		sort.Direction = SortDirectionDesc
	default:
		return PropertySort{}, fmt.Errorf("unsupported sort direction %q", dir)
	}
	return sort, nil
}
