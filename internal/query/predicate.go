// Package query turns optional property search parameters into a predicate
// tree that the stores evaluate natively: Postgres renders it to
// parameterized SQL, the memory store evaluates it directly.
package query

import (
	"strings"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/shopspring/decimal"
)

// Kind tags a predicate node.
type Kind int

const (
	// KindAnd holds when every child holds.
	KindAnd Kind = iota + 1
	// KindOr holds when any child holds.
	KindOr
	// KindContains is a case-insensitive substring match on a text field.
	KindContains
	// KindBetween is an inclusive range match on a numeric field.
	KindBetween
)

func (k Kind) String() string {
	switch k {
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindContains:
		return "contains"
	case KindBetween:
		return "between"
	default:
		return "none"
	}
}

// Field names a filterable property column.
type Field string

const (
	FieldAddress     Field = "address"
	FieldDescription Field = "description"
	FieldPrice       Field = "price"
	FieldSize        Field = "size"
)

// Predicate is a boolean condition over property fields. Leaves carry a
// field and operands; AND/OR nodes carry children. The zero value is the
// empty predicate and matches everything.
//
// Between operands are decimal.Decimal for FieldPrice and float64 for FieldSize.
type Predicate struct {
	Kind     Kind
	Field    Field
	Text     string
	Min      any
	Max      any
	Children []Predicate
}

// IsZero reports whether p is the empty, match-all predicate.
func (p Predicate) IsZero() bool {
	return p.Kind == 0
}

// And combines predicates so that all must hold.
func And(children ...Predicate) Predicate {
	return Predicate{Kind: KindAnd, Children: children}
}

// Or combines predicates so that at least one must hold.
func Or(children ...Predicate) Predicate {
	return Predicate{Kind: KindOr, Children: children}
}

// Contains matches field values containing text, ignoring case.
func Contains(field Field, text string) Predicate {
	return Predicate{Kind: KindContains, Field: field, Text: text}
}

// AddressContains matches properties whose address contains text.
func AddressContains(text string) Predicate {
	return Contains(FieldAddress, text)
}

// FreeText matches text against the address or the description.
func FreeText(text string) Predicate {
	return Or(Contains(FieldAddress, text), Contains(FieldDescription, text))
}

// PriceBetween matches prices in [min, max].
func PriceBetween(min, max decimal.Decimal) Predicate {
	return Predicate{Kind: KindBetween, Field: FieldPrice, Min: min, Max: max}
}

// SizeBetween matches sizes in [min, max].
func SizeBetween(min, max float64) Predicate {
	return Predicate{Kind: KindBetween, Field: FieldSize, Min: min, Max: max}
}

// Matches evaluates the predicate against a single property.
func (p Predicate) Matches(prop domain.Property) bool {
	switch p.Kind {
	case 0:
		return true
	case KindAnd:
		for _, child := range p.Children {
			if !child.Matches(prop) {
				return false
			}
		}
		return true
	case KindOr:
		for _, child := range p.Children {
			if child.Matches(prop) {
				return true
			}
		}
		return false
	case KindContains:
		value, ok := textValue(prop, p.Field)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(value), strings.ToLower(p.Text))
	case KindBetween:
		return inRange(prop, p)
	default:
		return false
	}
}

func textValue(prop domain.Property, field Field) (string, bool) {
	switch field {
	case FieldAddress:
		return prop.Address, true
	case FieldDescription:
		if prop.Description == nil {
			return "", false
		}
		return *prop.Description, true
	default:
		return "", false
	}
}

func inRange(prop domain.Property, p Predicate) bool {
	switch p.Field {
	case FieldPrice:
		min, okMin := p.Min.(decimal.Decimal)
		max, okMax := p.Max.(decimal.Decimal)
		if !okMin || !okMax {
			return false
		}
		return prop.Price.GreaterThanOrEqual(min) && prop.Price.LessThanOrEqual(max)
	case FieldSize:
		min, okMin := p.Min.(float64)
		max, okMax := p.Max.(float64)
		if !okMin || !okMax {
			return false
		}
		return prop.Size >= min && prop.Size <= max
	default:
		return false
	}
}
