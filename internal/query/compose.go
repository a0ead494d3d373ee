package query

import (
	"math"
	"strings"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// PriceCeiling stands in for a missing maximum price. It is above every
	// storable price.
	PriceCeiling = decimal.New(1, domain.PriceMaxIntegerDigits)
	// SizeCeiling stands in for a missing maximum size.
	SizeCeiling = math.MaxFloat64
)

// Compose builds the predicate for a search. It returns false when no filter
// is present, in which case the caller should run an unfiltered scan.
//
// Atoms are combined with AND in a fixed order: address, free text, price,
// size. A half-open range is closed with zero or the ceiling, and inverted
// bounds are swapped rather than rejected.
func Compose(f domain.PropertyFilter) (Predicate, bool) {
	var atoms []Predicate

	if text, ok := presentText(f.Address); ok {
		atoms = append(atoms, AddressContains(text))
	}
	if text, ok := presentText(f.Query); ok {
		atoms = append(atoms, FreeText(text))
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		min, max := decimal.Zero, PriceCeiling
		if f.MinPrice != nil {
			min = *f.MinPrice
		}
		if f.MaxPrice != nil {
			max = *f.MaxPrice
		}
		if min.GreaterThan(max) {
			min, max = max, min
		}
		atoms = append(atoms, PriceBetween(min, max))
	}

	if f.MinSize != nil || f.MaxSize != nil {
		min, max := 0.0, SizeCeiling
		if f.MinSize != nil {
			min = *f.MinSize
		}
		if f.MaxSize != nil {
			max = *f.MaxSize
		}
		if min > max {
			min, max = max, min
		}
		atoms = append(atoms, SizeBetween(min, max))
	}

	switch len(atoms) {
	case 0:
		return Predicate{}, false
	case 1:
		return atoms[0], true
	default:
		return And(atoms...), true
	}
}

// presentText treats blank text as absent. Non-blank text is matched as
// given, surrounding whitespace included.
func presentText(s *string) (string, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "", false
	}
	return *s, true
}
