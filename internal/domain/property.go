package domain

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// MaxDescriptionLength is the longest description accepted, in characters.
	MaxDescriptionLength = 1000
	// PriceScale is the number of fractional digits stored for a price.
	PriceScale = 2
	// PriceMaxIntegerDigits follows from NUMERIC(14,2).
	PriceMaxIntegerDigits = 12
)

var priceUpperLimit = decimal.New(1, PriceMaxIntegerDigits)

// Property represents a persisted property listing
type Property struct {
	ID          uuid.UUID
	Address     string
	Price       decimal.Decimal
	Size        float64
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PropertyInput carries the mutable fields of a property for create and update.
// Updates replace all four fields at once.
type PropertyInput struct {
	Address     string
	Price       decimal.Decimal
	Size        float64
	Description *string
}

// Normalize trims text fields, rounds the price to the stored scale and
// collapses a blank description to nil.
func (in PropertyInput) Normalize() PropertyInput {
	out := PropertyInput{
		Address: strings.TrimSpace(in.Address),
		Price:   in.Price.Round(PriceScale),
		Size:    in.Size,
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc != "" {
			out.Description = &desc
		}
	}
	return out
}

// Validate checks the field rules shared by every entry point. Messages are
// keyed by the JSON field name.
func (in PropertyInput) Validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(in.Address) == "" {
		fields["address"] = "Address is required"
	}

	switch {
	case !in.Price.Round(PriceScale).IsPositive():
		fields["price"] = "Price must be positive"
	case in.Price.Round(PriceScale).GreaterThanOrEqual(priceUpperLimit):
		fields["price"] = "Price must have at most 12 integer digits"
	}

	if !(in.Size > 0) || math.IsInf(in.Size, 1) {
		fields["size"] = "Size must be positive"
	}

	if in.Description != nil && utf8.RuneCountInString(*in.Description) > MaxDescriptionLength {
		fields["description"] = "Description max length is 1000"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Apply returns a copy of the property carrying the input's fields.
func (p Property) Apply(in PropertyInput, now time.Time) Property {
	return Property{
		ID:          p.ID,
		Address:     in.Address,
		Price:       in.Price,
		Size:        in.Size,
		Description: copyString(in.Description),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (p Property) Clone() Property {
	p.Description = copyString(p.Description)
	return p
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
