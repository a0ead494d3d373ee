package property

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rpattn/propertyapi/internal/domain"
)

// PageDefaults bounds the page size accepted from clients.
type PageDefaults struct {
	DefaultSize int
	MaxSize     int
}

// ParseFilter reads the optional search parameters. Text parameters are kept
// as given; malformed numbers are reported per parameter.
func ParseFilter(values url.Values) (domain.PropertyFilter, error) {
	var filter domain.PropertyFilter
	fields := map[string]string{}

	if values.Has("q") {
		q := values.Get("q")
		filter.Query = &q
	}
	if values.Has("address") {
		address := values.Get("address")
		filter.Address = &address
	}

	filter.MinPrice = parseDecimal(values, "minPrice", fields)
	filter.MaxPrice = parseDecimal(values, "maxPrice", fields)
	filter.MinSize = parseFloat(values, "minSize", fields)
	filter.MaxSize = parseFloat(values, "maxSize", fields)

	if len(fields) > 0 {
		return domain.PropertyFilter{}, &domain.ValidationError{Fields: fields}
	}
	return filter, nil
}

// ParsePage reads page, size and sort. Page and size are lenient: anything
// unusable falls back to the first page and the default size, and sizes
// above the maximum are clamped. An unknown sort field is an error.
func ParsePage(values url.Values, defaults PageDefaults) (domain.PageRequest, error) {
	req := domain.PageRequest{Size: defaults.DefaultSize}

	if page, err := strconv.Atoi(strings.TrimSpace(values.Get("page"))); err == nil && page > 0 {
		req.Page = page
	}

	if size, err := strconv.Atoi(strings.TrimSpace(values.Get("size"))); err == nil && size > 0 {
		req.Size = size
	}
	if defaults.MaxSize > 0 && req.Size > defaults.MaxSize {
		req.Size = defaults.MaxSize
	}
	// Any page this far out is past the end of every result set.
	if req.Size > 0 && req.Page > math.MaxInt/req.Size-1 {
		req.Page = math.MaxInt/req.Size - 1
	}

	if raw := strings.TrimSpace(values.Get("sort")); raw != "" {
		sort, err := domain.ParsePropertySort(raw)
		if err != nil {
			return domain.PageRequest{}, domain.NewFieldError("sort", err.Error())
		}
		req.Sort = &sort
	}
	return req, nil
}

func parseDecimal(values url.Values, key string, fields map[string]string) *decimal.Decimal {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		fields[key] = key + " must be a number"
		return nil
	}
	return &d
}

func parseFloat(values url.Values, key string, fields map[string]string) *float64 {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		fields[key] = key + " must be a number"
		return nil
	}
	return &f
}
