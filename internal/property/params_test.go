package property

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/propertyapi/internal/domain"
)

var testDefaults = PageDefaults{DefaultSize: 10, MaxSize: 100}

func TestParsePageLenient(t *testing.T) {
	tests := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{query: "", wantPage: 0, wantSize: 10},
		{query: "page=2&size=25", wantPage: 2, wantSize: 25},
		{query: "page=abc&size=xyz", wantPage: 0, wantSize: 10},
		{query: "page=-3&size=-1", wantPage: 0, wantSize: 10},
		{query: "size=0", wantPage: 0, wantSize: 10},
		{query: "size=1000", wantPage: 0, wantSize: 100},
		{query: "page=%201%20", wantPage: 1, wantSize: 10},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			req, err := ParsePage(values, testDefaults)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, req.Page)
			assert.Equal(t, tt.wantSize, req.Size)
			assert.Nil(t, req.Sort)
		})
	}
}

func TestParsePageHugeNumberStaysPastTheEnd(t *testing.T) {
	values := url.Values{"page": {"922337203685477581"}, "size": {"10"}}

	req, err := ParsePage(values, testDefaults)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt/10-1, req.Page)
	assert.Positive(t, req.Offset())
	assert.Positive(t, req.Offset()+req.Size)
}

func TestParsePageSort(t *testing.T) {
	req, err := ParsePage(url.Values{"sort": {"price,desc"}}, testDefaults)
	require.NoError(t, err)
	require.NotNil(t, req.Sort)
	assert.Equal(t, domain.PropertySortFieldPrice, req.Sort.Field)
	assert.Equal(t, domain.SortDirectionDesc, req.Sort.Direction)

	_, err = ParsePage(url.Values{"sort": {"password"}}, testDefaults)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "sort")
}

func TestParseFilter(t *testing.T) {
	values := url.Values{
		"q":        {"loft"},
		"address":  {" Main "},
		"minPrice": {"100000.50"},
		"maxPrice": {"200000"},
		"minSize":  {"50"},
		"maxSize":  {"75.5"},
	}

	filter, err := ParseFilter(values)
	require.NoError(t, err)
	require.NotNil(t, filter.Query)
	assert.Equal(t, "loft", *filter.Query)
	require.NotNil(t, filter.Address)
	assert.Equal(t, " Main ", *filter.Address)
	assert.Equal(t, "100000.5", filter.MinPrice.String())
	assert.Equal(t, "200000", filter.MaxPrice.String())
	assert.Equal(t, 50.0, *filter.MinSize)
	assert.Equal(t, 75.5, *filter.MaxSize)
}

func TestParseFilterAbsentIsNotZero(t *testing.T) {
	filter, err := ParseFilter(url.Values{"minPrice": {""}, "minSize": {"0"}})
	require.NoError(t, err)
	assert.Nil(t, filter.Query)
	assert.Nil(t, filter.Address)
	assert.Nil(t, filter.MinPrice)
	require.NotNil(t, filter.MinSize)
	assert.Zero(t, *filter.MinSize)
}

func TestParseFilterMalformedNumbers(t *testing.T) {
	_, err := ParseFilter(url.Values{
		"minPrice": {"cheap"},
		"maxSize":  {"NaN"},
		"minSize":  {"Inf"},
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"minPrice": "minPrice must be a number",
		"maxSize":  "maxSize must be a number",
		"minSize":  "minSize must be a number",
	}, verr.Fields)
}
