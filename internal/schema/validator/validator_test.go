package validator

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *PayloadValidator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

func TestDecodePropertyAcceptsValidPayload(t *testing.T) {
	v := newValidator(t)

	in, err := v.DecodeProperty(strings.NewReader(`{"address":"123 Main St","price":250000.50,"size":120.5,"description":"Nice"}`))
	require.NoError(t, err)

	assert.Equal(t, "123 Main St", in.Address)
	assert.True(t, decimal.RequireFromString("250000.50").Equal(in.Price))
	assert.Equal(t, 120.5, in.Size)
	require.NotNil(t, in.Description)
	assert.Equal(t, "Nice", *in.Description)
}

func TestDecodePropertyKeepsExactPrice(t *testing.T) {
	v := newValidator(t)

	in, err := v.DecodeProperty(strings.NewReader(`{"address":"a","price":0.1,"size":1}`))
	require.NoError(t, err)
	assert.Equal(t, "0.1", in.Price.String())
	assert.Nil(t, in.Description)
}

func TestDecodePropertyNullDescription(t *testing.T) {
	v := newValidator(t)

	in, err := v.DecodeProperty(strings.NewReader(`{"address":"a","price":1,"size":1,"description":null}`))
	require.NoError(t, err)
	assert.Nil(t, in.Description)
}

func TestDecodePropertyIgnoresUnknownFields(t *testing.T) {
	v := newValidator(t)

	_, err := v.DecodeProperty(strings.NewReader(`{"id":"x","address":"a","price":1,"size":1}`))
	require.NoError(t, err)
}

func TestDecodePropertyRejections(t *testing.T) {
	longDesc := strings.Repeat("x", domain.MaxDescriptionLength+1)

	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{
			name: "empty object",
			body: `{}`,
			want: map[string]string{
				"address": "Address is required",
				"price":   "Price is required",
				"size":    "Size is required",
			},
		},
		{
			name: "null fields",
			body: `{"address":null,"price":null,"size":null}`,
			want: map[string]string{
				"address": "Address is required",
				"price":   "Price is required",
				"size":    "Size is required",
			},
		},
		{
			name: "blank address",
			body: `{"address":"   ","price":1,"size":1}`,
			want: map[string]string{"address": "Address is required"},
		},
		{
			name: "non positive numbers",
			body: `{"address":"a","price":0,"size":-3}`,
			want: map[string]string{
				"price": "Price must be positive",
				"size":  "Size must be positive",
			},
		},
		{
			name: "wrong types",
			body: `{"address":12,"price":"cheap","size":true,"description":5}`,
			want: map[string]string{
				"address":     "Address must be a string",
				"price":       "Price must be a number",
				"size":        "Size must be a number",
				"description": "Description must be a string",
			},
		},
		{
			name: "description too long",
			body: `{"address":"a","price":1,"size":1,"description":"` + longDesc + `"}`,
			want: map[string]string{"description": "Description max length is 1000"},
		},
		{
			name: "price rounds to zero",
			body: `{"address":"a","price":0.001,"size":1}`,
			want: map[string]string{"price": "Price must be positive"},
		},
		{
			name: "price too many integer digits",
			body: `{"address":"a","price":1000000000000,"size":1}`,
			want: map[string]string{"price": "Price must have at most 12 integer digits"},
		},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.DecodeProperty(strings.NewReader(tt.body))
			assert.Equal(t, tt.want, fieldErrors(t, err))
		})
	}
}

func TestDecodePropertyMalformedBody(t *testing.T) {
	v := newValidator(t)

	for _, body := range []string{`{"address":`, `[1,2]`, `"text"`, ``, `{}{}`, `{"address":"1 Main St","price":1,"size":1} x`, `{} }`} {
		_, err := v.DecodeProperty(strings.NewReader(body))
		assert.ErrorIs(t, err, domain.ErrMalformedBody, "body %q", body)
	}
}

func TestValidateDocumentWithJSONNumbers(t *testing.T) {
	v := newValidator(t)

	in, err := v.ValidateDocument(map[string]any{
		"address": "456 Oak Ave",
		"price":   json.Number("350000"),
		"size":    json.Number("80"),
	})
	require.NoError(t, err)
	assert.Equal(t, "350000", in.Price.String())
	assert.Equal(t, float64(80), in.Size)
}

func TestDecodePropertyAllowsTrailingWhitespace(t *testing.T) {
	v := newValidator(t)

	in, err := v.DecodeProperty(strings.NewReader("{\"address\":\"9 Elm St\",\"price\":120000.50,\"size\":75}\n\t "))
	require.NoError(t, err)
	assert.Equal(t, "9 Elm St", in.Address)
	assert.True(t, decimal.RequireFromString("120000.50").Equal(in.Price))
}
