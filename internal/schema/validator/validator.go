// Package validator checks property payloads against an embedded JSON Schema
// and converts accepted documents into domain input.
package validator

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
)

const propertySchemaURL = "property.schema.json"

//go:embed property.schema.json
var propertySchema []byte

var requiredMessages = map[string]string{
	"address": "Address is required",
	"price":   "Price is required",
	"size":    "Size is required",
}

var keywordMessages = map[string]map[string]string{
	"address": {
		"type":    "Address must be a string",
		"pattern": "Address is required",
	},
	"price": {
		"type":             "Price must be a number",
		"exclusiveMinimum": "Price must be positive",
	},
	"size": {
		"type":             "Size must be a number",
		"exclusiveMinimum": "Size must be positive",
	},
	"description": {
		"type":      "Description must be a string",
		"maxLength": fmt.Sprintf("Description max length is %d", domain.MaxDescriptionLength),
	},
}

// PayloadValidator validates create and update payloads.
type PayloadValidator struct {
	schema *jsonschema.Schema
}

// New compiles the embedded property schema.
func New() (*PayloadValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(propertySchemaURL, bytes.NewReader(propertySchema)); err != nil {
		return nil, fmt.Errorf("add property schema: %w", err)
	}
	schema, err := compiler.Compile(propertySchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile property schema: %w", err)
	}
	return &PayloadValidator{schema: schema}, nil
}

// DecodeProperty reads a JSON body and validates it. A body that is not a
// JSON object yields domain.ErrMalformedBody.
func (v *PayloadValidator) DecodeProperty(r io.Reader) (domain.PropertyInput, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return domain.PropertyInput{}, fmt.Errorf("%w: %v", domain.ErrMalformedBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.PropertyInput{}, fmt.Errorf("%w: trailing data after JSON value", domain.ErrMalformedBody)
	}
	return v.ValidateDocument(doc)
}

// ValidateDocument validates an already decoded document. Numbers must be
// json.Number so prices keep their exact decimal form.
func (v *PayloadValidator) ValidateDocument(doc any) (domain.PropertyInput, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return domain.PropertyInput{}, domain.ErrMalformedBody
	}

	fields := map[string]string{}
	for field, msg := range requiredMessages {
		if val, present := obj[field]; !present || val == nil {
			fields[field] = msg
		}
	}

	if err := v.schema.Validate(obj); err != nil {
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			return domain.PropertyInput{}, fmt.Errorf("validate property: %w", err)
		}
		collectSchemaErrors(verr, fields)
	}

	if len(fields) > 0 {
		return domain.PropertyInput{}, &domain.ValidationError{Fields: fields}
	}

	in, err := toInput(obj)
	if err != nil {
		return domain.PropertyInput{}, err
	}
	if err := in.Validate(); err != nil {
		return domain.PropertyInput{}, err
	}
	return in, nil
}

// collectSchemaErrors walks the leaf causes and keeps the first message per
// field. Required violations are reported separately.
func collectSchemaErrors(verr *jsonschema.ValidationError, fields map[string]string) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			collectSchemaErrors(cause, fields)
		}
		return
	}

	field := strings.TrimPrefix(verr.InstanceLocation, "/")
	keyword := verr.KeywordLocation[strings.LastIndex(verr.KeywordLocation, "/")+1:]
	if keyword == "required" || field == "" {
		return
	}
	if _, seen := fields[field]; seen {
		return
	}

	msg, ok := keywordMessages[field][keyword]
	if !ok {
		msg = verr.Message
	}
	fields[field] = msg
}

func toInput(obj map[string]any) (domain.PropertyInput, error) {
	in := domain.PropertyInput{Address: obj["address"].(string)}

	price, err := decimal.NewFromString(numberString(obj["price"]))
	if err != nil {
		return domain.PropertyInput{}, domain.NewFieldError("price", "Price must be a number")
	}
	in.Price = price

	size, err := json.Number(numberString(obj["size"])).Float64()
	if err != nil {
		return domain.PropertyInput{}, domain.NewFieldError("size", "Size is out of range")
	}
	in.Size = size

	if desc, ok := obj["description"].(string); ok {
		in.Description = &desc
	}
	return in, nil
}

func numberString(v any) string {
	switch n := v.(type) {
	case json.Number:
		return n.String()
	case float64:
		return decimal.NewFromFloat(n).String()
	case int:
		return fmt.Sprintf("%d", n)
	case int64:
		return fmt.Sprintf("%d", n)
	default:
		return fmt.Sprint(v)
	}
}
