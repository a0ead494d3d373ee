package export

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rpattn/propertyapi/internal/respond"
)

func TestHandlerExportCSV(t *testing.T) {
	handler := NewHTTPHandler(NewService(seededProperties(t, 3), 2, zaptest.NewLogger(t)))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/properties/export?address=main&sort=size,desc", nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="properties.csv"`)

	records := readCSV(t, rr.Body.Bytes())
	require.Len(t, records, 4)
	assert.Equal(t, "3 Main St", records[1][1])
}

func TestHandlerExportXLSXHeaders(t *testing.T) {
	handler := NewHTTPHandler(NewService(seededProperties(t, 1), 2, zaptest.NewLogger(t)))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/properties/export?format=xlsx", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, FormatXLSX.ContentType(), rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestHandlerExportRejections(t *testing.T) {
	handler := NewHTTPHandler(NewService(seededProperties(t, 1), 2, zaptest.NewLogger(t)))

	tests := []struct {
		name    string
		method  string
		target  string
		status  int
		message string
	}{
		{"wrong method", http.MethodPost, "/api/properties/export", http.StatusMethodNotAllowed, "Method not allowed"},
		{"unknown format", http.MethodGet, "/api/properties/export?format=pdf", http.StatusBadRequest, "Unsupported export format, expected csv or xlsx"},
		{"bad number", http.MethodGet, "/api/properties/export?minPrice=abc", http.StatusBadRequest, "Validation error"},
		{"bad sort", http.MethodGet, "/api/properties/export?sort=colour", http.StatusBadRequest, "Validation error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.target, nil))

			require.Equal(t, tt.status, rr.Code)
			var body respond.ErrorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Message)
		})
	}
}
