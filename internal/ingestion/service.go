package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/rpattn/propertyapi/internal/schema/validator"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyFile is returned when the upload has no header row.
	ErrEmptyFile = errors.New("file is empty")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

	requiredColumns = []string{"address", "price", "size"}
)

// Creator persists one validated property.
type Creator interface {
	Create(ctx context.Context, input domain.PropertyInput) (domain.Property, error)
}

// Service imports properties from tabular uploads.
type Service struct {
	creator   Creator
	validator *validator.PayloadValidator
	logger    *zap.Logger
}

// NewService creates a new ingestion service.
func NewService(creator Creator, v *validator.PayloadValidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{creator: creator, validator: v, logger: logger}
}

// Request describes the ingestion input.
type Request struct {
	FileName string
	Data     io.Reader
}

// RowError reports why a data row was skipped. RowNumber is 1-based and
// counts the header row.
type RowError struct {
	RowNumber int               `json:"rowNumber"`
	Errors    map[string]string `json:"errors"`
}

// Summary returns ingestion level metrics.
type Summary struct {
	TotalRows   int         `json:"totalRows"`
	CreatedRows int         `json:"createdRows"`
	InvalidRows int         `json:"invalidRows"`
	RowErrors   []RowError  `json:"rowErrors"`
	CreatedIDs  []uuid.UUID `json:"createdIds"`
}

type tableRow struct {
	number int
	cells  []string
}

type tableData struct {
	headers []string
	rows    []tableRow
}

// Import reads the uploaded file and creates one property per valid row.
// Invalid rows are reported in the summary and do not stop the import.
func (s *Service) Import(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{
		RowErrors:  []RowError{},
		CreatedIDs: []uuid.UUID{},
	}

	if req.Data == nil {
		return summary, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return summary, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return summary, ErrEmptyFile
	}

	table, err := parseTable(req.FileName, payload)
	if err != nil {
		return summary, err
	}

	columns, err := locateColumns(table.headers)
	if err != nil {
		return summary, err
	}

	summary.TotalRows = len(table.rows)
	for _, row := range table.rows {
		doc := rowDocument(row.cells, columns)

		input, err := s.validator.ValidateDocument(doc)
		if err == nil {
			var created domain.Property
			created, err = s.creator.Create(ctx, input)
			if err == nil {
				summary.CreatedRows++
				summary.CreatedIDs = append(summary.CreatedIDs, created.ID)
				continue
			}
		}

		fields, ok := rowFailure(err)
		if !ok {
			return summary, fmt.Errorf("row %d: %w", row.number, err)
		}
		summary.InvalidRows++
		summary.RowErrors = append(summary.RowErrors, RowError{RowNumber: row.number, Errors: fields})
	}

	s.logger.Info("property import finished",
		zap.String("file", req.FileName),
		zap.Int("total_rows", summary.TotalRows),
		zap.Int("created_rows", summary.CreatedRows),
		zap.Int("invalid_rows", summary.InvalidRows),
	)
	return summary, nil
}

// rowFailure turns per-row errors into field messages. Anything else aborts
// the import.
func rowFailure(err error) (map[string]string, bool) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	var ierr *domain.IntegrityError
	if errors.As(err, &ierr) {
		return map[string]string{"row": "Database integrity error: " + ierr.Detail}, true
	}
	return nil, false
}

// locateColumns maps each known column name to its index in the header.
func locateColumns(headers []string) (map[string]int, error) {
	columns := make(map[string]int)
	for idx, header := range headers {
		if _, seen := columns[header]; !seen {
			columns[header] = idx
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return columns, nil
}

// rowDocument builds the same document shape a JSON payload would decode to.
// Blank cells are left out; cells that do not parse as numbers stay strings
// so validation reports them.
func rowDocument(cells []string, columns map[string]int) map[string]any {
	doc := make(map[string]any)
	cell := func(name string) (string, bool) {
		idx, ok := columns[name]
		if !ok || idx >= len(cells) {
			return "", false
		}
		value := strings.TrimSpace(cells[idx])
		return value, value != ""
	}

	if v, ok := cell("address"); ok {
		doc["address"] = v
	}
	if v, ok := cell("price"); ok {
		doc["price"] = numberOrString(v, func(raw string) (string, bool) {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return "", false
			}
			return d.String(), true
		})
	}
	if v, ok := cell("size"); ok {
		doc["size"] = numberOrString(v, func(raw string) (string, bool) {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return "", false
			}
			return strconv.FormatFloat(f, 'f', -1, 64), true
		})
	}
	if v, ok := cell("description"); ok {
		doc["description"] = v
	}
	return doc
}

func numberOrString(raw string, parse func(string) (string, bool)) any {
	if canonical, ok := parse(raw); ok {
		return json.Number(canonical)
	}
	return raw
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return normalizeTable(rows)
}

// normalizeTable takes the first non-empty record as the header and keeps
// every later non-empty record with its 1-based record number.
func normalizeTable(records [][]string) (tableData, error) {
	var table tableData
	for idx, record := range records {
		if isBlankRow(record) {
			continue
		}
		if table.headers == nil {
			table.headers = sanitizeHeaders(record)
			continue
		}
		table.rows = append(table.rows, tableRow{
			number: idx + 1,
			cells:  padRow(record, len(table.headers)),
		})
	}

	if table.headers == nil {
		return tableData{}, ErrEmptyFile
	}
	return table, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for idx, value := range raw {
		name := strings.ToLower(strings.TrimSpace(value))
		name = strings.Trim(name, "\"'")
		headers[idx] = name
	}
	return headers
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
