// Package export streams filtered property listings as CSV or XLSX files.
package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/rpattn/propertyapi/internal/domain"
)

// Format names an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DefaultPageSize is the batch size used when none is configured.
const DefaultPageSize = 500

const sheetName = "Sheet1"

// ErrUnsupportedFormat is returned for formats other than csv and xlsx.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Columns is the header row of every export. Imports accept the same
// address, price, size and description columns.
var Columns = []string{"id", "address", "price", "size", "description", "createdAt", "updatedAt"}

// ParseFormat maps a query value to a Format. Blank means CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Searcher pages through properties matching a filter.
type Searcher interface {
	Search(ctx context.Context, filter domain.PropertyFilter, page domain.PageRequest) (domain.Page[domain.Property], error)
}

// Request describes one export.
type Request struct {
	Format Format
	Filter domain.PropertyFilter
	Sort   *domain.PropertySort
}

// Result reports what an export wrote.
type Result struct {
	Rows  int
	Bytes int64
}

// Service writes search results page by page so memory stays bounded by
// the page size.
type Service struct {
	searcher Searcher
	pageSize int
	logger   *zap.Logger
}

// NewService creates an export service. A pageSize below 1 uses
// DefaultPageSize.
func NewService(searcher Searcher, pageSize int, logger *zap.Logger) *Service {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{searcher: searcher, pageSize: pageSize, logger: logger}
}

// Export writes every property matching req to w. The first page is fetched
// before anything is written, so an early failure leaves w untouched.
func (s *Service) Export(ctx context.Context, w io.Writer, req Request) (Result, error) {
	format, err := ParseFormat(string(req.Format))
	if err != nil {
		return Result{}, err
	}

	pageReq := domain.PageRequest{Size: s.pageSize, Sort: req.Sort}
	page, err := s.searcher.Search(ctx, req.Filter, pageReq)
	if err != nil {
		return Result{}, fmt.Errorf("load export page 0: %w", err)
	}

	counter := &countingWriter{writer: w}
	rows, err := newRowWriter(format, counter)
	if err != nil {
		return Result{}, err
	}
	if err := rows.Write(Columns); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
	}

	exported := 0
	for {
		for _, p := range page.Items {
			if err := rows.WriteProperty(p); err != nil {
				return Result{Rows: exported, Bytes: counter.count}, fmt.Errorf("write row %d: %w", exported+1, err)
			}
			exported++
		}
		if err := rows.Flush(); err != nil {
			return Result{Rows: exported, Bytes: counter.count}, fmt.Errorf("flush rows: %w", err)
		}

		if len(page.Items) < s.pageSize || pageReq.Page+1 >= page.TotalPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return Result{Rows: exported, Bytes: counter.count}, err
		}
		pageReq.Page++
		page, err = s.searcher.Search(ctx, req.Filter, pageReq)
		if err != nil {
			return Result{Rows: exported, Bytes: counter.count}, fmt.Errorf("load export page %d: %w", pageReq.Page, err)
		}
	}

	if err := rows.Close(); err != nil {
		return Result{Rows: exported, Bytes: counter.count}, fmt.Errorf("finish export: %w", err)
	}

	s.logger.Info("export completed",
		zap.String("format", string(format)),
		zap.Int("rows", exported),
		zap.Int64("bytes", counter.count),
	)
	return Result{Rows: exported, Bytes: counter.count}, nil
}

type rowWriter interface {
	Write(cells []string) error
	WriteProperty(p domain.Property) error
	Flush() error
	Close() error
}

func newRowWriter(format Format, w io.Writer) (rowWriter, error) {
	if format == FormatXLSX {
		return newXLSXWriter(w)
	}
	buffered := bufio.NewWriterSize(w, 64<<10)
	return &csvWriter{buffered: buffered, csv: csv.NewWriter(buffered), row: make([]string, len(Columns))}, nil
}

type csvWriter struct {
	buffered *bufio.Writer
	csv      *csv.Writer
	row      []string
}

func (c *csvWriter) Write(cells []string) error {
	return c.csv.Write(cells)
}

func (c *csvWriter) WriteProperty(p domain.Property) error {
	c.row[0] = p.ID.String()
	c.row[1] = p.Address
	c.row[2] = p.Price.StringFixed(domain.PriceScale)
	c.row[3] = strconv.FormatFloat(p.Size, 'f', -1, 64)
	c.row[4] = ""
	if p.Description != nil {
		c.row[4] = *p.Description
	}
	c.row[5] = formatTime(p.CreatedAt)
	c.row[6] = formatTime(p.UpdatedAt)
	return c.csv.Write(c.row)
}

func (c *csvWriter) Flush() error {
	c.csv.Flush()
	if err := c.csv.Error(); err != nil {
		return err
	}
	return c.buffered.Flush()
}

func (c *csvWriter) Close() error {
	return c.Flush()
}

// xlsxWriter streams rows into a single sheet. The workbook is only
// serialized on Close.
type xlsxWriter struct {
	out    io.Writer
	file   *excelize.File
	stream *excelize.StreamWriter
	next   int
}

func newXLSXWriter(w io.Writer) (*xlsxWriter, error) {
	f := excelize.NewFile()
	stream, err := f.NewStreamWriter(sheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open sheet stream: %w", err)
	}
	return &xlsxWriter{out: w, file: f, stream: stream, next: 1}, nil
}

func (x *xlsxWriter) setRow(values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, x.next)
	if err != nil {
		return err
	}
	if err := x.stream.SetRow(cell, values); err != nil {
		return err
	}
	x.next++
	return nil
}

func (x *xlsxWriter) Write(cells []string) error {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return x.setRow(values)
}

func (x *xlsxWriter) WriteProperty(p domain.Property) error {
	description := ""
	if p.Description != nil {
		description = *p.Description
	}
	return x.setRow([]interface{}{
		p.ID.String(),
		p.Address,
		p.Price.StringFixed(domain.PriceScale),
		p.Size,
		description,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	})
}

func (x *xlsxWriter) Flush() error {
	return nil
}

func (x *xlsxWriter) Close() error {
	defer x.file.Close()
	if err := x.stream.Flush(); err != nil {
		return err
	}
	_, err := x.file.WriteTo(x.out)
	return err
}

type countingWriter struct {
	writer io.Writer
	count  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	c.count += int64(n)
	return n, err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
