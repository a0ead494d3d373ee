package ingestion

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/rpattn/propertyapi/internal/schema/validator"
)

func newTestService(t *testing.T, creator Creator) *Service {
	t.Helper()
	v, err := validator.New()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	return NewService(creator, v, zaptest.NewLogger(t))
}

func TestServiceImportCSV(t *testing.T) {
	creator := &stubCreator{}
	service := newTestService(t, creator)

	data := "\xEF\xBB\xBFAddress,Price,Size,Description\n" +
		"123 Main St,200000,1200,\n" +
		"456 Oak Ave,500000.50,2000,Main renovation\n" +
		",100,10,missing address\n" +
		"789 Pine Rd,cheap,-4,\n"

	summary, err := service.Import(context.Background(), Request{FileName: "listings.CSV", Data: strings.NewReader(data)})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if summary.TotalRows != 4 || summary.CreatedRows != 2 || summary.InvalidRows != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.CreatedIDs) != 2 {
		t.Fatalf("expected 2 created ids, got %v", summary.CreatedIDs)
	}

	if len(creator.created) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(creator.created))
	}
	first := creator.created[0]
	if first.Address != "123 Main St" || first.Price.String() != "200000" || first.Size != 1200 || first.Description != nil {
		t.Fatalf("unexpected first property: %+v", first)
	}
	second := creator.created[1]
	if second.Price.String() != "500000.5" || second.Description == nil || *second.Description != "Main renovation" {
		t.Fatalf("unexpected second property: %+v", second)
	}

	if len(summary.RowErrors) != 2 {
		t.Fatalf("expected 2 row errors, got %+v", summary.RowErrors)
	}
	if got := summary.RowErrors[0]; got.RowNumber != 4 || got.Errors["address"] != "Address is required" {
		t.Fatalf("unexpected row error: %+v", got)
	}
	if got := summary.RowErrors[1]; got.RowNumber != 5 ||
		got.Errors["price"] != "Price must be a number" ||
		got.Errors["size"] != "Size must be positive" {
		t.Fatalf("unexpected row error: %+v", got)
	}
}

func TestServiceImportXLSX(t *testing.T) {
	creator := &stubCreator{}
	service := newTestService(t, creator)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"size", "price", "address"},
		{75.5, 150000, "1 Harbour View"},
		{80, 0, "2 Harbour View"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	summary, err := service.Import(context.Background(), Request{FileName: "listings.xlsx", Data: bytes.NewReader(buf.Bytes())})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if summary.CreatedRows != 1 || summary.InvalidRows != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	created := creator.created[0]
	if created.Address != "1 Harbour View" || created.Size != 75.5 || created.Price.String() != "150000" {
		t.Fatalf("unexpected property: %+v", created)
	}
	if got := summary.RowErrors[0]; got.RowNumber != 3 || got.Errors["price"] != "Price must be positive" {
		t.Fatalf("unexpected row error: %+v", got)
	}
}

func TestServiceImportMissingColumn(t *testing.T) {
	service := newTestService(t, &stubCreator{})

	_, err := service.Import(context.Background(), Request{
		FileName: "listings.csv",
		Data:     strings.NewReader("address,description\n1 Main St,nice\n"),
	})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "price, size") {
		t.Fatalf("expected missing columns to be named, got %v", err)
	}
}

func TestServiceImportUnsupportedFormat(t *testing.T) {
	service := newTestService(t, &stubCreator{})

	_, err := service.Import(context.Background(), Request{FileName: "listings.json", Data: strings.NewReader("[]")})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestServiceImportEmptyFile(t *testing.T) {
	service := newTestService(t, &stubCreator{})

	for _, data := range []string{"", "\n\n , ,\n"} {
		_, err := service.Import(context.Background(), Request{FileName: "listings.csv", Data: strings.NewReader(data)})
		if !errors.Is(err, ErrEmptyFile) {
			t.Fatalf("expected ErrEmptyFile for %q, got %v", data, err)
		}
	}
}

func TestServiceImportReportsIntegrityErrorsPerRow(t *testing.T) {
	creator := &stubCreator{err: &domain.IntegrityError{Constraint: "properties_price_check", Detail: "price out of range"}}
	service := newTestService(t, creator)

	summary, err := service.Import(context.Background(), Request{
		FileName: "listings.csv",
		Data:     strings.NewReader("address,price,size\n1 Main St,100,10\n"),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if summary.InvalidRows != 1 || summary.RowErrors[0].Errors["row"] == "" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestServiceImportAbortsOnStorageFailure(t *testing.T) {
	creator := &stubCreator{err: errors.New("connection refused")}
	service := newTestService(t, creator)

	_, err := service.Import(context.Background(), Request{
		FileName: "listings.csv",
		Data:     strings.NewReader("address,price,size\n1 Main St,100,10\n"),
	})
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected row-scoped failure, got %v", err)
	}
}

type stubCreator struct {
	created []domain.PropertyInput
	err     error
}

func (s *stubCreator) Create(ctx context.Context, input domain.PropertyInput) (domain.Property, error) {
	if s.err != nil {
		return domain.Property{}, s.err
	}
	s.created = append(s.created, input)
	return domain.Property{ID: uuid.New(), Address: input.Address, Price: input.Price, Size: input.Size}, nil
}
