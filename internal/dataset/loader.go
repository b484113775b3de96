// forecast-go/internal/dataset/loader.go
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// PreviewRows is how many records a dataset summary shows.
const PreviewRows = 5

// LoadFile reads a .csv or .xlsx file from disk.
func LoadFile(path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	return Load(f, filepath.Base(path))
}

// Load parses r according to the extension of filename.
func Load(r io.Reader, filename string) (*domain.Dataset, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r, filename)
	case ".xlsx":
		return ParseXLSX(r, filename)
	default:
		return nil, &domain.DataError{
			Kind: domain.KindBadRequest,
			Msg:  fmt.Sprintf("unsupported file type %q, expected .csv or .xlsx", filepath.Ext(filename)),
		}
	}
}

// ParseCSV parses a CSV dataset with a header row.
func ParseCSV(r io.Reader, source string) (*domain.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &domain.DataError{Kind: domain.KindEmptyDataset, Msg: "dataset is empty"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		rows = append(rows, record)
	}

	return parseTable(header, rows, source)
}

// ParseXLSX parses the first sheet of an XLSX workbook.
func ParseXLSX(r io.Reader, source string) (*domain.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.DataError{Kind: domain.KindEmptyDataset, Msg: "xlsx file has no sheets"}
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	if len(all) == 0 {
		return nil, &domain.DataError{Kind: domain.KindEmptyDataset, Msg: "dataset is empty"}
	}

	return parseTable(all[0], all[1:], source)
}

func parseTable(header []string, rows [][]string, source string) (*domain.Dataset, error) {
	mapping, err := MapColumns(header)
	if err != nil {
		return nil, err
	}

	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, &domain.DataError{Kind: domain.KindEmptyDataset, Msg: "dataset has no data rows"}
	}

	cell := func(row []string, f Field) string {
		idx := mapping[f]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rawDates := make([]string, len(rows))
	for i, row := range rows {
		rawDates[i] = cell(row, FieldDate)
	}
	dates, err := parseDateColumn(rawDates)
	if err != nil {
		return nil, err
	}

	records := make([]domain.DemandRecord, len(rows))
	for i, row := range rows {
		product := cell(row, FieldProduct)
		if product == "" {
			return nil, &domain.DataError{
				Kind:   domain.KindMissingValue,
				Column: FieldProduct.String(),
				Row:    i + 1,
				Msg:    "dataset contains missing values",
			}
		}
		demand, err := parseQuantity(cell(row, FieldDemand), FieldDemand, i+1)
		if err != nil {
			return nil, err
		}
		inventory, err := parseQuantity(cell(row, FieldInventory), FieldInventory, i+1)
		if err != nil {
			return nil, err
		}
		records[i] = domain.DemandRecord{
			Date:      dates[i],
			Product:   product,
			Demand:    demand,
			Inventory: inventory,
		}
	}

	return build(records, source)
}

func parseQuantity(raw string, f Field, row int) (float64, error) {
	if raw == "" {
		return 0, &domain.DataError{
			Kind:   domain.KindMissingValue,
			Column: f.String(),
			Row:    row,
			Msg:    "dataset contains missing values",
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &domain.DataError{
			Kind:   domain.KindNonNumeric,
			Column: f.String(),
			Row:    row,
			Msg:    fmt.Sprintf("error converting numeric columns: %q is not a number", raw),
		}
	}
	if v < 0 {
		return 0, &domain.DataError{
			Kind:   domain.KindNegativeValue,
			Column: f.String(),
			Row:    row,
			Msg:    fmt.Sprintf("negative value %v", v),
		}
	}
	return v, nil
}

// FromRecords validates already-typed records and publishes them as a
// dataset snapshot. The input slice is copied.
func FromRecords(records []domain.DemandRecord, source string) (*domain.Dataset, error) {
	if len(records) == 0 {
		return nil, &domain.DataError{Kind: domain.KindEmptyDataset, Msg: "dataset has no data rows"}
	}

	out := make([]domain.DemandRecord, len(records))
	for i, r := range records {
		row := i + 1
		switch {
		case strings.TrimSpace(r.Product) == "":
			return nil, &domain.DataError{Kind: domain.KindMissingValue, Column: FieldProduct.String(), Row: row, Msg: "dataset contains missing values"}
		case r.Date.IsZero():
			return nil, &domain.DataError{Kind: domain.KindMissingValue, Column: FieldDate.String(), Row: row, Msg: "dataset contains missing values"}
		case math.IsNaN(r.Demand) || math.IsInf(r.Demand, 0):
			return nil, &domain.DataError{Kind: domain.KindNonNumeric, Column: FieldDemand.String(), Row: row, Msg: "demand is not a number"}
		case math.IsNaN(r.Inventory) || math.IsInf(r.Inventory, 0):
			return nil, &domain.DataError{Kind: domain.KindNonNumeric, Column: FieldInventory.String(), Row: row, Msg: "inventory is not a number"}
		case r.Demand < 0:
			return nil, &domain.DataError{Kind: domain.KindNegativeValue, Column: FieldDemand.String(), Row: row, Msg: "negative demand"}
		case r.Inventory < 0:
			return nil, &domain.DataError{Kind: domain.KindNegativeValue, Column: FieldInventory.String(), Row: row, Msg: "negative inventory"}
		}
		out[i] = domain.DemandRecord{
			Date:      calendarDate(r.Date),
			Product:   strings.TrimSpace(r.Product),
			Demand:    r.Demand,
			Inventory: r.Inventory,
		}
	}

	return build(out, source)
}

// build checks per-product row counts and publishes the snapshot. It takes
// ownership of records.
func build(records []domain.DemandRecord, source string) (*domain.Dataset, error) {
	counts := make(map[string]int)
	var products []string
	for _, r := range records {
		if counts[r.Product] == 0 {
			products = append(products, r.Product)
		}
		counts[r.Product]++
	}
	sort.Strings(products)

	for _, p := range products {
		if counts[p] < domain.MinRowsPerProduct {
			return nil, domain.InsufficientRowsError(p, counts[p])
		}
	}

	ds := &domain.Dataset{
		ID:          uuid.NewString(),
		Fingerprint: Fingerprint(records),
		Source:      source,
		Records:     records,
		Products:    products,
		LoadedAt:    time.Now().UTC(),
	}

	log.Info().
		Str("dataset", ds.ID).
		Str("source", source).
		Int("rows", len(records)).
		Int("products", len(products)).
		Msg("dataset loaded")

	return ds, nil
}

// Summarize describes a dataset with a short preview of its first rows.
func Summarize(ds *domain.Dataset) domain.DatasetSummary {
	n := PreviewRows
	if len(ds.Records) < n {
		n = len(ds.Records)
	}
	preview := make([]domain.DemandRecord, n)
	copy(preview, ds.Records[:n])

	products := make([]string, len(ds.Products))
	copy(products, ds.Products)

	return domain.DatasetSummary{
		DatasetID:   ds.ID,
		Fingerprint: ds.Fingerprint,
		Rows:        len(ds.Records),
		Products:    products,
		Preview:     preview,
	}
}

func dropBlankRows(rows [][]string) [][]string {
	var out [][]string
	for _, row := range rows {
		blank := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}
