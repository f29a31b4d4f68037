package csvimport

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Accepted header spellings per logical sales field. Matching is
// case-insensitive; the table is static, resolved once per document.
var (
	saleDateAliases = []string{"SaleDate", "Date", "Transaction Date", "Sale Date"}
	barcodeAliases  = []string{"Barcode", "ItemCode", "Item Code", "Product Code"}
	itemNameAliases = []string{"ItemName", "Item Name", "Product Name", "Description"}
	quantityAliases = []string{"QuantitySold", "Quantity", "Qty", "Quantity Sold"}
	priceAliases    = []string{"UnitPrice", "Price", "Unit Price", "Amount"}
)

// Date layouts accepted for the sale date column
var saleDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
}

// DecodePayload turns a request payload into raw CSV bytes. The payload may
// be base64-encoded or plain text; base64 is attempted first and the input
// is used as-is when decoding fails.
func DecodePayload(payload string) ([]byte, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, ErrEmptyFile
	}

	if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload)); err == nil {
		return decoded, nil
	}

	return []byte(payload), nil
}

// SaleRow is one successfully parsed sales record from the CSV payload
type SaleRow struct {
	// LineNumber is the 1-based position among data rows
	LineNumber int
	SaleDate   time.Time
	Barcode    string
	ItemName   string
	Quantity   decimal.Decimal
	UnitPrice  *decimal.Decimal
}

// SalesParseResult carries the parsed rows plus the rows dropped at
// construction time. Dropped rows never join the parsed set and do not
// count toward import statistics.
type SalesParseResult struct {
	Rows    []SaleRow
	Dropped *ErrorCollection
}

// salesColumns holds the resolved column indexes for one document
type salesColumns struct {
	date     int
	barcode  int
	name     int // -1 when absent
	quantity int
	price    int // -1 when absent
}

// resolveSalesColumns maps the alias table onto the parsed header.
// Missing required columns are fatal for the whole document.
func resolveSalesColumns(p *CSVParser) (*salesColumns, error) {
	cols := &salesColumns{name: -1, price: -1}

	var ok bool
	if cols.date, ok = findColumn(p, saleDateAliases); !ok {
		return nil, missingColumnError("sale date", saleDateAliases)
	}
	if cols.barcode, ok = findColumn(p, barcodeAliases); !ok {
		return nil, missingColumnError("barcode", barcodeAliases)
	}
	if cols.quantity, ok = findColumn(p, quantityAliases); !ok {
		return nil, missingColumnError("quantity", quantityAliases)
	}
	if idx, found := findColumn(p, itemNameAliases); found {
		cols.name = idx
	}
	if idx, found := findColumn(p, priceAliases); found {
		cols.price = idx
	}

	return cols, nil
}

func findColumn(p *CSVParser, aliases []string) (int, bool) {
	for _, alias := range aliases {
		if idx, ok := p.GetColumnIndex(alias); ok {
			return idx, true
		}
	}
	return 0, false
}

func missingColumnError(field string, aliases []string) error {
	return fmt.Errorf("%w: no %s column found (accepted headers: %s)",
		ErrMissingHeader, field, strings.Join(aliases, ", "))
}

// ParseSalesRows parses a decoded CSV payload into sale rows. A structurally
// invalid document (bad encoding, missing required header, no data rows)
// returns an error; individual rows with unparseable fields are dropped into
// the result's error collection instead.
func ParseSalesRows(data []byte) (*SalesParseResult, error) {
	parser, err := ParseFromBytes(data)
	if err != nil {
		return nil, err
	}

	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}

	cols, err := resolveSalesColumns(parser)
	if err != nil {
		return nil, err
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	result := &SalesParseResult{
		Rows:    make([]SaleRow, 0, len(rows)),
		Dropped: NewErrorCollection(100),
	}

	for _, row := range rows {
		sale, rowErr := parseSaleRow(row, cols)
		if rowErr != nil {
			result.Dropped.Add(*rowErr)
			continue
		}
		result.Rows = append(result.Rows, *sale)
	}

	return result, nil
}

// parseSaleRow converts one CSV row into a SaleRow, returning a RowError
// when a required field cannot be parsed
func parseSaleRow(row *Row, cols *salesColumns) (*SaleRow, *RowError) {
	rawDate := row.Field(cols.date)
	if rawDate == "" {
		err := NewRowError(row.LineNumber, "sale date", ErrCodeImportRequiredField, "sale date is required")
		return nil, &err
	}
	saleDate, ok := parseSaleDate(rawDate)
	if !ok {
		err := NewRowErrorWithValue(row.LineNumber, "sale date", ErrCodeImportInvalidType, "expected date", rawDate)
		return nil, &err
	}

	barcode := row.Field(cols.barcode)
	if barcode == "" {
		err := NewRowError(row.LineNumber, "barcode", ErrCodeImportRequiredField, "barcode is required")
		return nil, &err
	}

	rawQuantity := row.Field(cols.quantity)
	quantity, qErr := decimal.NewFromString(rawQuantity)
	if qErr != nil {
		err := NewRowErrorWithValue(row.LineNumber, "quantity", ErrCodeImportInvalidType, "expected number", rawQuantity)
		return nil, &err
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		err := NewRowErrorWithValue(row.LineNumber, "quantity", ErrCodeImportInvalidType, "quantity must be positive", rawQuantity)
		return nil, &err
	}

	sale := &SaleRow{
		LineNumber: row.LineNumber,
		SaleDate:   saleDate,
		Barcode:    barcode,
		Quantity:   quantity,
	}

	if cols.name >= 0 {
		sale.ItemName = row.Field(cols.name)
	}

	// Unit price is optional and tolerant: an unparseable value is treated
	// as absent rather than dropping the row.
	if cols.price >= 0 {
		if rawPrice := row.Field(cols.price); rawPrice != "" {
			if price, pErr := decimal.NewFromString(rawPrice); pErr == nil && !price.IsNegative() {
				sale.UnitPrice = &price
			}
		}
	}

	return sale, nil
}

// parseSaleDate tries each accepted layout in order
func parseSaleDate(value string) (time.Time, bool) {
	for _, layout := range saleDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
