package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Input column names recognised by the normalizer. Extra columns are ignored.
const (
	colTransactionDate = "transaction_date"
	colProductID       = "product_id"
	colProductName     = "product_name"
	colCategoryID      = "category_id"
	colCategoryName    = "category_name"
	colQuantity        = "quantity"
	colUnitPrice       = "unit_price"
	colTotalPrice      = "total_price"
)

// ErrRowInvalid marks a row-level rejection. The batch continues.
var ErrRowInvalid = errors.New("row invalid")

var dateLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

// Row is one validated sales transaction parsed from the input.
type Row struct {
	Timestamp    time.Time
	ProductID    *int64
	ProductName  string
	CategoryID   *int64
	CategoryName string
	Quantity     int64
	UnitPrice    float64
	TotalPrice   float64
}

// NormalizeRow parses a header-keyed record into a Row or rejects it with a
// reason wrapped in ErrRowInvalid.
func NormalizeRow(fields map[string]string) (Row, error) {
	var row Row

	for _, required := range []string{colTransactionDate, colProductName, colQuantity, colUnitPrice, colTotalPrice} {
		if strings.TrimSpace(fields[required]) == "" {
			return Row{}, fmt.Errorf("%w: missing %s", ErrRowInvalid, required)
		}
	}

	ts, err := parseTimestamp(strings.TrimSpace(fields[colTransactionDate]))
	if err != nil {
		return Row{}, err
	}
	row.Timestamp = ts
	row.ProductName = strings.TrimSpace(fields[colProductName])
	row.CategoryName = strings.TrimSpace(fields[colCategoryName])

	row.ProductID, err = parseOptionalID(fields[colProductID], colProductID)
	if err != nil {
		return Row{}, err
	}
	row.CategoryID, err = parseOptionalID(fields[colCategoryID], colCategoryID)
	if err != nil {
		return Row{}, err
	}

	row.Quantity, err = parseQuantity(fields[colQuantity])
	if err != nil {
		return Row{}, err
	}
	row.UnitPrice, err = parsePrice(fields[colUnitPrice], colUnitPrice)
	if err != nil {
		return Row{}, err
	}
	row.TotalPrice, err = parsePrice(fields[colTotalPrice], colTotalPrice)
	if err != nil {
		return Row{}, err
	}

	return row, nil
}

// TotalMismatch reports whether the supplied total deviates from
// quantity*unit_price by more than one cent. The total is still trusted for
// aggregation; callers only use this for visibility.
func (r Row) TotalMismatch() bool {
	return math.Abs(r.TotalPrice-float64(r.Quantity)*r.UnitPrice) > 0.01
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable transaction_date %q", ErrRowInvalid, raw)
}

func parseOptionalID(raw, column string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: invalid %s %q", ErrRowInvalid, column, raw)
	}
	return &id, nil
}

func parseQuantity(raw string) (int64, error) {
	qty, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid quantity %q", ErrRowInvalid, raw)
	}
	if qty < 1 {
		return 0, fmt.Errorf("%w: quantity must be at least 1", ErrRowInvalid)
	}
	return qty, nil
}

func parsePrice(raw, column string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrRowInvalid, column, raw)
	}
	if price < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrRowInvalid, column)
	}
	return price, nil
}
