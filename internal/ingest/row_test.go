package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validFields() map[string]string {
	return map[string]string{
		"transaction_date": "2024-03-15 10:30:00",
		"product_id":       "42",
		"product_name":     "Espresso Beans",
		"category_id":      "7",
		"category_name":    "Coffee",
		"quantity":         "3",
		"unit_price":       "10.00",
		"total_price":      "30.00",
	}
}

func TestNormalizeRowParsesValidRow(t *testing.T) {
	row, err := NormalizeRow(validFields())
	require.NoError(t, err)

	require.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), row.Timestamp)
	require.NotNil(t, row.ProductID)
	require.Equal(t, int64(42), *row.ProductID)
	require.Equal(t, "Espresso Beans", row.ProductName)
	require.NotNil(t, row.CategoryID)
	require.Equal(t, int64(7), *row.CategoryID)
	require.Equal(t, "Coffee", row.CategoryName)
	require.Equal(t, int64(3), row.Quantity)
	require.Equal(t, 10.0, row.UnitPrice)
	require.Equal(t, 30.0, row.TotalPrice)
	require.False(t, row.TotalMismatch())
}

func TestNormalizeRowAcceptsDateOnly(t *testing.T) {
	fields := validFields()
	fields["transaction_date"] = "2024-03-15"

	row, err := NormalizeRow(fields)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), row.Timestamp)
}

func TestNormalizeRowMissingRequired(t *testing.T) {
	for _, column := range []string{"transaction_date", "product_name", "quantity", "unit_price", "total_price"} {
		fields := validFields()
		fields[column] = "  "

		_, err := NormalizeRow(fields)
		require.ErrorIs(t, err, ErrRowInvalid, column)
	}
}

func TestNormalizeRowOptionalIDsMayBeEmpty(t *testing.T) {
	fields := validFields()
	fields["product_id"] = ""
	fields["category_id"] = ""
	fields["category_name"] = ""

	row, err := NormalizeRow(fields)
	require.NoError(t, err)
	require.Nil(t, row.ProductID)
	require.Nil(t, row.CategoryID)
}

func TestNormalizeRowRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad date":          {"transaction_date": "15/03/2024"},
		"zero quantity":     {"quantity": "0"},
		"negative quantity": {"quantity": "-2"},
		"fractional qty":    {"quantity": "1.5"},
		"negative price":    {"unit_price": "-1.00"},
		"bad total":         {"total_price": "thirty"},
		"bad product id":    {"product_id": "-42"},
	}
	for name, overrides := range cases {
		fields := validFields()
		for k, v := range overrides {
			fields[k] = v
		}
		_, err := NormalizeRow(fields)
		require.ErrorIs(t, err, ErrRowInvalid, name)
	}
}

func TestTotalMismatch(t *testing.T) {
	row := Row{Quantity: 3, UnitPrice: 10, TotalPrice: 30.005}
	require.False(t, row.TotalMismatch())

	row.TotalPrice = 29.50
	require.True(t, row.TotalMismatch())
}
