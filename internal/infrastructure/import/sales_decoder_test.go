package csvimport

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "SaleDate,Barcode,ItemName,QuantitySold,UnitPrice\n" +
	"2026-08-20,4006381333931,Ballpoint Pen,2,1.50\n" +
	"2026-08-20,5901234123457,Notebook,1,3.25\n"

func TestDecodePayload(t *testing.T) {
	t.Run("decodes base64 payload", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte(sampleCSV))
		data, err := DecodePayload(encoded)
		require.NoError(t, err)
		assert.Equal(t, []byte(sampleCSV), data)
	})

	t.Run("falls back to raw text", func(t *testing.T) {
		data, err := DecodePayload(sampleCSV)
		require.NoError(t, err)
		assert.Equal(t, []byte(sampleCSV), data)
	})

	t.Run("rejects empty payload", func(t *testing.T) {
		data, err := DecodePayload("   ")
		assert.Nil(t, data)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("decoding is deterministic", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte(sampleCSV))
		first, err := DecodePayload(encoded)
		require.NoError(t, err)
		second, err := DecodePayload(encoded)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestParseSalesRows(t *testing.T) {
	t.Run("parses all rows with canonical headers", func(t *testing.T) {
		result, err := ParseSalesRows([]byte(sampleCSV))
		require.NoError(t, err)
		require.Len(t, result.Rows, 2)
		assert.False(t, result.Dropped.HasErrors())

		first := result.Rows[0]
		assert.Equal(t, 1, first.LineNumber)
		assert.Equal(t, "4006381333931", first.Barcode)
		assert.Equal(t, "Ballpoint Pen", first.ItemName)
		assert.True(t, first.Quantity.Equal(decimal.NewFromInt(2)))
		require.NotNil(t, first.UnitPrice)
		assert.True(t, first.UnitPrice.Equal(decimal.NewFromFloat(1.5)))
		assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), first.SaleDate)
	})

	t.Run("accepts alternate header spellings", func(t *testing.T) {
		csv := "Transaction Date,Product Code,Description,Qty,Amount\n" +
			"2026/08/20,ABC-1,Pen,3,2\n"
		result, err := ParseSalesRows([]byte(csv))
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.Equal(t, "ABC-1", result.Rows[0].Barcode)
		assert.Equal(t, "Pen", result.Rows[0].ItemName)
		require.NotNil(t, result.Rows[0].UnitPrice)
	})

	t.Run("header matching ignores case", func(t *testing.T) {
		csv := "SALEDATE,barcode,QUANTITYSOLD\n2026-08-20,abc,1\n"
		result, err := ParseSalesRows([]byte(csv))
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
	})

	t.Run("name and price are optional columns", func(t *testing.T) {
		csv := "Date,ItemCode,Quantity\n2026-08-20,abc,4\n"
		result, err := ParseSalesRows([]byte(csv))
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.Empty(t, result.Rows[0].ItemName)
		assert.Nil(t, result.Rows[0].UnitPrice)
	})

	t.Run("fails without a barcode column", func(t *testing.T) {
		csv := "Date,Quantity\n2026-08-20,1\n"
		result, err := ParseSalesRows([]byte(csv))
		assert.Nil(t, result)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingHeader)
		assert.Contains(t, err.Error(), "barcode")
	})

	t.Run("fails without data rows", func(t *testing.T) {
		csv := "Date,Barcode,Quantity\n"
		result, err := ParseSalesRows([]byte(csv))
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrNoDataRows)
	})

	t.Run("drops rows with bad fields but keeps the rest", func(t *testing.T) {
		csv := "Date,Barcode,Quantity\n" +
			"2026-08-20,abc,1\n" +
			"not-a-date,def,1\n" +
			"2026-08-20,,1\n" +
			"2026-08-20,ghi,zero\n" +
			"2026-08-20,jkl,-2\n" +
			"2026-08-20,mno,5\n"
		result, err := ParseSalesRows([]byte(csv))
		require.NoError(t, err)

		require.Len(t, result.Rows, 2)
		assert.Equal(t, "abc", result.Rows[0].Barcode)
		assert.Equal(t, "mno", result.Rows[1].Barcode)
		// Line numbers keep file order, including dropped rows.
		assert.Equal(t, 1, result.Rows[0].LineNumber)
		assert.Equal(t, 6, result.Rows[1].LineNumber)
		assert.Equal(t, 4, result.Dropped.TotalCount())
	})

	t.Run("unparseable price is treated as absent", func(t *testing.T) {
		csv := "Date,Barcode,Quantity,Price\n2026-08-20,abc,1,free\n"
		result, err := ParseSalesRows([]byte(csv))
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.Nil(t, result.Rows[0].UnitPrice)
	})

	t.Run("same payload parses identically twice", func(t *testing.T) {
		first, err := ParseSalesRows([]byte(sampleCSV))
		require.NoError(t, err)
		second, err := ParseSalesRows([]byte(sampleCSV))
		require.NoError(t, err)
		assert.Equal(t, first.Rows, second.Rows)
	})
}
