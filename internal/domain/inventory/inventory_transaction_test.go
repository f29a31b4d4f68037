package inventory

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInventoryTransaction(t *testing.T) {
	itemID := uuid.New()
	warehouseID := uuid.New()

	t.Run("creates OUT transaction with valid input", func(t *testing.T) {
		tx, err := NewInventoryTransaction(
			"SALE-POS-001-1", itemID, warehouseID,
			TransactionTypeOut, SourceTypePOSSale,
			decimal.NewFromInt(3), decimal.NewFromFloat(1.5), decimal.NewFromInt(10),
		)
		require.NoError(t, err)
		require.NotNil(t, tx)

		assert.Equal(t, "SALE-POS-001-1", tx.TransactionNumber)
		assert.Equal(t, TransactionTypeOut, tx.Type)
		assert.Equal(t, SourceTypePOSSale, tx.SourceType)
		assert.True(t, tx.TotalCost.Equal(decimal.NewFromFloat(4.5)))
		assert.True(t, tx.QuantityBefore.Equal(decimal.NewFromInt(10)))
		assert.False(t, tx.IsApproved)
	})

	t.Run("fails with empty transaction number", func(t *testing.T) {
		tx, err := NewInventoryTransaction(
			"", itemID, warehouseID,
			TransactionTypeOut, SourceTypePOSSale,
			decimal.NewFromInt(1), decimal.Zero, decimal.Zero,
		)
		assert.Nil(t, tx)
		assert.Error(t, err)
	})

	t.Run("fails with transaction number too long", func(t *testing.T) {
		tx, err := NewInventoryTransaction(
			strings.Repeat("X", 101), itemID, warehouseID,
			TransactionTypeOut, SourceTypePOSSale,
			decimal.NewFromInt(1), decimal.Zero, decimal.Zero,
		)
		assert.Nil(t, tx)
		assert.Error(t, err)
	})

	t.Run("fails with nil item", func(t *testing.T) {
		tx, err := NewInventoryTransaction(
			"TX-1", uuid.Nil, warehouseID,
			TransactionTypeOut, SourceTypePOSSale,
			decimal.NewFromInt(1), decimal.Zero, decimal.Zero,
		)
		assert.Nil(t, tx)
		assert.Error(t, err)
	})

	t.Run("fails with invalid type", func(t *testing.T) {
		tx, err := NewInventoryTransaction(
			"TX-1", itemID, warehouseID,
			TransactionType("SIDEWAYS"), SourceTypePOSSale,
			decimal.NewFromInt(1), decimal.Zero, decimal.Zero,
		)
		assert.Nil(t, tx)
		assert.Error(t, err)
	})

	t.Run("fails with invalid source type", func(t *testing.T) {
		tx, err := NewInventoryTransaction(
			"TX-1", itemID, warehouseID,
			TransactionTypeOut, SourceType("UNKNOWN"),
			decimal.NewFromInt(1), decimal.Zero, decimal.Zero,
		)
		assert.Nil(t, tx)
		assert.Error(t, err)
	})

	t.Run("fails with zero quantity", func(t *testing.T) {
		tx, err := NewInventoryTransaction(
			"TX-1", itemID, warehouseID,
			TransactionTypeOut, SourceTypePOSSale,
			decimal.Zero, decimal.Zero, decimal.Zero,
		)
		assert.Nil(t, tx)
		assert.Error(t, err)
	})

	t.Run("fails with negative unit cost", func(t *testing.T) {
		tx, err := NewInventoryTransaction(
			"TX-1", itemID, warehouseID,
			TransactionTypeOut, SourceTypePOSSale,
			decimal.NewFromInt(1), decimal.NewFromInt(-1), decimal.Zero,
		)
		assert.Nil(t, tx)
		assert.Error(t, err)
	})
}

func TestInventoryTransactionDirection(t *testing.T) {
	itemID := uuid.New()
	warehouseID := uuid.New()

	out, err := CreateOutboundTransaction("TX-OUT", itemID, warehouseID,
		decimal.NewFromInt(5), decimal.NewFromInt(2), decimal.NewFromInt(3), SourceTypePOSSale)
	require.NoError(t, err)

	assert.True(t, out.IsOutbound())
	assert.True(t, out.GetSignedQuantity().Equal(decimal.NewFromInt(-5)))
	// Snapshot was 3 and 5 were sold: implied on-hand goes negative by policy.
	assert.True(t, out.QuantityAfter().Equal(decimal.NewFromInt(-2)))

	in, err := CreateInboundTransaction("TX-IN", itemID, warehouseID,
		decimal.NewFromInt(5), decimal.NewFromInt(2), decimal.NewFromInt(3), SourceTypePOSSaleReversal)
	require.NoError(t, err)

	assert.False(t, in.IsOutbound())
	assert.True(t, in.GetSignedQuantity().Equal(decimal.NewFromInt(5)))
	assert.True(t, in.QuantityAfter().Equal(decimal.NewFromInt(8)))
}

func TestInventoryTransactionFluentSetters(t *testing.T) {
	operatorID := uuid.New()
	saleDate := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	tx, err := CreateOutboundTransaction("SALE-POS-001-2", uuid.New(), uuid.New(),
		decimal.NewFromInt(1), decimal.Zero, decimal.Zero, SourceTypePOSSale)
	require.NoError(t, err)

	tx.WithNotes("POS Sale Import POS-001, Line 2").
		WithOperatorID(operatorID).
		WithTransactionDate(saleDate).
		Approve()

	assert.Equal(t, "POS Sale Import POS-001, Line 2", tx.Notes)
	require.NotNil(t, tx.OperatorID)
	assert.Equal(t, operatorID, *tx.OperatorID)
	assert.Equal(t, saleDate, tx.TransactionDate)
	assert.True(t, tx.IsApproved)
}

func TestInventoryTransactionNotesTruncated(t *testing.T) {
	tx, err := CreateOutboundTransaction("TX-1", uuid.New(), uuid.New(),
		decimal.NewFromInt(1), decimal.Zero, decimal.Zero, SourceTypePOSSale)
	require.NoError(t, err)

	tx.WithNotes(strings.Repeat("n", 600))
	assert.Len(t, tx.Notes, 500)

	tx.WithNotes(strings.Repeat("仕入メモ", 50))
	assert.True(t, utf8.ValidString(tx.Notes))
	assert.LessOrEqual(t, len(tx.Notes), 500)
}
