package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Allowed sort fields per table. Order expressions are built from user input,
// so anything not whitelisted here falls back to the repository default.

// SalesImportSortFields contains allowed sort fields for sales imports
var SalesImportSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"import_number":     true,
	"import_date":       true,
	"sales_period_from": true,
	"sales_period_to":   true,
	"status":            true,
	"total_records":     true,
	"processed_records": true,
	"error_records":     true,
	"total_quantity":    true,
	"total_value":       true,
}

// InventoryTransactionSortFields contains allowed sort fields for inventory transactions
var InventoryTransactionSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"transaction_number": true,
	"transaction_date":   true,
	"type":               true,
	"source_type":        true,
	"item_id":            true,
	"warehouse_id":       true,
	"quantity":           true,
	"unit_cost":          true,
	"total_cost":         true,
}

// ItemSortFields contains allowed sort fields for catalog items
var ItemSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"sku":           true,
	"barcode":       true,
	"name":          true,
	"status":        true,
	"cost":          true,
	"selling_price": true,
}

// WarehouseSortFields contains allowed sort fields for warehouses
var WarehouseSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"status":     true,
}

// StockLevelSortFields contains allowed sort fields for stock levels
var StockLevelSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"item_id":      true,
	"warehouse_id": true,
	"quantity":     true,
}
