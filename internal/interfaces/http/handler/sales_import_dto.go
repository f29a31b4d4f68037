package handler

import (
	"time"

	"github.com/erp/salesimport/internal/domain/salesimport"
	"github.com/shopspring/decimal"
)

// CreateSalesImportRequest represents a request to register a new sales import
type CreateSalesImportRequest struct {
	ImportNumber    string `json:"import_number" binding:"required,min=1,max=100" example:"POS-2026-08-001"`
	ImportDate      string `json:"import_date" binding:"required" example:"2026-08-31"`
	SalesPeriodFrom string `json:"sales_period_from" binding:"required" example:"2026-08-01"`
	SalesPeriodTo   string `json:"sales_period_to" binding:"required" example:"2026-08-31"`
	WarehouseID     string `json:"warehouse_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	FileName        string `json:"file_name" binding:"required,min=1,max=255" example:"august_sales.csv"`
	CSVData         string `json:"csv_data" binding:"required" example:"U2FsZURhdGUsQmFyY29kZSxRdWFudGl0eVNvbGQ..."`
	Notes           string `json:"notes" binding:"max=1000" example:"Month-end POS export"`
	AutoProcess     *bool  `json:"auto_process" example:"true"`
}

// ReverseSalesImportRequest represents a request to reverse a completed import
type ReverseSalesImportRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Duplicate upload of August file"`
}

// SalesImportListQuery represents list query parameters
type SalesImportListQuery struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status      string `form:"status" binding:"omitempty,oneof=PENDING PROCESSING COMPLETED FAILED"`
	WarehouseID string `form:"warehouse_id" binding:"omitempty,uuid"`
	Search      string `form:"search"`
}

// SalesImportResponse represents a sales import in API responses
type SalesImportResponse struct {
	ID               string          `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ImportNumber     string          `json:"import_number" example:"POS-2026-08-001"`
	ImportDate       time.Time       `json:"import_date"`
	SalesPeriodFrom  time.Time       `json:"sales_period_from"`
	SalesPeriodTo    time.Time       `json:"sales_period_to"`
	WarehouseID      string          `json:"warehouse_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	FileName         string          `json:"file_name" example:"august_sales.csv"`
	Notes            string          `json:"notes,omitempty"`
	Status           string          `json:"status" example:"COMPLETED" enums:"PENDING,PROCESSING,COMPLETED,FAILED"`
	TotalRecords     int             `json:"total_records" example:"120"`
	ProcessedRecords int             `json:"processed_records" example:"118"`
	ErrorRecords     int             `json:"error_records" example:"2"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	TotalValue       decimal.Decimal `json:"total_value"`
	IsReversed       bool            `json:"is_reversed" example:"false"`
	ReversedAt       *time.Time      `json:"reversed_at,omitempty"`
	ReversalReason   string          `json:"reversal_reason,omitempty"`
	CreatedBy        string          `json:"created_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version" example:"1"`

	Items []SalesImportItemResponse `json:"items,omitempty"`
}

// SalesImportItemResponse represents one parsed sales row
type SalesImportItemResponse struct {
	ID                     string           `json:"id"`
	LineNumber             int              `json:"line_number" example:"1"`
	SaleDate               time.Time        `json:"sale_date"`
	Barcode                string           `json:"barcode" example:"6901234567890"`
	ItemName               string           `json:"item_name,omitempty"`
	QuantitySold           decimal.Decimal  `json:"quantity_sold"`
	UnitPrice              *decimal.Decimal `json:"unit_price,omitempty"`
	TotalAmount            decimal.Decimal  `json:"total_amount"`
	IsProcessed            bool             `json:"is_processed"`
	MatchedItemID          string           `json:"matched_item_id,omitempty"`
	InventoryTransactionID string           `json:"inventory_transaction_id,omitempty"`
	ErrorMessage           string           `json:"error_message,omitempty"`
}

// SalesImportErrorResponse represents one failed row of an import
type SalesImportErrorResponse struct {
	LineNumber   int             `json:"line_number" example:"7"`
	Barcode      string          `json:"barcode" example:"0000000000000"`
	ItemName     string          `json:"item_name,omitempty"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	ErrorMessage string          `json:"error_message" example:"no catalog item found for barcode '0000000000000'"`
}

// toSalesImportResponse maps the aggregate to its API shape, with items
// included only when withItems is set
func toSalesImportResponse(imp *salesimport.SalesImport, withItems bool) SalesImportResponse {
	resp := SalesImportResponse{
		ID:               imp.ID.String(),
		ImportNumber:     imp.ImportNumber,
		ImportDate:       imp.ImportDate,
		SalesPeriodFrom:  imp.SalesPeriodFrom,
		SalesPeriodTo:    imp.SalesPeriodTo,
		WarehouseID:      imp.WarehouseID.String(),
		FileName:         imp.FileName,
		Notes:            imp.Notes,
		Status:           imp.Status.String(),
		TotalRecords:     imp.TotalRecords,
		ProcessedRecords: imp.ProcessedRecords,
		ErrorRecords:     imp.ErrorRecords,
		TotalQuantity:    imp.TotalQuantity,
		TotalValue:       imp.TotalValue,
		IsReversed:       imp.IsReversed,
		ReversedAt:       imp.ReversedAt,
		ReversalReason:   imp.ReversalReason,
		CreatedAt:        imp.CreatedAt,
		UpdatedAt:        imp.UpdatedAt,
		Version:          imp.Version,
	}
	if imp.CreatedBy != nil {
		resp.CreatedBy = imp.CreatedBy.String()
	}
	if withItems {
		resp.Items = make([]SalesImportItemResponse, 0, len(imp.Items))
		for i := range imp.Items {
			resp.Items = append(resp.Items, toSalesImportItemResponse(&imp.Items[i]))
		}
	}
	return resp
}

func toSalesImportItemResponse(item *salesimport.SalesImportItem) SalesImportItemResponse {
	resp := SalesImportItemResponse{
		ID:           item.ID.String(),
		LineNumber:   item.LineNumber,
		SaleDate:     item.SaleDate,
		Barcode:      item.Barcode,
		ItemName:     item.ItemName,
		QuantitySold: item.QuantitySold,
		UnitPrice:    item.UnitPrice,
		TotalAmount:  item.TotalAmount,
		IsProcessed:  item.IsProcessed,
		ErrorMessage: item.ErrorMessage,
	}
	if item.MatchedItemID != nil {
		resp.MatchedItemID = item.MatchedItemID.String()
	}
	if item.InventoryTransactionID != nil {
		resp.InventoryTransactionID = item.InventoryTransactionID.String()
	}
	return resp
}

func toSalesImportErrorResponse(item *salesimport.SalesImportItem) SalesImportErrorResponse {
	return SalesImportErrorResponse{
		LineNumber:   item.LineNumber,
		Barcode:      item.Barcode,
		ItemName:     item.ItemName,
		QuantitySold: item.QuantitySold,
		ErrorMessage: item.ErrorMessage,
	}
}
