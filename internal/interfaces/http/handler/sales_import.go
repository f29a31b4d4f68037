package handler

import (
	"time"

	salesimportapp "github.com/erp/salesimport/internal/application/salesimport"
	"github.com/erp/salesimport/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// acceptedDateLayouts are the timestamp formats accepted for date fields.
// POS exports usually carry bare dates, API clients tend to send RFC3339.
var acceptedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

func parseDateField(value string) (time.Time, bool) {
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SalesImportHandler handles sales import API endpoints
type SalesImportHandler struct {
	BaseHandler
	importService *salesimportapp.SalesImportService
}

// NewSalesImportHandler creates a new SalesImportHandler
func NewSalesImportHandler(importService *salesimportapp.SalesImportService) *SalesImportHandler {
	return &SalesImportHandler{
		importService: importService,
	}
}

// Create registers a sales file and, unless auto_process is disabled,
// immediately reconciles it against the catalog and stock levels.
func (h *SalesImportHandler) Create(c *gin.Context) {
	var req CreateSalesImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	importDate, ok := parseDateField(req.ImportDate)
	if !ok {
		h.BadRequest(c, "Invalid import_date format, expected YYYY-MM-DD or RFC3339")
		return
	}
	periodFrom, ok := parseDateField(req.SalesPeriodFrom)
	if !ok {
		h.BadRequest(c, "Invalid sales_period_from format, expected YYYY-MM-DD or RFC3339")
		return
	}
	periodTo, ok := parseDateField(req.SalesPeriodTo)
	if !ok {
		h.BadRequest(c, "Invalid sales_period_to format, expected YYYY-MM-DD or RFC3339")
		return
	}

	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	// Acting user for audit trail (optional in development)
	userID, _ := getUserID(c)

	autoProcess := true
	if req.AutoProcess != nil {
		autoProcess = *req.AutoProcess
	}

	input := salesimportapp.CreateImportInput{
		ImportNumber:    req.ImportNumber,
		ImportDate:      importDate,
		SalesPeriodFrom: periodFrom,
		SalesPeriodTo:   periodTo,
		WarehouseID:     warehouseID,
		FileName:        req.FileName,
		CSVData:         req.CSVData,
		Notes:           req.Notes,
		AutoProcess:     autoProcess,
	}

	imp, err := h.importService.CreateImport(c.Request.Context(), input, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toSalesImportResponse(imp, true))
}

// List returns a paginated list of sales imports
func (h *SalesImportHandler) List(c *gin.Context) {
	var query SalesImportListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	filter := salesimportapp.ImportListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		Status:   query.Status,
		Search:   query.Search,
	}
	if query.WarehouseID != "" {
		warehouseID, err := uuid.Parse(query.WarehouseID)
		if err != nil {
			h.BadRequest(c, "Invalid warehouse ID format")
			return
		}
		filter.WarehouseID = &warehouseID
	}

	page, err := h.importService.ListImports(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]SalesImportResponse, 0, len(page.Items))
	for i := range page.Items {
		responses = append(responses, toSalesImportResponse(&page.Items[i], false))
	}

	h.SuccessWithMeta(c, responses, page.Total, query.Page, query.PageSize)
}

// GetByID returns a single sales import with its rows
func (h *SalesImportHandler) GetByID(c *gin.Context) {
	importID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid import ID format")
		return
	}

	imp, err := h.importService.GetImport(c.Request.Context(), importID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toSalesImportResponse(imp, true))
}

// ListErrors returns the failed rows of an import
func (h *SalesImportHandler) ListErrors(c *gin.Context) {
	importID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid import ID format")
		return
	}

	items, err := h.importService.ListErrors(c.Request.Context(), importID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]SalesImportErrorResponse, 0, len(items))
	for i := range items {
		responses = append(responses, toSalesImportErrorResponse(&items[i]))
	}

	h.Success(c, responses)
}

// Process reconciles a pending import against the catalog and posts
// outbound inventory transactions for matched rows
func (h *SalesImportHandler) Process(c *gin.Context) {
	importID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid import ID format")
		return
	}

	operatorID, _ := getUserID(c)

	imp, err := h.importService.Process(c.Request.Context(), importID, operatorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toSalesImportResponse(imp, true))
}

// Reverse posts compensating inbound transactions for every processed row
// of a completed import
func (h *SalesImportHandler) Reverse(c *gin.Context) {
	importID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid import ID format")
		return
	}

	var req ReverseSalesImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	operatorID, _ := getUserID(c)

	imp, err := h.importService.Reverse(c.Request.Context(), importID, req.Reason, operatorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toSalesImportResponse(imp, true))
}

// RegisterRoutes registers all sales import routes
func (h *SalesImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/sales-imports")
	{
		imports.POST("", h.Create)
		imports.GET("", h.List)
		imports.GET("/:id", h.GetByID)
		imports.GET("/:id/errors", h.ListErrors)
		imports.POST("/:id/process", h.Process)
		imports.POST("/:id/reverse", h.Reverse)
	}
}
