package persistence

import (
	"context"
	"errors"

	"github.com/erp/salesimport/internal/domain/salesimport"
	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSalesImportRepository implements SalesImportRepository using GORM
type GormSalesImportRepository struct {
	db *gorm.DB
}

// NewGormSalesImportRepository creates a new GormSalesImportRepository
func NewGormSalesImportRepository(db *gorm.DB) *GormSalesImportRepository {
	return &GormSalesImportRepository{db: db}
}

// FindByID finds an import by its ID, without items
func (r *GormSalesImportRepository) FindByID(ctx context.Context, id uuid.UUID) (*salesimport.SalesImport, error) {
	var imp salesimport.SalesImport
	if err := r.db.WithContext(ctx).First(&imp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &imp, nil
}

// FindByIDWithItems finds an import by its ID with items preloaded in
// line-number order
func (r *GormSalesImportRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*salesimport.SalesImport, error) {
	var imp salesimport.SalesImport
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		First(&imp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &imp, nil
}

// FindByImportNumber finds an import by its unique import number
func (r *GormSalesImportRepository) FindByImportNumber(ctx context.Context, importNumber string) (*salesimport.SalesImport, error) {
	var imp salesimport.SalesImport
	if err := r.db.WithContext(ctx).
		Where("import_number = ?", importNumber).
		First(&imp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &imp, nil
}

// FindAll finds imports matching the filter
func (r *GormSalesImportRepository) FindAll(ctx context.Context, filter shared.Filter) ([]salesimport.SalesImport, error) {
	var imports []salesimport.SalesImport
	query := r.applyFilter(r.db.WithContext(ctx).Model(&salesimport.SalesImport{}), filter)

	if err := query.Find(&imports).Error; err != nil {
		return nil, err
	}
	return imports, nil
}

// Save creates or updates an import together with its items
func (r *GormSalesImportRepository) Save(ctx context.Context, imp *salesimport.SalesImport) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(imp).Error
}

// Count counts imports matching the filter
func (r *GormSalesImportRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&salesimport.SalesImport{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByImportNumber checks whether an import number is already used
func (r *GormSalesImportRepository) ExistsByImportNumber(ctx context.Context, importNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&salesimport.SalesImport{}).
		Where("import_number = ?", importNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormSalesImportRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if field := ValidateSortField(filter.OrderBy, SalesImportSortFields, ""); field != "" {
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("import_date DESC, import_number DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSalesImportRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("import_number ILIKE ? OR file_name ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "is_reversed":
			query = query.Where("is_reversed = ?", value)
		}
	}

	return query
}

// Ensure GormSalesImportRepository implements SalesImportRepository
var _ salesimport.SalesImportRepository = (*GormSalesImportRepository)(nil)
