package restapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/innolab/crmd/internal/domain"
	"github.com/innolab/crmd/internal/webserver"
	"github.com/innolab/crmd/pkg/common"
)

type createProductPayload struct {
	Name          string  `json:"name" validate:"required,min=1,max=100"`
	Description   string  `json:"description" validate:"max=1000"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	Category      string  `json:"category" validate:"required,min=1,max=50"`
	StockQuantity int     `json:"stockQuantity" validate:"gte=0"`
	Sku           string  `json:"sku" validate:"max=50"`
}

type updateProductPayload struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description   *string  `json:"description" validate:"omitempty,max=1000"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0"`
	Category      *string  `json:"category" validate:"omitempty,min=1,max=50"`
	StockQuantity *int     `json:"stockQuantity" validate:"omitempty,gte=0"`
	Sku           *string  `json:"sku" validate:"omitempty,max=50"`
	IsActive      *bool    `json:"isActive"`
}

func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/search", searchProducts)
	webserver.ApiGET("/products/statistics", productStatistics)
	webserver.ApiGET("/products/category/:category", productsByCategory)
	webserver.ApiGET("/products/sku/:sku", getProductBySku)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

func resolveProducts(rows []domain.Product) []domain.Product {
	for i := range rows {
		rows[i].ResolveCreatedBy()
	}
	return rows
}

func listProducts(c echo.Context) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAGINATION", err.Error(), nil)
	}
	isActive, err := parseBoolParam(c, "isActive")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	db := GetDB(c).Model(&domain.Product{})
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" {
		db = db.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if isActive != nil {
		db = db.Where("is_active = ?", *isActive)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	rows := make([]domain.Product, 0)
	if err := db.Preload("CreatedByUser").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, resolveProducts(rows), total, page, pageSize)
}

func searchProducts(c echo.Context) error {
	q := c.QueryParam("q")
	if strings.TrimSpace(q) == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Search query is required", nil)
	}
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAGINATION", err.Error(), nil)
	}

	db := GetDB(c).Model(&domain.Product{}).Where("is_active = ?", true)
	pattern := containsPattern(q)
	db = db.Where(
		GetDB(c).Where(containsClause(db, "name"), pattern).
			Or(containsClause(db, "description"), pattern),
	)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search products", err.Error())
	}

	rows := make([]domain.Product, 0)
	if err := db.Preload("CreatedByUser").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search products", err.Error())
	}
	return searchPaged(c, resolveProducts(rows), total, page, pageSize, q)
}

func productsByCategory(c echo.Context) error {
	category := c.Param("category")
	rows := make([]domain.Product, 0)
	if err := GetDB(c).Preload("CreatedByUser").
		Where("LOWER(category) = ? AND is_active = ?", strings.ToLower(category), true).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return ok(c, resolveProducts(rows))
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Preload("CreatedByUser").Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", fmt.Sprintf("Product with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	p.ResolveCreatedBy()
	return ok(c, p)
}

func getProductBySku(c echo.Context) error {
	sku := c.Param("sku")
	var p domain.Product
	if err := GetDB(c).Preload("CreatedByUser").Where("sku = ?", sku).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", fmt.Sprintf("Product with SKU %s not found", sku), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	p.ResolveCreatedBy()
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var payload createProductPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Product validation failed", err.Error())
	}

	now := time.Now()
	p := domain.Product{
		ID:              common.UUIDint64(),
		Name:            strings.TrimSpace(payload.Name),
		Description:     payload.Description,
		Price:           payload.Price,
		Category:        strings.TrimSpace(payload.Category),
		StockQuantity:   payload.StockQuantity,
		Sku:             strings.TrimSpace(payload.Sku),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedByUserID: actingUserID(c),
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, http.StatusBadRequest, "DUPLICATE_SKU",
				fmt.Sprintf("Product with SKU %s already exists", p.Sku), nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	if p.CreatedByUserID != nil {
		var owner domain.User
		if err := GetDB(c).Where("id = ?", *p.CreatedByUserID).First(&owner).Error; err == nil {
			p.CreatedByUser = &owner
			p.ResolveCreatedBy()
		}
	}
	return created(c, fmt.Sprintf("/api/v1/products/%d", p.ID), p)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", fmt.Sprintf("Product with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}

	var payload updateProductPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Product validation failed", err.Error())
	}

	// Merge only the fields present in the payload.
	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.Price != nil {
		updates["price"] = *payload.Price
	}
	if payload.Category != nil {
		updates["category"] = strings.TrimSpace(*payload.Category)
	}
	if payload.StockQuantity != nil {
		updates["stock_quantity"] = *payload.StockQuantity
	}
	if payload.Sku != nil {
		updates["sku"] = strings.TrimSpace(*payload.Sku)
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}
	updates["updated_at"] = time.Now()

	if err := GetDB(c).Model(&p).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			sku := p.Sku
			if payload.Sku != nil {
				sku = strings.TrimSpace(*payload.Sku)
			}
			return fail(c, http.StatusBadRequest, "DUPLICATE_SKU",
				fmt.Sprintf("Product with SKU %s already exists", sku), nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}

	GetDB(c).Preload("CreatedByUser").Where("id = ?", id).First(&p)
	p.ResolveCreatedBy()
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", fmt.Sprintf("Product with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	if err := GetDB(c).Delete(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type categoryStat struct {
	Category     string  `json:"category"`
	Count        int64   `json:"count"`
	AveragePrice float64 `json:"averagePrice"`
}

// productStatistics aggregates in the store instead of materializing the
// full collection in the request path.
func productStatistics(c echo.Context) error {
	if err := requireV2(c); err != nil {
		return err
	}
	db := GetDB(c)

	var total, active int64
	if err := db.Model(&domain.Product{}).Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to aggregate products", err.Error())
	}
	db.Model(&domain.Product{}).Where("is_active = ?", true).Count(&active)

	categories := make([]categoryStat, 0)
	if err := db.Model(&domain.Product{}).
		Select("category, COUNT(*) AS count, AVG(price) AS average_price").
		Group("category").
		Order("count DESC").
		Scan(&categories).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to aggregate products", err.Error())
	}

	var totalValue float64
	db.Model(&domain.Product{}).
		Where("is_active = ?", true).
		Select("COALESCE(SUM(price * stock_quantity), 0)").
		Scan(&totalValue)

	return ok(c, map[string]interface{}{
		"totalProducts":    total,
		"activeProducts":   active,
		"inactiveProducts": total - active,
		"categories":       categories,
		"totalValue":       totalValue,
		"generatedAt":      time.Now().UTC(),
	})
}
