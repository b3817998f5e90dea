package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the direction to ASC or DESC, defaulting to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, else defaultField.
// Only whitelisted names reach ORDER BY.
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	field := strings.TrimSpace(sortField)
	if field != "" && allowed[field] {
		return field
	}
	return defaultField
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"price":      true,
	"stock":      true,
	"sku":        true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"order_number": true,
	"total":        true,
	"status":       true,
}

// DiscountCodeSortFields contains allowed sort fields for discount codes
var DiscountCodeSortFields = map[string]bool{
	"created_at": true,
	"code":       true,
	"expires_at": true,
	"used_count": true,
}

// orderClause builds a safe ORDER BY clause.
func orderClause(field, dir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(field, allowed, defaultField) + " " + ValidateSortOrder(dir)
}
