package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// VariantInput describes a variant in create and update requests.
// On update, a variant with an ID edits the existing variant; one without
// is added; existing variants not listed are removed.
type VariantInput struct {
	ID    *uuid.UUID       `json:"id"`
	Name  string           `json:"name" binding:"required,min=1,max=100"`
	SKU   string           `json:"sku" binding:"omitempty,max=64"`
	Price *decimal.Decimal `json:"price"`
	Stock int              `json:"stock" binding:"min=0"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name           string           `json:"name" binding:"required,min=1,max=200"`
	Description    string           `json:"description" binding:"max=5000"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice"`
	SKU            string           `json:"sku" binding:"omitempty,max=64"`
	Stock          int              `json:"stock" binding:"min=0"`
	Status         string           `json:"status" binding:"omitempty,oneof=active draft archived"`
	Variants       []VariantInput   `json:"variants" binding:"omitempty,dive"`
}

// UpdateProductRequest represents a request to update a product.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description    *string          `json:"description" binding:"omitempty,max=5000"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice"`
	ClearCompareAt bool             `json:"clearCompareAtPrice"`
	SKU            *string          `json:"sku" binding:"omitempty,max=64"`
	Stock          *int             `json:"stock" binding:"omitempty,min=0"`
	Status         *string          `json:"status" binding:"omitempty,oneof=active draft archived"`
	Variants       *[]VariantInput  `json:"variants" binding:"omitempty,dive"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search   string           `form:"search"`
	Status   string           `form:"status" binding:"omitempty,oneof=active draft archived"`
	MinPrice *decimal.Decimal `form:"minPrice"`
	MaxPrice *decimal.Decimal `form:"maxPrice"`
	InStock  bool             `form:"inStock"`
	Page     int              `form:"page" binding:"omitempty,min=1"`
	PageSize int              `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy  string           `form:"orderBy"`
	OrderDir string           `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// ImageUploadRequest asks for a presigned image upload URL
type ImageUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// ConfirmImageRequest attaches an uploaded image to a product
type ConfirmImageRequest struct {
	Key string `json:"key" binding:"required,max=500"`
}

// ImageUploadResponse carries the presigned upload target
type ImageUploadResponse struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"key"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// VariantResponse represents a variant in API responses
type VariantResponse struct {
	ID    uuid.UUID        `json:"id"`
	Name  string           `json:"name"`
	SKU   string           `json:"sku,omitempty"`
	Price *decimal.Decimal `json:"price"`
	Stock int              `json:"stock"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Slug           string            `json:"slug"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	CompareAtPrice *decimal.Decimal  `json:"compareAtPrice"`
	SKU            string            `json:"sku"`
	Stock          int               `json:"stock"`
	InStock        bool              `json:"inStock"`
	Status         string            `json:"status"`
	ImageURL       *string           `json:"imageUrl"`
	Variants       []VariantResponse `json:"variants"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Version        int               `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse.
// imageURL is the resolved public URL of the product image, empty for none.
func ToProductResponse(p *catalog.Product, imageURL string) ProductResponse {
	variants := make([]VariantResponse, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = VariantResponse{
			ID:    v.ID,
			Name:  v.Name,
			SKU:   v.SKU,
			Price: v.Price,
			Stock: v.Stock,
		}
	}
	resp := ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		SKU:            p.SKU,
		Stock:          p.Stock,
		InStock:        p.InStock(),
		Status:         string(p.Status),
		Variants:       variants,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.Version,
	}
	if imageURL != "" {
		resp.ImageURL = &imageURL
	}
	return resp
}
