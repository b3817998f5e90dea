package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	maxSlugAttempts  = 50
	maxListPageSize  = 100
	imageKeyPrefix   = "images/products/"
	defaultSortField = "created_at"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
	storage     ObjectStorage
	uploadTTL   time.Duration
	logger      *zap.Logger
}

// ProductServiceOption configures a ProductService
type ProductServiceOption func(*ProductService)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ProductServiceOption {
	return func(s *ProductService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUploadTTL sets how long presigned upload URLs stay valid
func WithUploadTTL(d time.Duration) ProductServiceOption {
	return func(s *ProductService) {
		s.uploadTTL = d
	}
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, storage ObjectStorage, opts ...ProductServiceOption) *ProductService {
	s := &ProductService{
		productRepo: productRepo,
		storage:     storage,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create creates a new product with a unique slug derived from its name
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Name, req.SKU, req.Price)
	if err != nil {
		return nil, err
	}

	if product.SKU != "" {
		if err := s.ensureSKUFree(ctx, product.SKU, nil); err != nil {
			return nil, err
		}
	}

	if req.Description != "" {
		if err := product.Update(product.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if req.CompareAtPrice != nil {
		if err := product.SetPricing(req.Price, req.CompareAtPrice); err != nil {
			return nil, err
		}
	}
	if err := product.SetStock(req.Stock); err != nil {
		return nil, err
	}
	if req.Status != "" {
		if err := product.SetStatus(catalog.ProductStatus(req.Status)); err != nil {
			return nil, err
		}
	}
	for _, v := range req.Variants {
		if _, err := product.AddVariant(v.Name, v.SKU, v.Price, v.Stock); err != nil {
			return nil, err
		}
	}

	if err := s.assignUniqueSlug(ctx, product); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("slug", product.Slug))

	return s.toResponse(product), nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(product), nil
}

// GetBySlug retrieves a product by slug. Shoppers only see active products.
func (s *ProductService) GetBySlug(ctx context.Context, slug string, includeHidden bool) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if !includeHidden && !product.IsActive() {
		return nil, shared.ErrNotFound
	}
	return s.toResponse(product), nil
}

// List returns a page of products. Unless includeHidden is set, only active
// products are listed regardless of the requested status.
func (s *ProductService) List(ctx context.Context, filter ProductListFilter, includeHidden bool) (*shared.Paginated[ProductResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}.Normalize(maxListPageSize)
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = defaultSortField
	}
	if domainFilter.OrderDir == "" {
		domainFilter.OrderDir = "desc"
	}

	switch {
	case !includeHidden:
		domainFilter.Filters[catalog.FilterStatus] = catalog.ProductStatusActive
	case filter.Status != "":
		domainFilter.Filters[catalog.FilterStatus] = filter.Status
	}
	if filter.MinPrice != nil {
		domainFilter.Filters[catalog.FilterMinPrice] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		domainFilter.Filters[catalog.FilterMaxPrice] = *filter.MaxPrice
	}
	if filter.InStock {
		domainFilter.Filters[catalog.FilterInStock] = true
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = *s.toResponse(&products[i])
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// Update updates a product. The slug is kept so existing links stay valid.
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name := product.Name
		if req.Name != nil {
			name = *req.Name
		}
		description := product.Description
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}

	if req.Price != nil || req.CompareAtPrice != nil || req.ClearCompareAt {
		price := product.Price
		if req.Price != nil {
			price = *req.Price
		}
		compareAt := product.CompareAtPrice
		if req.CompareAtPrice != nil {
			compareAt = req.CompareAtPrice
		}
		if req.ClearCompareAt {
			compareAt = nil
		}
		if err := product.SetPricing(price, compareAt); err != nil {
			return nil, err
		}
	}

	if req.SKU != nil {
		sku := strings.ToUpper(strings.TrimSpace(*req.SKU))
		if sku != "" && sku != product.SKU {
			if err := s.ensureSKUFree(ctx, sku, &product.ID); err != nil {
				return nil, err
			}
		}
		if err := product.SetSKU(sku); err != nil {
			return nil, err
		}
	}

	if req.Stock != nil {
		if err := product.SetStock(*req.Stock); err != nil {
			return nil, err
		}
	}

	if req.Status != nil {
		if err := product.SetStatus(catalog.ProductStatus(*req.Status)); err != nil {
			return nil, err
		}
	}

	if req.Variants != nil {
		if err := syncVariants(product, *req.Variants); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return s.toResponse(product), nil
}

// Delete deletes a product and its image
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, productID); err != nil {
		return err
	}
	s.deleteImage(ctx, product.ImageKey)
	s.logger.Info("product deleted", zap.String("product_id", productID.String()))
	return nil
}

// RequestImageUpload issues a presigned URL the client uploads the product
// image to. The image is attached by ConfirmImage once uploaded.
func (s *ProductService) RequestImageUpload(ctx context.Context, productID uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE",
			fmt.Sprintf("Unsupported image type %q", req.ContentType))
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s/%s.%s", imageKeyPrefix, productID, uuid.New(), ext)
	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.uploadTTL)
	if err != nil {
		return nil, fmt.Errorf("generate upload url: %w", err)
	}

	return &ImageUploadResponse{
		UploadURL: uploadURL,
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": contentType},
		Key:       key,
		ExpiresAt: expiresAt,
	}, nil
}

// ConfirmImage attaches an uploaded image to the product and removes the
// image it replaces
func (s *ProductService) ConfirmImage(ctx context.Context, productID uuid.UUID, req ConfirmImageRequest) (*ProductResponse, error) {
	prefix := imageKeyPrefix + productID.String() + "/"
	if !strings.HasPrefix(req.Key, prefix) || strings.Contains(req.Key, "..") {
		return nil, shared.NewDomainError("INVALID_IMAGE_KEY", "Image key does not belong to this product")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.ObjectExists(ctx, req.Key)
	if err != nil {
		return nil, fmt.Errorf("check uploaded image: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("IMAGE_NOT_UPLOADED", "Image has not been uploaded")
	}

	previous := product.ImageKey
	product.SetImageKey(req.Key)
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	if previous != "" && previous != req.Key {
		s.deleteImage(ctx, previous)
	}
	return s.toResponse(product), nil
}

// ImageURL resolves the public URL of an image key
func (s *ProductService) ImageURL(key string) string {
	if key == "" || s.storage == nil {
		return ""
	}
	return s.storage.ObjectURL(key)
}

func (s *ProductService) toResponse(p *catalog.Product) *ProductResponse {
	resp := ToProductResponse(p, s.ImageURL(p.ImageKey))
	return &resp
}

func (s *ProductService) deleteImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("failed to delete product image",
			zap.String("key", key),
			zap.Error(err))
	}
}

func (s *ProductService) ensureSKUFree(ctx context.Context, sku string, excludeID *uuid.UUID) error {
	exists, err := s.productRepo.ExistsBySKU(ctx, sku, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Product with this SKU already exists")
	}
	return nil
}

// assignUniqueSlug appends -2, -3... until the slug is free
func (s *ProductService) assignUniqueSlug(ctx context.Context, product *catalog.Product) error {
	for n := 1; n <= maxSlugAttempts; n++ {
		if n > 1 {
			product.WithSlugSuffix(n)
		}
		exists, err := s.productRepo.ExistsBySlug(ctx, product.Slug, &product.ID)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}
	}
	return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Could not generate a unique slug")
}

func syncVariants(product *catalog.Product, inputs []VariantInput) error {
	keep := make(map[uuid.UUID]bool, len(inputs))
	for _, in := range inputs {
		if in.ID != nil {
			keep[*in.ID] = true
		}
	}

	var removed []uuid.UUID
	for _, v := range product.Variants {
		if !keep[v.ID] {
			removed = append(removed, v.ID)
		}
	}
	for _, id := range removed {
		if err := product.RemoveVariant(id); err != nil {
			return err
		}
	}

	for _, in := range inputs {
		if in.ID == nil {
			if _, err := product.AddVariant(in.Name, in.SKU, in.Price, in.Stock); err != nil {
				return err
			}
			continue
		}
		if err := product.UpdateVariant(*in.ID, in.Name, in.SKU, in.Price, in.Stock); err != nil {
			return err
		}
	}
	return nil
}
