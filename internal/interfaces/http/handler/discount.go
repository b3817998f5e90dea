package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// DiscountUseCases is the part of the discount service the handler needs
type DiscountUseCases interface {
	Create(ctx context.Context, req cartapp.CreateDiscountRequest) (*cartapp.DiscountResponse, error)
	List(ctx context.Context, filter cartapp.DiscountListFilter) (*shared.Paginated[cartapp.DiscountResponse], error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DiscountHandler manages discount codes for administrators
type DiscountHandler struct {
	BaseHandler
	discountService DiscountUseCases
}

// NewDiscountHandler creates a new DiscountHandler
func NewDiscountHandler(discountService DiscountUseCases) *DiscountHandler {
	return &DiscountHandler{discountService: discountService}
}

// Create godoc
// @Summary      Create a discount code
// @Description  Adds a discount code
// @Tags         admin-discounts
// @Accept       json
// @Produce      json
// @Param        request body cartapp.CreateDiscountRequest true "Discount code creation request"
// @Success      201 {object} dto.Response{data=cartapp.DiscountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/discounts [post]
func (h *DiscountHandler) Create(c *gin.Context) {
	var req cartapp.CreateDiscountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	discount, err := h.discountService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, discount)
}

// List godoc
// @Summary      List discount codes
// @Description  Returns a page of discount codes
// @Tags         admin-discounts
// @Produce      json
// @Param        search query string false "Code prefix"
// @Param        active query boolean false "Only active codes"
// @Param        page query int false "Page number" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]cartapp.DiscountResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/discounts [get]
func (h *DiscountHandler) List(c *gin.Context) {
	var filter cartapp.DiscountListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.discountService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Delete godoc
// @Summary      Delete a discount code
// @Description  Removes a discount code. Orders that used it keep their snapshot.
// @Tags         admin-discounts
// @Produce      json
// @Param        id path string true "Discount code ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/discounts/{id} [delete]
func (h *DiscountHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.discountService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
