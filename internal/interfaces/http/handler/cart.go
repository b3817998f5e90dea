package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartUseCases is the part of the cart service the handler needs
type CartUseCases interface {
	Get(ctx context.Context, owner cartapp.Owner) (*cartapp.CartResponse, error)
	AddItem(ctx context.Context, owner cartapp.Owner, req cartapp.AddItemRequest) (*cartapp.CartResponse, error)
	UpdateItem(ctx context.Context, owner cartapp.Owner, itemID uuid.UUID, req cartapp.UpdateItemRequest) (*cartapp.CartResponse, error)
	RemoveItem(ctx context.Context, owner cartapp.Owner, itemID uuid.UUID) (*cartapp.CartResponse, error)
	Clear(ctx context.Context, owner cartapp.Owner) error
	ApplyDiscount(ctx context.Context, owner cartapp.Owner, req cartapp.ApplyDiscountRequest) (*cartapp.CartResponse, error)
	RemoveDiscount(ctx context.Context, owner cartapp.Owner) (*cartapp.CartResponse, error)
}

// CartHandler serves the shopper's cart. Every mutation answers with the
// full repriced cart so clients can replace their copy wholesale.
type CartHandler struct {
	BaseHandler
	cartService CartUseCases
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService CartUseCases) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// cartOwner resolves whose cart the request targets
func (h *CartHandler) cartOwner(c *gin.Context) (cartapp.Owner, bool) {
	owner := cartapp.Owner{
		UserID:    middleware.ViewerUserID(c),
		SessionID: middleware.GetCartSessionID(c),
	}
	if owner.UserID == nil && owner.SessionID == "" {
		h.BadRequest(c, "Missing cart session")
		return owner, false
	}
	return owner, true
}

// Get godoc
// @Summary      Get the current cart
// @Description  Returns the current cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	owner, ok := h.cartOwner(c)
	if !ok {
		return
	}
	cart, err := h.cartService.Get(c.Request.Context(), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// AddItem godoc
// @Summary      Add an item to the cart
// @Description  Adds a product or variant to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token header string true "Anti-forgery token from /csrf-token"
// @Param        request body cartapp.AddItemRequest true "Item to add"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, ok := h.cartOwner(c)
	if !ok {
		return
	}
	var req cartapp.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cart, err := h.cartService.AddItem(c.Request.Context(), owner, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// UpdateItem godoc
// @Summary      Change a cart line quantity
// @Description  Sets the quantity of a line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token header string true "Anti-forgery token from /csrf-token"
// @Param        id path string true "Cart item ID" format(uuid)
// @Param        request body cartapp.UpdateItemRequest true "New quantity, 0 removes the line"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items/{id} [patch]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	owner, ok := h.cartOwner(c)
	if !ok {
		return
	}
	itemID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req cartapp.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cart, err := h.cartService.UpdateItem(c.Request.Context(), owner, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveItem godoc
// @Summary      Remove a cart line
// @Description  Drops a line from the cart
// @Tags         cart
// @Produce      json
// @Param        X-CSRF-Token header string true "Anti-forgery token from /csrf-token"
// @Param        id path string true "Cart item ID" format(uuid)
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, ok := h.cartOwner(c)
	if !ok {
		return
	}
	itemID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	cart, err := h.cartService.RemoveItem(c.Request.Context(), owner, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Clear godoc
// @Summary      Empty the cart
// @Description  Empties the cart
// @Tags         cart
// @Produce      json
// @Param        X-CSRF-Token header string true "Anti-forgery token from /csrf-token"
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	owner, ok := h.cartOwner(c)
	if !ok {
		return
	}
	if err := h.cartService.Clear(c.Request.Context(), owner); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ApplyDiscount godoc
// @Summary      Apply a discount code
// @Description  Attaches a discount code to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token header string true "Anti-forgery token from /csrf-token"
// @Param        request body cartapp.ApplyDiscountRequest true "Discount code"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/discount [post]
func (h *CartHandler) ApplyDiscount(c *gin.Context) {
	owner, ok := h.cartOwner(c)
	if !ok {
		return
	}
	var req cartapp.ApplyDiscountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cart, err := h.cartService.ApplyDiscount(c.Request.Context(), owner, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveDiscount godoc
// @Summary      Remove the discount code
// @Description  Detaches the discount code
// @Tags         cart
// @Produce      json
// @Param        X-CSRF-Token header string true "Anti-forgery token from /csrf-token"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/discount [delete]
func (h *CartHandler) RemoveDiscount(c *gin.Context) {
	owner, ok := h.cartOwner(c)
	if !ok {
		return
	}
	cart, err := h.cartService.RemoveDiscount(c.Request.Context(), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}
