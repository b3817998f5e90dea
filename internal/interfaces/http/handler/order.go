package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cartapp "github.com/storefront/backend/internal/application/cart"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader lets clients retry a checkout without placing a second order
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderUseCases is the part of the order service the handler needs
type OrderUseCases interface {
	Checkout(ctx context.Context, owner cartapp.Owner, req orderapp.CheckoutRequest) (*orderapp.OrderResponse, error)
	Get(ctx context.Context, viewer orderapp.Viewer, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	GetByNumber(ctx context.Context, viewer orderapp.Viewer, orderNumber string) (*orderapp.OrderResponse, error)
	List(ctx context.Context, viewer orderapp.Viewer, filter orderapp.OrderListFilter) (*shared.Paginated[orderapp.OrderResponse], error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req orderapp.UpdateStatusRequest) (*orderapp.OrderResponse, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
}

// OrderHandler handles checkout and order endpoints
type OrderHandler struct {
	BaseHandler
	orderService OrderUseCases
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService OrderUseCases) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func viewerOf(c *gin.Context) orderapp.Viewer {
	return orderapp.Viewer{UserID: middleware.ViewerUserID(c), IsAdmin: middleware.IsAdmin(c)}
}

// Checkout godoc
// @Summary      Place an order from the cart
// @Description  Places an order from the caller's cart. A replayed submission answers 200 with the original order instead of 201.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token header string true "Anti-forgery token from /csrf-token"
// @Param        Idempotency-Key header string false "Client key that makes retries safe" maxlength(255)
// @Param        request body orderapp.CheckoutRequest true "Checkout request"
// @Success      201 {object} dto.Response{data=orderapp.OrderResponse}
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse} "Replayed submission"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	owner := cartapp.Owner{
		UserID:    middleware.ViewerUserID(c),
		SessionID: middleware.GetCartSessionID(c),
	}
	if owner.UserID == nil && owner.SessionID == "" {
		h.BadRequest(c, "Missing cart session")
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > orderapp.MaxIdempotencyKeyLength {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Idempotency-Key is too long")
		return
	}

	var req orderapp.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.IdempotencyKey = key

	order, err := h.orderService.Checkout(c.Request.Context(), owner, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if order.Replayed {
		c.Header("Idempotent-Replayed", "true")
		h.Success(c, order)
		return
	}
	h.Created(c, order)
}

// List godoc
// @Summary      List orders
// @Description  Returns the caller's orders, or all orders for administrators
// @Tags         orders
// @Produce      json
// @Param        search query string false "Order number or email"
// @Param        status query string false "Order status" Enums(pending, paid, shipped, delivered, cancelled)
// @Param        page query int false "Page number" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Param        orderBy query string false "Order by field"
// @Param        orderDir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter orderapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.orderService.List(c.Request.Context(), viewerOf(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// GetByID godoc
// @Summary      Get order by ID
// @Description  Returns one order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), viewerOf(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetByNumber godoc
// @Summary      Get order by number
// @Description  Returns one order by its human-readable number
// @Tags         orders
// @Produce      json
// @Param        orderNumber path string true "Order number" example(ORD-2026-00001)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/by-number/{orderNumber} [get]
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	number := c.Param("orderNumber")
	if number == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	order, err := h.orderService.GetByNumber(c.Request.Context(), viewerOf(c), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// UpdateStatus godoc
// @Summary      Change an order status
// @Description  Moves an order to a new status
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.UpdateStatusRequest true "New status"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Delete godoc
// @Summary      Delete a cancelled order
// @Description  Removes an order
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
