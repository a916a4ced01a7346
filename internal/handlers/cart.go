package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rdine/go-storefront/internal/metrics"
	"github.com/rdine/go-storefront/internal/store"
)

type cartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// GetCart handles GET /cart: the session cart re-joined with current
// catalog prices, titles and images, plus per-entry subtotals and a total.
func (h *Handlers) GetCart(c *gin.Context) {
	sessionCart, err := h.carts.Get(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	view, err := store.BuildCartView(c.Request.Context(), h.db, sessionCart)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// AddToCart handles POST /cart/add. The product must exist in the catalog;
// its current price is captured into the new entry.
func (h *Handlers) AddToCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	product, err := store.GetProduct(c.Request.Context(), h.db, req.ProductID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	err = h.carts.Add(c.Request.Context(), sessionID(c), product.ID, req.Quantity, product.Price)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product added to cart successfully!"})
}

// UpdateCart handles POST /cart/update. Setting the quantity of a product
// that is not in the cart is a silent no-op.
func (h *Handlers) UpdateCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.carts.SetQuantity(c.Request.Context(), sessionID(c), req.ProductID, req.Quantity)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart updated successfully!"})
}

// RemoveFromCart handles DELETE /cart/remove/:id.
func (h *Handlers) RemoveFromCart(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := h.carts.Remove(c.Request.Context(), sessionID(c), productID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart!"})
}

// ClearCart handles POST /cart/clear.
func (h *Handlers) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), sessionID(c)); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully!"})
}

// Checkout handles POST /cart/checkout: materializes the session cart into
// an order and clears the cart. Guests may check out; the order is then
// unowned.
func (h *Handlers) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(c)

	sessionCart, err := h.carts.Get(ctx, sid)
	if err != nil {
		h.handleError(c, err)
		return
	}

	order, err := store.Checkout(ctx, h.db, currentUserID(c), sessionCart)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if err := h.carts.Clear(ctx, sid); err != nil {
		// The order is already committed; a failed clear only leaves a
		// stale cart behind until its TTL reaps it.
		slog.Warn("clear cart after checkout failed", "session_id", sid, "error", err)
	}

	metrics.OrdersCreated.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Order placed successfully!",
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_price":  order.TotalPrice,
	})
}
