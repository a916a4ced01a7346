package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rdine/go-storefront/internal/store"
)

// ListOrders handles GET /orders: the principal's order history, newest
// first, with line-item counts.
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := store.ListOrdersForUser(c.Request.Context(), h.db, *currentUserID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder handles GET /orders/:id. Another principal's order is reported
// as not found.
func (h *Handlers) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := store.GetOrderForUser(c.Request.Context(), h.db, *currentUserID(c), orderID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
