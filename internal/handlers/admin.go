package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rdine/go-storefront/internal/store"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	Title       string  `json:"title" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Description string  `json:"description" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Image       string  `json:"image" binding:"required,url"`
}

func (r productRequest) toInput() store.ProductInput {
	return store.ProductInput{
		Title:       r.Title,
		Price:       decimal.NewFromFloat(r.Price),
		Description: r.Description,
		Category:    r.Category,
		Image:       r.Image,
	}
}

// AdminListOrders handles GET /admin/orders: every order with customer
// names and full line-item detail.
func (h *Handlers) AdminListOrders(c *gin.Context) {
	orders, err := store.ListAllOrders(c.Request.Context(), h.db)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// AdminGetOrder handles GET /admin/orders/:id without an ownership filter.
func (h *Handlers) AdminGetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := store.GetOrderAdmin(c.Request.Context(), h.db, orderID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// AdminCreateProduct handles POST /admin/products.
func (h *Handlers) AdminCreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	product, err := store.CreateProduct(c.Request.Context(), h.db, req.toInput())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": product})
}

// AdminUpdateProduct handles PUT /admin/products/:id.
func (h *Handlers) AdminUpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	product, err := store.UpdateProduct(c.Request.Context(), h.db, productID, req.toInput())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// AdminDeleteProduct handles DELETE /admin/products/:id. Existing order
// line items keep their snapshotted quantity and price; only live display
// joins lose the product.
func (h *Handlers) AdminDeleteProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := store.DeleteProduct(c.Request.Context(), h.db, productID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
