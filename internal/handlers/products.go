package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rdine/go-storefront/internal/store"
)

// ListProducts handles GET /products: the storefront catalog with review
// counts and average ratings.
func (h *Handlers) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	result, err := store.ListProducts(c.Request.Context(), h.db, page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProduct handles GET /products/:id: the product plus its reviews.
func (h *Handlers) GetProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := store.GetProduct(c.Request.Context(), h.db, productID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	reviews, err := store.ListProductReviews(c.Request.Context(), h.db, productID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
		"reviews": reviews,
	})
}
