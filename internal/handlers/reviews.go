package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rdine/go-storefront/internal/metrics"
	"github.com/rdine/go-storefront/internal/store"
)

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// SubmitReview handles POST /products/:id/review. A user holds at most one
// review per product: the first submission creates it, later submissions
// overwrite it, and the response message tells the caller which happened.
func (h *Handlers) SubmitReview(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	review, created, err := store.UpsertReview(c.Request.Context(), h.db, *currentUserID(c), productID, req.Rating, req.Comment)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if created {
		metrics.ReviewsSubmitted.WithLabelValues("created").Inc()
		c.JSON(http.StatusCreated, gin.H{"message": "Review submitted!", "review": review})
		return
	}

	metrics.ReviewsSubmitted.WithLabelValues("updated").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Review updated!", "review": review})
}
