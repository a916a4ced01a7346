package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rdine/go-storefront/internal/cart"
	"github.com/rdine/go-storefront/internal/config"
	"github.com/rdine/go-storefront/internal/database"
	"github.com/rdine/go-storefront/internal/session"
	"github.com/rdine/go-storefront/internal/store"
)

const (
	ctxSessionID = "session_id"
	ctxUserID    = "user_id"
)

type Handlers struct {
	db       *sql.DB
	carts    *cart.Store
	sessions *session.Store
	cfg      config.SessionConfig
}

func New(db *sql.DB, carts *cart.Store, sessions *session.Store, cfg config.SessionConfig) *Handlers {
	return &Handlers{
		db:       db,
		carts:    carts,
		sessions: sessions,
		cfg:      cfg,
	}
}

// Session issues a session cookie when the client has none and resolves
// the session's principal, if any, into the request context. Every route
// runs behind this.
func (h *Handlers) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(h.cfg.CookieName)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			c.SetCookie(h.cfg.CookieName, sid, int(h.cfg.TTL.Seconds()), "/", "", false, true)
		}
		c.Set(ctxSessionID, sid)

		userID, err := h.sessions.Current(c.Request.Context(), sid)
		if err != nil {
			slog.Warn("session lookup failed", "error", err)
		} else if userID != nil {
			c.Set(ctxUserID, *userID)
		}

		c.Next()
	}
}

// RequireUser rejects anonymous requests.
func (h *Handlers) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUserID); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests whose principal lacks the admin role.
func (h *Handlers) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)
		if userID == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}

		user, err := store.GetUser(c.Request.Context(), h.db, *userID)
		if err != nil {
			h.handleError(c, err)
			c.Abort()
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

// currentUserID returns the acting principal, or nil for a guest session.
func currentUserID(c *gin.Context) *int64 {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return nil
	}
	id := v.(int64)
	return &id
}

// handleError maps domain errors onto HTTP statuses at the request
// boundary. Nothing here is fatal to the process.
func (h *Handlers) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty."})
	case errors.Is(err, database.ErrInvalidRating),
		errors.Is(err, database.ErrEmailTaken):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
}
