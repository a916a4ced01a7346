package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rdine/go-storefront/internal/cart"
	"github.com/rdine/go-storefront/internal/database"
	"github.com/rdine/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

// OrderSummary is one row of a user's order history listing.
type OrderSummary struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	CreatedAt   time.Time       `json:"created_at"`
	ItemsCount  int             `json:"items_count"`
}

// OrderLineView is a persisted line item joined with the product's current
// display fields. Title and image are re-read live, so a renamed or
// deleted product changes how historical orders render.
type OrderLineView struct {
	ItemID    int64           `json:"item_id"`
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderDetail is a full order as shown to its owner or an administrator.
type OrderDetail struct {
	ID           int64           `json:"id"`
	OrderNumber  string          `json:"order_number"`
	CustomerName string          `json:"customer_name,omitempty"`
	Status       string          `json:"status"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []OrderLineView `json:"items"`
}

func generateOrderNumber() string {
	return "ORD-" + uuid.NewString()
}

// Checkout converts a session cart into a persisted order.
//
// Every entry is repriced against the live catalog inside the transaction;
// the price captured at add-to-cart time is ignored. Entries whose product
// has vanished from the catalog are dropped from both the total and the
// line items. The order plus all of its line items commit atomically.
//
// The caller is responsible for clearing the session cart afterwards.
func Checkout(ctx context.Context, db *sql.DB, userID *int64, c cart.Cart) (*models.Order, error) {
	if c.IsEmpty() {
		return nil, database.ErrEmptyCart
	}

	ids := c.ProductIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		prices := make(map[int64]decimal.Decimal, len(ids))

		rows, err := tx.QueryContext(ctx,
			`SELECT id, price FROM products WHERE id = ANY($1)`,
			pq.Array(ids))
		if err != nil {
			return fmt.Errorf("read catalog prices: %w", err)
		}
		for rows.Next() {
			var id int64
			var price decimal.Decimal
			if err := rows.Scan(&id, &price); err != nil {
				rows.Close()
				return fmt.Errorf("scan price: %w", err)
			}
			prices[id] = price
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		total := decimal.Zero
		for _, id := range ids {
			price, ok := prices[id]
			if !ok {
				// Product removed from the catalog since it was added
				// to the cart; the order simply covers fewer items.
				continue
			}
			total = total.Add(price.Mul(decimal.NewFromInt(int64(c[id].Quantity))))
		}

		o := &models.Order{
			UserID:      userID,
			OrderNumber: generateOrderNumber(),
			Status:      models.OrderStatusPending,
			TotalPrice:  total,
		}

		var ownerID sql.NullInt64
		if userID != nil {
			ownerID = sql.NullInt64{Int64: *userID, Valid: true}
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, order_number, status, total_price, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 RETURNING id, created_at, updated_at`,
			ownerID, o.OrderNumber, o.Status, o.TotalPrice).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, id := range ids {
			price, ok := prices[id]
			if !ok {
				continue
			}

			item := models.OrderItem{
				OrderID:   o.ID,
				ProductID: id,
				Quantity:  c[id].Quantity,
				UnitPrice: price,
				Subtotal:  price.Mul(decimal.NewFromInt(int64(c[id].Quantity))),
			}

			err = tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal, created_at)
				 VALUES ($1, $2, $3, $4, $5, NOW())
				 RETURNING id, created_at`,
				item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal).
				Scan(&item.ID, &item.CreatedAt)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}

			o.Items = append(o.Items, item)
		}

		order = o
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrdersForUser returns the user's full order history, newest first,
// each order annotated with its line-item count.
func ListOrdersForUser(ctx context.Context, db *sql.DB, userID int64) ([]OrderSummary, error) {
	query := `
		SELECT o.id, o.order_number, o.status, o.total_price, o.created_at,
		       COUNT(i.id) AS items_count
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		WHERE o.user_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]OrderSummary, 0)
	for rows.Next() {
		var summary OrderSummary
		err := rows.Scan(
			&summary.ID,
			&summary.OrderNumber,
			&summary.Status,
			&summary.TotalPrice,
			&summary.CreatedAt,
			&summary.ItemsCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetOrderForUser fetches one order owned by the user. Orders belonging to
// anyone else are indistinguishable from missing ones.
func GetOrderForUser(ctx context.Context, db *sql.DB, userID, orderID int64) (*OrderDetail, error) {
	detail := &OrderDetail{}

	query := `
		SELECT id, order_number, status, total_price, created_at
		FROM orders
		WHERE id = $1 AND user_id = $2`

	err := db.QueryRowContext(ctx, query, orderID, userID).Scan(
		&detail.ID,
		&detail.OrderNumber,
		&detail.Status,
		&detail.TotalPrice,
		&detail.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := loadOrderLines(ctx, db, []int64{orderID})
	if err != nil {
		return nil, err
	}
	detail.Items = items[orderID]

	return detail, nil
}

// ListAllOrders is the administrative listing: every order regardless of
// owner, annotated with the customer name ("Guest" when unowned) and full
// line-item detail.
func ListAllOrders(ctx context.Context, db *sql.DB) ([]OrderDetail, error) {
	query := `
		SELECT o.id, o.order_number, COALESCE(u.name, 'Guest'), o.status, o.total_price, o.created_at
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC, o.id DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	defer rows.Close()

	orders := make([]OrderDetail, 0)
	orderIDs := make([]int64, 0)
	for rows.Next() {
		var detail OrderDetail
		err := rows.Scan(
			&detail.ID,
			&detail.OrderNumber,
			&detail.CustomerName,
			&detail.Status,
			&detail.TotalPrice,
			&detail.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, detail)
		orderIDs = append(orderIDs, detail.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	items, err := loadOrderLines(ctx, db, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

// GetOrderAdmin is GetOrderForUser without the ownership filter.
func GetOrderAdmin(ctx context.Context, db *sql.DB, orderID int64) (*OrderDetail, error) {
	detail := &OrderDetail{}

	query := `
		SELECT o.id, o.order_number, COALESCE(u.name, 'Guest'), o.status, o.total_price, o.created_at
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`

	err := db.QueryRowContext(ctx, query, orderID).Scan(
		&detail.ID,
		&detail.OrderNumber,
		&detail.CustomerName,
		&detail.Status,
		&detail.TotalPrice,
		&detail.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := loadOrderLines(ctx, db, []int64{orderID})
	if err != nil {
		return nil, err
	}
	detail.Items = items[orderID]

	return detail, nil
}

// loadOrderLines loads line items for the given orders, joined with the
// current product title and image. Deleted products yield empty display
// fields; the snapshotted quantity and unit price always survive.
func loadOrderLines(ctx context.Context, db *sql.DB, orderIDs []int64) (map[int64][]OrderLineView, error) {
	lines := make(map[int64][]OrderLineView, len(orderIDs))
	if len(orderIDs) == 0 {
		return lines, nil
	}

	query := `
		SELECT i.order_id, i.id, i.product_id, COALESCE(p.title, ''), COALESCE(p.image, ''),
		       i.quantity, i.unit_price, i.subtotal
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.order_id, i.id`

	rows, err := db.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var line OrderLineView
		err := rows.Scan(
			&orderID,
			&line.ItemID,
			&line.ProductID,
			&line.Title,
			&line.Image,
			&line.Quantity,
			&line.UnitPrice,
			&line.Subtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		lines[orderID] = append(lines[orderID], line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}
