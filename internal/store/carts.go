package store

import (
	"context"
	"database/sql"
	"sort"

	"github.com/rdine/go-storefront/internal/cart"
	"github.com/shopspring/decimal"
)

// CartViewItem is one cart entry joined with the product's current catalog
// data. Price, and therefore subtotal, reflect the catalog at read time,
// not the price captured when the entry was added.
type CartViewItem struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	Items []CartViewItem  `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// BuildCartView resolves a session cart against the live catalog. Entries
// whose product has been removed from the catalog are silently skipped.
func BuildCartView(ctx context.Context, db *sql.DB, c cart.Cart) (*CartView, error) {
	view := &CartView{
		Items: make([]CartViewItem, 0, len(c)),
		Total: decimal.Zero,
	}

	products, err := GetProductsByIDs(ctx, db, c.ProductIDs())
	if err != nil {
		return nil, err
	}

	ids := c.ProductIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			continue
		}

		quantity := c[id].Quantity
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(quantity)))

		view.Items = append(view.Items, CartViewItem{
			ProductID: id,
			Title:     product.Title,
			Image:     product.Image,
			Price:     product.Price,
			Quantity:  quantity,
			Subtotal:  subtotal,
		})
		view.Total = view.Total.Add(subtotal)
	}

	return view, nil
}
