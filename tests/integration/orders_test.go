package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/rdine/go-storefront/internal/cart"
	"github.com/rdine/go-storefront/internal/database"
	"github.com/rdine/go-storefront/internal/store"
	"github.com/shopspring/decimal"
)

func TestListOrdersForUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	product := createTestProduct(t, db, "Shared", decimal.RequireFromString("4.00"))

	for i := 0; i < 2; i++ {
		c := cart.Cart{}
		c.Add(product.ID, i+1, product.Price)
		if _, err := store.Checkout(ctx, db, &alice.ID, c); err != nil {
			t.Fatalf("Checkout for alice: %v", err)
		}
	}

	c := cart.Cart{}
	c.Add(product.ID, 5, product.Price)
	bobOrder, err := store.Checkout(ctx, db, &bob.ID, c)
	if err != nil {
		t.Fatalf("Checkout for bob: %v", err)
	}

	orders, err := store.ListOrdersForUser(ctx, db, alice.ID)
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}

	if len(orders) != 2 {
		t.Fatalf("Expected 2 orders for alice, got %d", len(orders))
	}
	for _, o := range orders {
		if o.ID == bobOrder.ID {
			t.Error("Alice's listing contains bob's order")
		}
		if o.ItemsCount != 1 {
			t.Errorf("Expected items_count 1, got %d", o.ItemsCount)
		}
	}
	// Newest first.
	if orders[0].CreatedAt.Before(orders[1].CreatedAt) {
		t.Error("Expected orders sorted by creation time descending")
	}
}

func TestGetOrderOwnership(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com", "Owner")
	intruder := createTestUser(t, db, "intruder@example.com", "Intruder")
	product := createTestProduct(t, db, "Private", decimal.RequireFromString("9.99"))

	c := cart.Cart{}
	c.Add(product.ID, 1, product.Price)
	order, err := store.Checkout(ctx, db, &owner.ID, c)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	detail, err := store.GetOrderForUser(ctx, db, owner.ID, order.ID)
	if err != nil {
		t.Fatalf("Get own order: %v", err)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(detail.Items))
	}
	if detail.Items[0].Title != "Private" {
		t.Errorf("Expected live product title, got %q", detail.Items[0].Title)
	}

	_, err = store.GetOrderForUser(ctx, db, intruder.ID, order.ID)
	if !errors.Is(err, database.ErrOrderNotFound) {
		t.Fatalf("Expected not found for foreign order, got: %v", err)
	}
}

func TestOrderDisplayAfterProductDeletion(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "stale@example.com", "Stale User")
	product := createTestProduct(t, db, "Ephemeral", decimal.RequireFromString("6.00"))

	c := cart.Cart{}
	c.Add(product.ID, 3, product.Price)
	order, err := store.Checkout(ctx, db, &user.ID, c)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if err := store.DeleteProduct(ctx, db, product.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}

	// Display fields are re-joined live and are gone now, but the
	// snapshotted quantity and price survive.
	detail, err := store.GetOrderForUser(ctx, db, user.ID, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("Expected the line item to survive, got %d items", len(detail.Items))
	}
	if detail.Items[0].Title != "" {
		t.Errorf("Expected empty title for deleted product, got %q", detail.Items[0].Title)
	}
	if !detail.Items[0].UnitPrice.Equal(decimal.RequireFromString("6.00")) {
		t.Errorf("Expected snapshotted unit price 6.00, got %s", detail.Items[0].UnitPrice)
	}
	if detail.Items[0].Quantity != 3 {
		t.Errorf("Expected snapshotted quantity 3, got %d", detail.Items[0].Quantity)
	}
}

func TestListAllOrders(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "admin-view@example.com", "Seen By Admin")
	product := createTestProduct(t, db, "Anything", decimal.RequireFromString("2.50"))

	c := cart.Cart{}
	c.Add(product.ID, 2, product.Price)
	if _, err := store.Checkout(ctx, db, &user.ID, c); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	c = cart.Cart{}
	c.Add(product.ID, 1, product.Price)
	if _, err := store.Checkout(ctx, db, nil, c); err != nil {
		t.Fatalf("Guest checkout: %v", err)
	}

	orders, err := store.ListAllOrders(ctx, db)
	if err != nil {
		t.Fatalf("List all orders: %v", err)
	}

	if len(orders) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(orders))
	}

	names := map[string]bool{}
	for _, o := range orders {
		names[o.CustomerName] = true
		if len(o.Items) != 1 {
			t.Errorf("Expected full item detail, got %d items", len(o.Items))
		}
	}
	if !names["Seen By Admin"] || !names["Guest"] {
		t.Errorf("Expected customer names including Guest, got %v", names)
	}
}
