package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rdine/go-storefront/internal/cart"
	"github.com/rdine/go-storefront/internal/store"
	"github.com/shopspring/decimal"
)

func TestCartStore(t *testing.T) {
	rdb, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	carts := cart.NewStore(rdb, time.Hour)
	const sid = "session-1"

	if err := carts.Add(ctx, sid, 1, 2, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := carts.Add(ctx, sid, 1, 3, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("Add again: %v", err)
	}
	if err := carts.Add(ctx, sid, 2, 1, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("Add second product: %v", err)
	}

	c, err := carts.Get(ctx, sid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(c) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(c))
	}
	if c[1].Quantity != 5 {
		t.Errorf("Expected merged quantity 5, got %d", c[1].Quantity)
	}

	if err := carts.SetQuantity(ctx, sid, 2, 9); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	// Setting quantity for a product not in the cart must not insert it.
	if err := carts.SetQuantity(ctx, sid, 42, 9); err != nil {
		t.Fatalf("SetQuantity absent: %v", err)
	}

	c, err = carts.Get(ctx, sid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c[2].Quantity != 9 {
		t.Errorf("Expected quantity 9, got %d", c[2].Quantity)
	}
	if _, ok := c[42]; ok {
		t.Error("Absent product was inserted by SetQuantity")
	}

	if err := carts.Remove(ctx, sid, 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := carts.Clear(ctx, sid); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	c, err = carts.Get(ctx, sid)
	if err != nil {
		t.Fatalf("Get after clear: %v", err)
	}
	if !c.IsEmpty() {
		t.Errorf("Expected empty cart after clear, got %d entries", len(c))
	}
}

func TestCartStoreSessionsAreIsolated(t *testing.T) {
	rdb, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	carts := cart.NewStore(rdb, time.Hour)

	if err := carts.Add(ctx, "session-a", 1, 1, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	other, err := carts.Get(ctx, "session-b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !other.IsEmpty() {
		t.Error("Cart leaked across sessions")
	}
}

func TestCartStoreConcurrentAdds(t *testing.T) {
	rdb, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	carts := cart.NewStore(rdb, time.Hour)
	const sid = "session-concurrent"

	// Two tabs hammering the same session must not lose updates thanks to
	// the WATCH-based read-modify-write.
	concurrency := 10
	var wg sync.WaitGroup
	errs := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- carts.Add(ctx, sid, 1, 1, decimal.NewFromInt(10))
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Concurrent add: %v", err)
		}
	}

	c, err := carts.Get(ctx, sid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c[1].Quantity != concurrency {
		t.Errorf("Expected quantity %d, got %d", concurrency, c[1].Quantity)
	}
}

func TestBuildCartView(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	p1 := createTestProduct(t, db, "Viewed 1", decimal.RequireFromString("10.00"))
	p2 := createTestProduct(t, db, "Viewed 2", decimal.RequireFromString("5.00"))

	c := cart.Cart{}
	c.Add(p1.ID, 2, p1.Price)
	c.Add(p2.ID, 1, p2.Price)

	view, err := store.BuildCartView(ctx, db, c)
	if err != nil {
		t.Fatalf("Build cart view: %v", err)
	}

	if len(view.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(view.Items))
	}
	if !view.Total.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("Expected total 25.00, got %s", view.Total)
	}

	// The view reprices from the live catalog.
	if _, err := store.UpdateProduct(ctx, db, p1.ID, store.ProductInput{
		Title:       p1.Title,
		Price:       decimal.RequireFromString("11.00"),
		Description: p1.Description,
		Category:    p1.Category,
		Image:       p1.Image,
	}); err != nil {
		t.Fatalf("Update product: %v", err)
	}

	view, err = store.BuildCartView(ctx, db, c)
	if err != nil {
		t.Fatalf("Build cart view: %v", err)
	}
	if !view.Total.Equal(decimal.RequireFromString("27.00")) {
		t.Errorf("Expected repriced total 27.00, got %s", view.Total)
	}

	// Vanished products are skipped from the listing.
	if err := store.DeleteProduct(ctx, db, p2.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}

	view, err = store.BuildCartView(ctx, db, c)
	if err != nil {
		t.Fatalf("Build cart view: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("Expected 1 item after deletion, got %d", len(view.Items))
	}
	if !view.Total.Equal(decimal.RequireFromString("22.00")) {
		t.Errorf("Expected total 22.00, got %s", view.Total)
	}
}
