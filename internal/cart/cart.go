package cart

import (
	"github.com/shopspring/decimal"
)

// Entry is one product held in a session cart. UnitPrice is the catalog
// price captured when the product was first added; checkout reprices
// against the live catalog, so this value is advisory only.
type Entry struct {
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Cart maps product IDs to entries. It lives only in session storage and
// is destroyed on checkout or explicit clear.
type Cart map[int64]Entry

// Add merges quantity into an existing entry, or inserts a new entry
// capturing the given unit price.
func (c Cart) Add(productID int64, quantity int, unitPrice decimal.Decimal) {
	if entry, ok := c[productID]; ok {
		entry.Quantity += quantity
		c[productID] = entry
		return
	}
	c[productID] = Entry{Quantity: quantity, UnitPrice: unitPrice}
}

// SetQuantity replaces the quantity of an existing entry. Absent products
// are ignored rather than inserted.
func (c Cart) SetQuantity(productID int64, quantity int) {
	entry, ok := c[productID]
	if !ok {
		return
	}
	entry.Quantity = quantity
	c[productID] = entry
}

// Remove drops the entry if present.
func (c Cart) Remove(productID int64) {
	delete(c, productID)
}

func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// ProductIDs returns the product ids currently in the cart.
func (c Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	return ids
}
