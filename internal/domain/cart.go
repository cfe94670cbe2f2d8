package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog shape consumed at add-to-cart time.
// Prices are decimal strings as served by the menu backend.
type Product struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	DiscountPrice string `json:"discount_price,omitempty"`
}

// ProductSnapshot is the denormalized copy of the catalog item captured
// when the line is created, so totals stay stable against catalog edits.
type ProductSnapshot struct {
	Name          string `json:"name"`
	Price         string `json:"price"`
	DiscountPrice string `json:"discount_price,omitempty"`
}

type Modifier struct {
	ModifierRef string `json:"modifier_ref"`
	Name        string `json:"name"`
	Price       string `json:"price"`
}

type CartLine struct {
	ProductRef string          `json:"product_ref"`
	Snapshot   ProductSnapshot `json:"snapshot"`
	Quantity   int             `json:"quantity"`
	Notes      string          `json:"notes,omitempty"`
	Modifiers  []Modifier      `json:"modifiers,omitempty"`
}

type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Fulfillment struct {
	TableRef   string `json:"table_ref,omitempty"`
	RoomNumber string `json:"room_number,omitempty"`
	PartySize  int    `json:"party_size,omitempty"`
}

// CartSession is the full persisted cart state. Totals are never stored,
// they are derived from Lines on every read.
type CartSession struct {
	Lines       []CartLine  `json:"lines"`
	Customer    Customer    `json:"customer"`
	Fulfillment Fulfillment `json:"fulfillment"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// EffectiveUnitPrice returns the discount price when it is present and
// parsable, otherwise the base price. Malformed price strings count as
// zero rather than failing the read.
func (l CartLine) EffectiveUnitPrice() decimal.Decimal {
	if l.Snapshot.DiscountPrice != "" {
		if d, err := decimal.NewFromString(l.Snapshot.DiscountPrice); err == nil {
			return d
		}
	}
	return parsePrice(l.Snapshot.Price)
}

// ModifierTotal sums the per-unit modifier prices of the line.
func (l CartLine) ModifierTotal() decimal.Decimal {
	total := decimal.Zero
	for _, m := range l.Modifiers {
		total = total.Add(parsePrice(m.Price))
	}
	return total
}

// Total is (effective unit price + modifier total) x quantity.
func (l CartLine) Total() decimal.Decimal {
	unit := l.EffectiveUnitPrice().Add(l.ModifierTotal())
	return unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (s *CartSession) TotalItems() int {
	count := 0
	for _, l := range s.Lines {
		count += l.Quantity
	}
	return count
}

func (s *CartSession) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Total())
	}
	return total
}

func parsePrice(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
