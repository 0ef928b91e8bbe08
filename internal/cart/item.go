// Package cart owns the shopping cart line items and keeps them in sync with
// the browser's persistent store.
package cart

import (
	"github.com/shopspring/decimal"
)

// PricePlaces is the number of decimal places prices are held at.
const PricePlaces = 2

// Snapshot is an immutable copy of a catalogue entry captured at add time.
type Snapshot struct {
	Name        string
	Emoji       string
	Description string
	HeatScore   int
	ImageRef    string
	Price       decimal.Decimal
}

// LineItem is one distinct flavour in the cart with its quantity.
type LineItem struct {
	ID          string
	Name        string
	Emoji       string
	Description string
	HeatScore   int
	ImageRef    string
	Price       decimal.Decimal
	Quantity    int
}

// LineTotal returns price times quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Snapshot returns the catalogue fields the line item was created from.
func (li LineItem) Snapshot() Snapshot {
	return Snapshot{
		Name:        li.Name,
		Emoji:       li.Emoji,
		Description: li.Description,
		HeatScore:   li.HeatScore,
		ImageRef:    li.ImageRef,
		Price:       li.Price,
	}
}

func newLineItem(id string, snap Snapshot) LineItem {
	return LineItem{
		ID:          id,
		Name:        snap.Name,
		Emoji:       snap.Emoji,
		Description: snap.Description,
		HeatScore:   snap.HeatScore,
		ImageRef:    snap.ImageRef,
		Price:       snap.Price.Round(PricePlaces),
		Quantity:    1,
	}
}
