// Package catalogue holds the static flavour entries and prices them once per page load.
package catalogue

import (
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/GreyDragonEnt/Gelatomessina/internal/cart"
)

//go:embed flavours.yaml
var flavoursYAML []byte

// ErrUnknownFlavour is returned when a name is not in the catalogue.
var ErrUnknownFlavour = errors.New("catalogue: unknown flavour")

// Entry is a static, descriptive flavour record.
type Entry struct {
	Name        string `yaml:"name"`
	Emoji       string `yaml:"emoji"`
	HeatScore   int    `yaml:"heat"`
	Description string `yaml:"description"`
	ImageRef    string `yaml:"image"`
}

type document struct {
	Flavours []Entry `yaml:"flavours"`
}

var loadEntries = sync.OnceValues(func() ([]Entry, error) {
	return ParseEntries(flavoursYAML)
})

// Entries returns the built-in flavour list.
func Entries() ([]Entry, error) {
	entries, err := loadEntries()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// ParseEntries decodes a flavour document. Names must be present and unique.
func ParseEntries(raw []byte) ([]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalogue: parse: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Flavours))
	for i, entry := range doc.Flavours {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("catalogue: entry %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("catalogue: duplicate flavour %q", name)
		}
		if entry.HeatScore < 0 || entry.HeatScore > 100 {
			return nil, fmt.Errorf("catalogue: %q heat %d out of range", name, entry.HeatScore)
		}
		seen[name] = struct{}{}
		doc.Flavours[i].Name = name
	}
	return doc.Flavours, nil
}

// Item is an entry with the price generated for the current page load.
type Item struct {
	Entry
	Price           decimal.Decimal
	DescriptionHTML template.HTML
	PlainText       string
}

// HeatLabel describes the trending score.
func (i Item) HeatLabel() string { return HeatDescription(i.HeatScore) }

// Tooltip is the hover text shown on the card.
func (i Item) Tooltip() string {
	return fmt.Sprintf("%d° trending - %s", i.HeatScore, HeatDescription(i.HeatScore))
}

// Snapshot returns the value the cart stores when this item is added. The
// description is the entry's source text, not its rendering.
func (i Item) Snapshot() cart.Snapshot {
	return cart.Snapshot{
		Name:        i.Name,
		Emoji:       i.Emoji,
		Description: i.Description,
		HeatScore:   i.HeatScore,
		ImageRef:    i.ImageRef,
		Price:       i.Price,
	}
}

// Priced is an immutable catalogue whose prices hold for one page load.
type Priced struct {
	items  []Item
	byName map[string]int
}

// Price builds a priced catalogue by drawing one price per entry from gen.
func Price(entries []Entry, gen PriceGenerator) *Priced {
	p := &Priced{
		items:  make([]Item, 0, len(entries)),
		byName: make(map[string]int, len(entries)),
	}
	for _, entry := range entries {
		html := RenderDescription(entry.Description)
		p.byName[entry.Name] = len(p.items)
		p.items = append(p.items, Item{
			Entry:           entry,
			Price:           gen.Price(entry).Round(cart.PricePlaces),
			DescriptionHTML: html,
			PlainText:       PlainText(html),
		})
	}
	return p
}

// Load prices the built-in entries.
func Load(gen PriceGenerator) (*Priced, error) {
	entries, err := Entries()
	if err != nil {
		return nil, err
	}
	return Price(entries, gen), nil
}

// Items returns the priced items in catalogue order.
func (p *Priced) Items() []Item {
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

// Lookup finds an item by name.
func (p *Priced) Lookup(name string) (Item, bool) {
	i, ok := p.byName[strings.TrimSpace(name)]
	if !ok {
		return Item{}, false
	}
	return p.items[i], true
}

// Snapshot returns the cart snapshot for name.
func (p *Priced) Snapshot(name string) (cart.Snapshot, error) {
	item, ok := p.Lookup(name)
	if !ok {
		return cart.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownFlavour, name)
	}
	return item.Snapshot(), nil
}

// HeatDescription labels a trending score.
func HeatDescription(score int) string {
	switch {
	case score >= 90:
		return "Blazing hot! 🔥"
	case score >= 80:
		return "Super popular! ⭐"
	case score >= 70:
		return "Rising star! 📈"
	default:
		return "Hidden gem! 💎"
	}
}
