package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/GreyDragonEnt/Gelatomessina/internal/notify"
	"github.com/GreyDragonEnt/Gelatomessina/internal/observability"
	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
	"github.com/GreyDragonEnt/Gelatomessina/internal/store"
)

var (
	errStoreRequired = errors.New("cart: store is required")

	// ErrPersist wraps failures writing the cart to the store. The in-memory
	// mutation has already been applied when it is returned.
	ErrPersist = errors.New("cart: persist failed")
	// ErrInvalidSnapshot is returned when Add receives a snapshot with no name or a negative price.
	ErrInvalidSnapshot = errors.New("cart: invalid snapshot")
)

// ChangeKind names a cart mutation.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeQuantity ChangeKind = "quantity"
	ChangeCleared  ChangeKind = "cleared"
)

// Change describes a mutation that has been applied and persisted.
type Change struct {
	Kind     ChangeKind
	ItemID   string
	Name     string
	Quantity int
}

// Observer is told about every applied mutation, after persistence.
type Observer interface {
	CartChanged(ctx context.Context, change Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, change Change)

// CartChanged calls f.
func (f ObserverFunc) CartChanged(ctx context.Context, change Change) { f(ctx, change) }

// Deps wires the collaborators of a Model.
type Deps struct {
	Store       store.Store
	Notifier    notify.Notifier
	Observers   []Observer
	Metrics     *observability.CartMetrics
	IDGenerator func() string
}

// Model is the authoritative list of line items for one page. It is not safe
// for concurrent use; callers serialize access.
type Model struct {
	items     []LineItem
	store     store.Store
	notifier  notify.Notifier
	observers []Observer
	metrics   *observability.CartMetrics
	newID     func() string
}

// NewModel constructs an empty Model.
func NewModel(deps Deps) (*Model, error) {
	if deps.Store == nil {
		return nil, errStoreRequired
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Discard
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	observers := make([]Observer, 0, len(deps.Observers))
	for _, o := range deps.Observers {
		if o != nil {
			observers = append(observers, o)
		}
	}
	return &Model{
		store:     deps.Store,
		notifier:  notifier,
		observers: observers,
		metrics:   deps.Metrics,
		newID:     idGen,
	}, nil
}

// Load builds a Model from whatever the store holds under KeyCart. Missing or
// unreadable state yields an empty cart and is logged, never returned.
func Load(ctx context.Context, deps Deps) (*Model, error) {
	m, err := NewModel(deps)
	if err != nil {
		return nil, err
	}
	logger := requestctx.Logger(ctx)

	raw, ok, err := m.store.Get(ctx, store.KeyCart)
	if err != nil {
		logger.Warn("cart: read failed, starting empty", zap.Error(err))
		return m, nil
	}
	if !ok {
		return m, nil
	}

	items, issues, err := Decode([]byte(raw), m.newID)
	if err != nil {
		logger.Warn("cart: persisted cart unreadable, starting empty", zap.Error(err))
		return m, nil
	}
	if len(issues) > 0 {
		reasons := make([]string, 0, len(issues))
		for _, issue := range issues {
			reasons = append(reasons, issue.String())
		}
		logger.Warn("cart: repaired persisted cart",
			zap.Int("issues", len(issues)),
			zap.Strings("details", reasons),
		)
	}
	m.items = items
	return m, nil
}

// Observe registers an additional observer.
func (m *Model) Observe(o Observer) {
	if o != nil {
		m.observers = append(m.observers, o)
	}
}

// Items returns a copy of the line items in insertion order.
func (m *Model) Items() []LineItem {
	out := make([]LineItem, len(m.items))
	copy(out, m.items)
	return out
}

// Find returns the line item with id.
func (m *Model) Find(id string) (LineItem, bool) {
	if i := m.indexOf(id); i >= 0 {
		return m.items[i], true
	}
	return LineItem{}, false
}

// Len returns the number of distinct line items.
func (m *Model) Len() int { return len(m.items) }

// Empty reports whether the cart has no line items.
func (m *Model) Empty() bool { return len(m.items) == 0 }

// Total sums price times quantity over every line item.
func (m *Model) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range m.items {
		total = total.Add(item.LineTotal())
	}
	return total.Round(PricePlaces)
}

// Count sums quantities over every line item.
func (m *Model) Count() int {
	count := 0
	for _, item := range m.items {
		count += item.Quantity
	}
	return count
}

// Add merges snap into the line item with the same name, or appends a new one.
// The returned error is non-nil only when the snapshot is unusable or the
// store write failed; in the latter case the item has still been added.
func (m *Model) Add(ctx context.Context, snap Snapshot) (LineItem, error) {
	snap.Name = strings.TrimSpace(snap.Name)
	if snap.Name == "" || snap.Price.IsNegative() {
		return LineItem{}, ErrInvalidSnapshot
	}
	ctx, span := observability.Tracer().Start(ctx, "cart.Add")
	defer span.End()

	var item LineItem
	if i := m.indexOfName(snap.Name); i >= 0 {
		m.items[i].Quantity++
		item = m.items[i]
	} else {
		item = newLineItem(m.newID(), snap)
		m.items = append(m.items, item)
	}
	span.SetAttributes(attribute.String("cart.item_id", item.ID), attribute.Int("cart.quantity", item.Quantity))

	err := m.commit(ctx, Change{Kind: ChangeAdded, ItemID: item.ID, Name: item.Name, Quantity: item.Quantity})
	recordErr(span, err)
	m.notifier.Notify(ctx, fmt.Sprintf("🍦 %s added to cart!", item.Name), notify.SeveritySuccess)
	return item, err
}

// Remove deletes the line item with id. An unknown id is a no-op and reports false.
func (m *Model) Remove(ctx context.Context, id string) (bool, error) {
	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}
	ctx, span := observability.Tracer().Start(ctx, "cart.Remove")
	defer span.End()

	removed := m.items[i]
	m.items = append(m.items[:i:i], m.items[i+1:]...)
	span.SetAttributes(attribute.String("cart.item_id", removed.ID))

	err := m.commit(ctx, Change{Kind: ChangeRemoved, ItemID: removed.ID, Name: removed.Name})
	recordErr(span, err)
	m.notifier.Notify(ctx, "Item removed from cart", notify.SeverityInfo)
	return true, err
}

// SetQuantity sets the quantity of the line item with id. A quantity of zero or
// less removes it. Unknown ids are a no-op and report false.
func (m *Model) SetQuantity(ctx context.Context, id string, quantity int) (bool, error) {
	if quantity <= 0 {
		return m.Remove(ctx, id)
	}
	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}
	if m.items[i].Quantity == quantity {
		return true, nil
	}
	ctx, span := observability.Tracer().Start(ctx, "cart.SetQuantity")
	defer span.End()

	m.items[i].Quantity = quantity
	item := m.items[i]
	span.SetAttributes(attribute.String("cart.item_id", item.ID), attribute.Int("cart.quantity", quantity))

	err := m.commit(ctx, Change{Kind: ChangeQuantity, ItemID: item.ID, Name: item.Name, Quantity: quantity})
	recordErr(span, err)
	return true, err
}

// Clear empties the cart.
func (m *Model) Clear(ctx context.Context) error {
	if len(m.items) == 0 {
		return nil
	}
	ctx, span := observability.Tracer().Start(ctx, "cart.Clear")
	defer span.End()

	m.items = nil
	err := m.commit(ctx, Change{Kind: ChangeCleared})
	recordErr(span, err)
	return err
}

// commit persists the whole cart and then tells observers. Observers run even
// when persistence fails so the view reflects the in-memory state.
func (m *Model) commit(ctx context.Context, change Change) error {
	err := m.persist(ctx)
	m.metrics.Mutation(ctx, string(change.Kind))
	for _, o := range m.observers {
		o.CartChanged(ctx, change)
	}
	return err
}

func (m *Model) persist(ctx context.Context) error {
	raw, err := Encode(m.items)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersist, err)
	}
	if err := m.store.Set(ctx, store.KeyCart, string(raw)); err != nil {
		requestctx.Logger(ctx).Error("cart: persist failed", zap.Error(err), zap.Int("items", len(m.items)))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (m *Model) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range m.items {
		if m.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) indexOfName(name string) int {
	for i := range m.items {
		if m.items[i].Name == name {
			return i
		}
	}
	return -1
}

func recordErr(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
