// Package cartview derives the cart panel presentation from the cart model and
// routes commands from rendered controls to model operations.
package cartview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GreyDragonEnt/Gelatomessina/internal/cart"
	"github.com/GreyDragonEnt/Gelatomessina/internal/format"
	"github.com/GreyDragonEnt/Gelatomessina/internal/notify"
	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
)

var (
	errModelRequired   = errors.New("cartview: model is required")
	errCatalogRequired = errors.New("cartview: catalogue is required")

	// ErrUnknownCommand is returned by Dispatch for names outside the command table.
	ErrUnknownCommand = errors.New("cartview: unknown command")
	// ErrCheckoutDisabled is returned when checkout is requested on an empty cart.
	ErrCheckoutDisabled = errors.New("cartview: checkout disabled")
)

// Snapshotter resolves a flavour name to the snapshot the cart stores.
type Snapshotter interface {
	Snapshot(name string) (cart.Snapshot, error)
}

// CheckoutGateway is the boundary where a real order submission would plug in.
type CheckoutGateway interface {
	Checkout(ctx context.Context, items []cart.LineItem) error
}

// DemoCheckout only confirms; no order is placed and the cart is kept.
type DemoCheckout struct {
	Notifier notify.Notifier
}

// Checkout implements CheckoutGateway.
func (d DemoCheckout) Checkout(ctx context.Context, items []cart.LineItem) error {
	n := d.Notifier
	if n == nil {
		n = notify.FromContext(ctx)
	}
	n.Notify(ctx, "🎉 Redirecting to checkout... (demo)", notify.SeveritySuccess)
	requestctx.Logger(ctx).Info("demo checkout", zap.Int("lines", len(items)))
	return nil
}

// Deps wires a Controller.
type Deps struct {
	Model     *cart.Model
	Catalogue Snapshotter
	Checkout  CheckoutGateway
	Notifier  notify.Notifier
	// ScrollToCatalogueOnClose scrolls the page to the flavour grid after the panel closes.
	ScrollToCatalogueOnClose bool
}

// Controller owns the cart panel state and the command table.
type Controller struct {
	model     *cart.Model
	catalogue Snapshotter
	checkout  CheckoutGateway
	panel     *Panel
	commands  map[string]handler
}

type handler func(ctx context.Context, cmd Command) error

// New constructs a Controller with a closed panel.
func New(deps Deps) (*Controller, error) {
	if deps.Model == nil {
		return nil, errModelRequired
	}
	if deps.Catalogue == nil {
		return nil, errCatalogRequired
	}
	gateway := deps.Checkout
	if gateway == nil {
		gateway = DemoCheckout{Notifier: deps.Notifier}
	}

	c := &Controller{
		model:     deps.Model,
		catalogue: deps.Catalogue,
		checkout:  gateway,
		panel: NewPanel(PanelOptions{
			CloseControl:  ElementClose,
			DefaultOpener: ElementToggle,
			ScrollTarget:  ElementCatalogue,
			ScrollOnClose: deps.ScrollToCatalogueOnClose,
		}),
	}
	c.commands = map[string]handler{
		CommandOpen:      c.open,
		CommandClose:     c.close,
		CommandIncrement: c.increment,
		CommandDecrement: c.decrement,
		CommandSetQty:    c.setQuantity,
		CommandRemove:    c.remove,
		CommandClear:     c.clear,
		CommandCheckout:  c.doCheckout,
		CommandAdd:       c.add,
	}
	return c, nil
}

// Model exposes the underlying cart model.
func (c *Controller) Model() *cart.Model { return c.model }

// Panel returns the current panel presentation.
func (c *Controller) Panel() PanelView { return c.panel.View() }

// Open opens the panel.
func (c *Controller) Open(opener string) PanelView { return c.panel.Open(opener) }

// Close closes the panel.
func (c *Controller) Close() PanelView { return c.panel.Close() }

// Dispatch routes cmd through the command table. Persistence failures are
// returned wrapped in cart.ErrPersist after the view state has been updated.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) error {
	name := strings.TrimSpace(cmd.Name)
	h, ok := c.commands[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return h(ctx, cmd)
}

func (c *Controller) open(_ context.Context, cmd Command) error {
	c.panel.Open(cmd.Opener)
	return nil
}

func (c *Controller) close(context.Context, Command) error {
	c.panel.Close()
	return nil
}

func (c *Controller) increment(ctx context.Context, cmd Command) error {
	item, ok := c.model.Find(cmd.ItemID)
	if !ok {
		return nil
	}
	_, err := c.model.SetQuantity(ctx, item.ID, item.Quantity+1)
	return err
}

// decrement below one routes to removal through SetQuantity.
func (c *Controller) decrement(ctx context.Context, cmd Command) error {
	item, ok := c.model.Find(cmd.ItemID)
	if !ok {
		return nil
	}
	_, err := c.model.SetQuantity(ctx, item.ID, item.Quantity-1)
	return err
}

func (c *Controller) setQuantity(ctx context.Context, cmd Command) error {
	_, err := c.model.SetQuantity(ctx, cmd.ItemID, cmd.Quantity)
	return err
}

func (c *Controller) remove(ctx context.Context, cmd Command) error {
	_, err := c.model.Remove(ctx, cmd.ItemID)
	return err
}

func (c *Controller) clear(ctx context.Context, _ Command) error {
	return c.model.Clear(ctx)
}

func (c *Controller) add(ctx context.Context, cmd Command) error {
	snap, err := c.catalogue.Snapshot(cmd.Flavour)
	if err != nil {
		return err
	}
	_, err = c.model.Add(ctx, snap)
	if err != nil && !errors.Is(err, cart.ErrPersist) {
		return err
	}
	c.panel.Open(cmd.Opener)
	return err
}

func (c *Controller) doCheckout(ctx context.Context, _ Command) error {
	if c.model.Empty() {
		return ErrCheckoutDisabled
	}
	return c.checkout.Checkout(ctx, c.model.Items())
}

// Refresh derives the full cart presentation from the model. It never mutates the model.
func (c *Controller) Refresh() View {
	items := c.model.Items()
	count := c.model.Count()
	view := View{
		Total:           format.Currency(c.model.Total()),
		Count:           count,
		CountLabel:      format.Count(count),
		BadgeHidden:     count == 0,
		Empty:           len(items) == 0,
		CheckoutEnabled: len(items) > 0,
		Panel:           c.panel.View(),
	}
	if view.Empty {
		view.EmptyState = DefaultEmptyState
		return view
	}
	view.Lines = make([]Line, 0, len(items))
	for _, item := range items {
		view.Lines = append(view.Lines, Line{
			ID:          item.ID,
			Name:        item.Name,
			Emoji:       item.Emoji,
			UnitPrice:   format.Price(item.Price),
			LineTotal:   format.Currency(item.LineTotal()),
			Quantity:    item.Quantity,
			DecrementTo: item.Quantity - 1,
			IncrementTo: item.Quantity + 1,
		})
	}
	return view
}
