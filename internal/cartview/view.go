package cartview

// Command names reachable from rendered controls.
const (
	CommandOpen      = "cart.open"
	CommandClose     = "cart.close"
	CommandIncrement = "cart.increment"
	CommandDecrement = "cart.decrement"
	CommandSetQty    = "cart.quantity"
	CommandRemove    = "cart.remove"
	CommandClear     = "cart.clear"
	CommandCheckout  = "cart.checkout"
	CommandAdd       = "cart.add"
)

// Command is one user intent from the panel or a flavour card.
type Command struct {
	Name     string
	ItemID   string
	Flavour  string
	Quantity int
	Opener   string
}

// View is everything the cart panel and badge render.
type View struct {
	Lines           []Line
	Total           string
	Count           int
	CountLabel      string
	BadgeHidden     bool
	Empty           bool
	EmptyState      EmptyState
	CheckoutEnabled bool
	Panel           PanelView
}

// Line is one rendered cart row.
type Line struct {
	ID          string
	Name        string
	Emoji       string
	UnitPrice   string
	LineTotal   string
	Quantity    int
	DecrementTo int
	IncrementTo int
}

// WillRemove reports whether the decrement control removes the line.
func (l Line) WillRemove() bool { return l.DecrementTo <= 0 }

// EmptyState is the placeholder shown instead of line items.
type EmptyState struct {
	Title       string
	Body        string
	ActionLabel string
	ActionCmd   string
}

// DefaultEmptyState invites the shopper back to the flavour grid.
var DefaultEmptyState = EmptyState{
	Title:       "Your cart is empty",
	Body:        "Add some delicious gelato to get started!",
	ActionLabel: "🍦 Browse Flavours",
	ActionCmd:   CommandClose,
}
