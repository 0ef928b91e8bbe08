package cartview

import "strings"

// Stable element identifiers the rendered markup binds to.
const (
	ElementToggle    = "cart-toggle"
	ElementClose     = "close-cart"
	ElementCatalogue = "flavours"
)

// PanelState is the logical state of a slide-over panel.
type PanelState int

const (
	Closed PanelState = iota
	Open
)

func (s PanelState) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// PanelView is the presentation the panel asks for after a transition.
type PanelView struct {
	State        PanelState
	ScrollLocked bool
	FocusTarget  string
	ScrollTarget string
}

// IsOpen reports whether the panel is open.
func (v PanelView) IsOpen() bool { return v.State == Open }

// Panel is a Closed/Open state machine. Opening twice is idempotent.
type Panel struct {
	state             PanelState
	opener            string
	closeControl      string
	defaultOpener     string
	scrollTarget      string
	scrollAfterClose  bool
	lastScrollRequest string
}

// PanelOptions configure focus and scroll targets.
type PanelOptions struct {
	CloseControl  string
	DefaultOpener string
	// ScrollTarget is scrolled into view after closing when ScrollOnClose is set.
	ScrollTarget  string
	ScrollOnClose bool
}

// NewPanel returns a closed panel.
func NewPanel(opts PanelOptions) *Panel {
	return &Panel{
		closeControl:     strings.TrimSpace(opts.CloseControl),
		defaultOpener:    strings.TrimSpace(opts.DefaultOpener),
		scrollTarget:     strings.TrimSpace(opts.ScrollTarget),
		scrollAfterClose: opts.ScrollOnClose && strings.TrimSpace(opts.ScrollTarget) != "",
	}
}

// Open transitions to Open and remembers which control opened it.
func (p *Panel) Open(opener string) PanelView {
	if p.state != Open {
		opener = strings.TrimSpace(opener)
		if opener == "" {
			opener = p.defaultOpener
		}
		p.opener = opener
		p.state = Open
	}
	p.lastScrollRequest = ""
	return p.View()
}

// Close transitions to Closed and hands focus back to the opener.
func (p *Panel) Close() PanelView {
	wasOpen := p.state == Open
	p.state = Closed
	p.lastScrollRequest = ""
	if wasOpen && p.scrollAfterClose {
		p.lastScrollRequest = p.scrollTarget
	}
	return p.View()
}

// State returns the current state.
func (p *Panel) State() PanelState { return p.state }

// View describes the current presentation without changing state.
func (p *Panel) View() PanelView {
	if p.state == Open {
		return PanelView{State: Open, ScrollLocked: true, FocusTarget: p.closeControl}
	}
	focus := p.opener
	if focus == "" {
		focus = p.defaultOpener
	}
	return PanelView{State: Closed, FocusTarget: focus, ScrollTarget: p.lastScrollRequest}
}
