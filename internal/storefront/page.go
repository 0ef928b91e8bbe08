// Package storefront ties the per-page state of the shop together: one Page
// per loaded browser tab, kept alive in a bounded Registry.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/GreyDragonEnt/Gelatomessina/internal/cart"
	"github.com/GreyDragonEnt/Gelatomessina/internal/cartview"
	"github.com/GreyDragonEnt/Gelatomessina/internal/catalogue"
	"github.com/GreyDragonEnt/Gelatomessina/internal/content"
	"github.com/GreyDragonEnt/Gelatomessina/internal/notify"
	"github.com/GreyDragonEnt/Gelatomessina/internal/observability"
	"github.com/GreyDragonEnt/Gelatomessina/internal/quiz"
	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
	"github.com/GreyDragonEnt/Gelatomessina/internal/store"
	"github.com/GreyDragonEnt/Gelatomessina/internal/theme"
	"github.com/GreyDragonEnt/Gelatomessina/internal/widget"
)

// Elements of the tracking modal.
const (
	ElementTrackOpen  = "track-scoop-btn"
	ElementTrackClose = "close-track-modal"
)

var errStoreRequired = errors.New("storefront: store is required")

// Options are shared by every page a Registry builds.
type Options struct {
	Prices    catalogue.PriceGenerator
	Metrics   *observability.CartMetrics
	Checkout  cartview.CheckoutGateway
	Scheduler widget.Scheduler
	Content   *content.Content
	Quiz      *quiz.Definition

	CarouselInterval         time.Duration
	SliderStepInterval       time.Duration
	ScrollToCatalogueOnClose bool

	// IDGenerator overrides line item ids; tests use it for stable output.
	IDGenerator func() string
	Now         func() time.Time
}

func (o Options) withDefaults() (Options, error) {
	if o.Prices == nil {
		o.Prices = catalogue.DefaultPrices()
	}
	if o.Scheduler == nil {
		o.Scheduler = widget.RealScheduler()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Content == nil {
		c, err := content.Default()
		if err != nil {
			return o, err
		}
		o.Content = c
	}
	if o.Quiz == nil {
		q, err := quiz.Default()
		if err != nil {
			return o, err
		}
		o.Quiz = q
	}
	return o, nil
}

// Page is the live state behind one loaded storefront page. Every handler and
// timer callback touching it runs under its lock, via Do.
type Page struct {
	mu sync.Mutex

	id        string
	browserID string
	created   time.Time

	catalogue *catalogue.Priced
	content   *content.Content
	cart      *cartview.Controller
	quiz      *quiz.Quiz
	theme     *theme.Switcher
	carousel  *widget.Carousel
	slider    *widget.Slider
	track     *cartview.Panel

	closeOnce sync.Once
}

// NewPage performs a page load: fresh prices, the cart and theme re-read from
// st, the quiz at its first question and both panels closed. Widgets start
// immediately.
func NewPage(ctx context.Context, browserID string, st store.Store, colourHint string, opts Options) (*Page, error) {
	if st == nil {
		return nil, errStoreRequired
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("storefront: defaults: %w", err)
	}

	priced, err := catalogue.Load(opts.Prices)
	if err != nil {
		return nil, fmt.Errorf("storefront: catalogue: %w", err)
	}

	logger := requestctx.Logger(ctx)
	model, err := cart.Load(ctx, cart.Deps{
		Store:       st,
		Notifier:    notify.Contextual{},
		Metrics:     opts.Metrics,
		IDGenerator: opts.IDGenerator,
		Observers: []cart.Observer{cart.ObserverFunc(func(ctx context.Context, change cart.Change) {
			requestctx.Logger(ctx).Debug("cart changed",
				zap.String("kind", string(change.Kind)),
				zap.String("item_id", change.ItemID),
				zap.Int("quantity", change.Quantity),
			)
		})},
	})
	if err != nil {
		return nil, fmt.Errorf("storefront: cart: %w", err)
	}

	controller, err := cartview.New(cartview.Deps{
		Model:                    model,
		Catalogue:                priced,
		Checkout:                 opts.Checkout,
		Notifier:                 notify.Contextual{},
		ScrollToCatalogueOnClose: opts.ScrollToCatalogueOnClose,
	})
	if err != nil {
		return nil, fmt.Errorf("storefront: cart view: %w", err)
	}

	switcher, err := theme.Resolve(ctx, theme.Deps{Store: st, Notifier: notify.Contextual{}}, colourHint)
	if err != nil {
		return nil, fmt.Errorf("storefront: theme: %w", err)
	}

	p := &Page{
		id:        ulid.Make().String(),
		browserID: browserID,
		created:   opts.Now(),
		catalogue: priced,
		content:   opts.Content,
		cart:      controller,
		quiz:      quiz.New(opts.Quiz),
		theme:     switcher,
		track: cartview.NewPanel(cartview.PanelOptions{
			CloseControl:  ElementTrackClose,
			DefaultOpener: ElementTrackOpen,
		}),
	}
	sched := widget.Serialized(opts.Scheduler, &p.mu)
	p.carousel = widget.NewCarousel(len(opts.Content.Slides), widget.CarouselOptions{
		Interval:  opts.CarouselInterval,
		Scheduler: sched,
	})
	p.slider = widget.NewSlider(0, widget.SliderOptions{
		StepInterval: opts.SliderStepInterval,
		Scheduler:    sched,
	})
	p.carousel.Start()
	p.slider.Start()

	logger.Debug("page loaded",
		zap.String("page_id", p.id),
		zap.Int("cart_lines", model.Len()),
		zap.String("theme", string(switcher.Current())),
	)
	return p, nil
}

// Do runs fn while holding the page lock.
func (p *Page) Do(fn func(*Page) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p)
}

// Close stops the page's timers. It does not take the page lock, so it is
// safe from eviction callbacks.
func (p *Page) Close() {
	p.closeOnce.Do(func() {
		p.carousel.Stop()
		p.slider.Stop()
	})
}

func (p *Page) ID() string { return p.id }
func (p *Page) BrowserID() string { return p.browserID }
func (p *Page) Created() time.Time { return p.created }
func (p *Page) Catalogue() *catalogue.Priced { return p.catalogue }
func (p *Page) Content() *content.Content { return p.content }
func (p *Page) Cart() *cartview.Controller { return p.cart }
func (p *Page) Quiz() *quiz.Quiz { return p.quiz }
func (p *Page) Theme() *theme.Switcher { return p.theme }
func (p *Page) Carousel() *widget.Carousel { return p.carousel }
func (p *Page) Slider() *widget.Slider { return p.slider }
func (p *Page) Track() *cartview.Panel { return p.track }

// CardClicked announces a flavour's description.
func (p *Page) CardClicked(ctx context.Context, name string) error {
	item, ok := p.catalogue.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", catalogue.ErrUnknownFlavour, strings.TrimSpace(name))
	}
	notify.FromContext(ctx).Notify(ctx, fmt.Sprintf("🍦 %s - %s", item.Name, item.PlainText), notify.SeverityInfo)
	return nil
}

// PostClicked announces a customer post.
func (p *Page) PostClicked(ctx context.Context, index int) error {
	post, err := p.content.Post(index)
	if err != nil {
		return err
	}
	notify.FromContext(ctx).Notify(ctx, post.OpenMessage(), notify.SeverityInfo)
	return nil
}

// SocialClicked announces a social link.
func (p *Page) SocialClicked(ctx context.Context, slug string) error {
	social, err := p.content.Social(slug)
	if err != nil {
		return err
	}
	notify.FromContext(ctx).Notify(ctx, social.OpenMessage(), notify.SeverityInfo)
	return nil
}

// ShareQuiz is the demo share action on the quiz result.
func (p *Page) ShareQuiz(ctx context.Context) {
	notify.FromContext(ctx).Notify(ctx, "📱 Opening Instagram share... (demo)", notify.SeverityInfo)
}
