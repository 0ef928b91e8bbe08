// Package theme resolves and toggles the light/dark colour scheme.
package theme

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GreyDragonEnt/Gelatomessina/internal/notify"
	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
	"github.com/GreyDragonEnt/Gelatomessina/internal/store"
)

// Theme is the active colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// HintHeader is the client hint carrying the OS colour scheme preference.
const HintHeader = "Sec-CH-Prefers-Color-Scheme"

// Source records where the current theme came from.
type Source string

const (
	SourceStored     Source = "stored"
	SourcePreference Source = "preference"
	SourceDefault    Source = "default"
)

var errStoreRequired = errors.New("theme: store is required")

// Parse accepts "light" or "dark", optionally quoted as client hints are.
func Parse(raw string) (Theme, bool) {
	v := strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"`))
	switch Theme(v) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// IsDark reports whether t is the dark scheme.
func (t Theme) IsDark() bool { return t == Dark }

// Deps wires a Switcher.
type Deps struct {
	Store    store.Store
	Notifier notify.Notifier
}

// Switcher holds the theme for one page.
type Switcher struct {
	store    store.Store
	notifier notify.Notifier
	current  Theme
	source   Source
}

// Resolve picks the initial theme: a valid stored value, then the OS
// preference hint, then light. Invalid stored values are logged and ignored.
func Resolve(ctx context.Context, deps Deps, hint string) (*Switcher, error) {
	if deps.Store == nil {
		return nil, errStoreRequired
	}
	s := &Switcher{store: deps.Store, notifier: deps.Notifier, current: Light, source: SourceDefault}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	logger := requestctx.Logger(ctx)

	raw, ok, err := deps.Store.Get(ctx, store.KeyTheme)
	switch {
	case err != nil:
		logger.Warn("theme: read failed, ignoring stored preference", zap.Error(err))
	case ok:
		if t, valid := Parse(raw); valid {
			s.current, s.source = t, SourceStored
			return s, nil
		}
		logger.Warn("theme: ignoring invalid stored preference", zap.String("value", raw))
	}

	if t, valid := Parse(hint); valid {
		s.current, s.source = t, SourcePreference
	}
	return s, nil
}

// Current is the active theme.
func (s *Switcher) Current() Theme { return s.current }

// Source reports how the current theme was chosen.
func (s *Switcher) Source() Source { return s.source }

// PreferenceChanged follows a new OS preference unless the user has chosen a
// theme explicitly.
func (s *Switcher) PreferenceChanged(hint string) bool {
	if s.source == SourceStored {
		return false
	}
	t, ok := Parse(hint)
	if !ok || t == s.current {
		return false
	}
	s.current, s.source = t, SourcePreference
	return true
}

// Toggle flips the theme, persists it and announces the change. The switch
// stands even if persisting fails.
func (s *Switcher) Toggle(ctx context.Context) (Theme, error) {
	s.current = s.current.Opposite()
	s.source = SourceStored

	if s.current == Dark {
		s.notifier.Notify(ctx, "🌙 Dark mode activated", notify.SeverityInfo)
	} else {
		s.notifier.Notify(ctx, "☀️ Light mode activated", notify.SeverityInfo)
	}
	if err := s.store.Set(ctx, store.KeyTheme, string(s.current)); err != nil {
		requestctx.Logger(ctx).Error("theme: persist failed", zap.Error(err))
		return s.current, fmt.Errorf("theme: persist: %w", err)
	}
	return s.current, nil
}
