package theme

import (
	"context"
	"errors"
	"testing"

	"github.com/GreyDragonEnt/Gelatomessina/internal/notify"
	"github.com/GreyDragonEnt/Gelatomessina/internal/store"
)

func resolve(t *testing.T, st store.Store, hint string) *Switcher {
	t.Helper()
	s, err := Resolve(context.Background(), Deps{Store: st}, hint)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return s
}

func scopedMemory() store.Store {
	return store.Scoped(store.NewMemoryStore(), "browser-1")
}

func TestResolvePrecedence(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name       string
		stored     string
		hint       string
		want       Theme
		wantSource Source
	}{
		{"default", "", "", Light, SourceDefault},
		{"hint only", "", `"dark"`, Dark, SourcePreference},
		{"stored beats hint", "light", "dark", Light, SourceStored},
		{"stored dark", "dark", "", Dark, SourceStored},
		{"invalid stored falls through to hint", "purple", "dark", Dark, SourcePreference},
		{"invalid stored and hint", "purple", "sepia", Light, SourceDefault},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := scopedMemory()
			if tc.stored != "" {
				if err := st.Set(ctx, store.KeyTheme, tc.stored); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}
			s := resolve(t, st, tc.hint)
			if s.Current() != tc.want || s.Source() != tc.wantSource {
				t.Fatalf("got %s/%s, want %s/%s", s.Current(), s.Source(), tc.want, tc.wantSource)
			}
		})
	}
}

func TestToggleNotifiesAndPersists(t *testing.T) {
	ctx := context.Background()
	st := scopedMemory()
	var queue notify.Queue
	s, err := Resolve(ctx, Deps{Store: st, Notifier: &queue}, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	got, err := s.Toggle(ctx)
	if err != nil || got != Dark {
		t.Fatalf("toggle to dark: %s, %v", got, err)
	}
	raw, ok, _ := st.Get(ctx, store.KeyTheme)
	if !ok || raw != "dark" {
		t.Fatalf("expected dark persisted, got %q", raw)
	}
	if _, err := s.Toggle(ctx); err != nil {
		t.Fatalf("toggle back: %v", err)
	}

	items := queue.Drain()
	if len(items) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(items))
	}
	if items[0].Message != "🌙 Dark mode activated" || items[1].Message != "☀️ Light mode activated" {
		t.Fatalf("unexpected messages %+v", items)
	}

	reloaded := resolve(t, st, "dark")
	if reloaded.Current() != Light || reloaded.Source() != SourceStored {
		t.Fatalf("explicit choice should survive reload, got %s", reloaded.Current())
	}
}

func TestPreferenceChangedOnlyWithoutStoredChoice(t *testing.T) {
	ctx := context.Background()
	s := resolve(t, scopedMemory(), "light")
	if !s.PreferenceChanged("dark") || s.Current() != Dark {
		t.Fatalf("expected to follow OS preference")
	}
	if _, err := s.Toggle(ctx); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if s.PreferenceChanged("dark") {
		t.Fatalf("explicit choice must not follow OS preference")
	}
}

type failingStore struct{ store.Store }

func (failingStore) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestToggleKeepsStateOnPersistFailure(t *testing.T) {
	s := resolve(t, failingStore{scopedMemory()}, "")
	got, err := s.Toggle(context.Background())
	if err == nil {
		t.Fatalf("expected persist error")
	}
	if got != Dark || s.Current() != Dark {
		t.Fatalf("toggle should stand, got %s", s.Current())
	}
}

func TestResolveRequiresStore(t *testing.T) {
	if _, err := Resolve(context.Background(), Deps{}, ""); err == nil {
		t.Fatalf("expected error without store")
	}
}
