package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestScopedStoresAreIsolated(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore()
	alice := Scoped(backend, "browser-a")
	bob := Scoped(backend, "browser-b")

	if err := alice.Set(ctx, KeyCart, `[{"name":"Tim Tam Crunch"}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := bob.Get(ctx, KeyCart); err != nil || ok {
		t.Fatalf("expected bob to see nothing, got ok=%v err=%v", ok, err)
	}
	value, ok, err := alice.Get(ctx, KeyCart)
	if err != nil || !ok {
		t.Fatalf("expected alice value, ok=%v err=%v", ok, err)
	}
	if value != `[{"name":"Tim Tam Crunch"}]` {
		t.Fatalf("unexpected value %q", value)
	}

	if err := alice.Delete(ctx, KeyCart); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := alice.Get(ctx, KeyCart); ok {
		t.Fatalf("expected key removed")
	}
	if backend.Scopes() != 0 {
		t.Fatalf("expected empty scope to be dropped, got %d", backend.Scopes())
	}
}

func TestScopedStoreRejectsBlankScopeAndKey(t *testing.T) {
	ctx := context.Background()
	if err := Scoped(NewMemoryStore(), " ").Set(ctx, KeyTheme, "dark"); !errors.Is(err, ErrEmptyScope) {
		t.Fatalf("expected ErrEmptyScope, got %v", err)
	}
	if _, _, err := Scoped(NewMemoryStore(), "b").Get(ctx, ""); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemoryStore().Set(ctx, KeyTheme, "dark"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryStoreOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Set(ctx, KeyTheme, "light")
	_ = s.Set(ctx, KeyTheme, "dark")
	value, ok, err := s.Get(ctx, KeyTheme)
	if err != nil || !ok || value != "dark" {
		t.Fatalf("expected dark, got %q ok=%v err=%v", value, ok, err)
	}
}

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "kv.db")
	s, err := OpenSQLite(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	a := Scoped(s, "browser-a")
	b := Scoped(s, "browser-b")

	if _, ok, err := a.Get(ctx, KeyCart); err != nil || ok {
		t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
	}
	if err := a.Set(ctx, KeyCart, "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := a.Set(ctx, KeyCart, "second"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := b.Set(ctx, KeyCart, "other"); err != nil {
		t.Fatalf("set b: %v", err)
	}

	value, ok, err := a.Get(ctx, KeyCart)
	if err != nil || !ok || value != "second" {
		t.Fatalf("expected second, got %q ok=%v err=%v", value, ok, err)
	}
	value, _, _ = b.Get(ctx, KeyCart)
	if value != "other" {
		t.Fatalf("scopes leaked: %q", value)
	}

	if err := a.Delete(ctx, KeyCart); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := a.Get(ctx, KeyCart); ok {
		t.Fatalf("expected deleted key to be absent")
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "kv.db")

	first, err := OpenSQLite(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Scoped(first, "b").Set(ctx, KeyTheme, "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := first.Set(ctx, KeyTheme, "light"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}

	second, err := OpenSQLite(ctx, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	value, ok, err := Scoped(second, "b").Get(ctx, KeyTheme)
	if err != nil || !ok || value != "dark" {
		t.Fatalf("expected persisted dark, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestSQLiteStorePurgeBefore(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }
	_ = s.SetScoped(ctx, "old", KeyCart, "[]")
	_ = s.SetScoped(ctx, "old", KeyTheme, "dark")
	_ = s.SetScoped(ctx, "mixed", KeyTheme, "dark")
	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	_ = s.SetScoped(ctx, "new", KeyCart, "[]")
	_ = s.SetScoped(ctx, "mixed", KeyCart, "[]")

	removed, err := s.PurgeBefore(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected both rows of the idle scope purged, got %d", removed)
	}
	for _, key := range []string{KeyCart, KeyTheme} {
		if _, ok, _ := s.GetScoped(ctx, "old", key); ok {
			t.Errorf("idle scope kept %s", key)
		}
	}
	if _, ok, _ := s.GetScoped(ctx, "new", KeyCart); !ok {
		t.Fatalf("recent entry should remain")
	}
	// a scope with any recent write is kept whole
	if v, ok, _ := s.GetScoped(ctx, "mixed", KeyTheme); !ok || v != "dark" {
		t.Fatalf("active scope lost its older theme: %q %v", v, ok)
	}
}

func TestOpenSQLiteRequiresDSN(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for blank dsn")
	}
}
