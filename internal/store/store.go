// Package store provides the durable key/value storage that backs browser-scoped state.
package store

import (
	"context"
	"errors"
	"strings"
)

// Keys used by the storefront.
const (
	KeyCart  = "cart"
	KeyTheme = "theme"
)

var (
	// ErrEmptyKey is returned when a caller passes a blank key.
	ErrEmptyKey = errors.New("store: key is required")
	// ErrEmptyScope is returned when a scoped view is used without a browser id.
	ErrEmptyScope = errors.New("store: scope is required")
	// ErrClosed is returned by backends used after Close.
	ErrClosed = errors.New("store: closed")
)

// Store is a synchronous string key/value store. Absent keys report ok=false
// and never an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ScopedBackend stores values partitioned by an opaque scope, one per browser.
type ScopedBackend interface {
	GetScoped(ctx context.Context, scope, key string) (string, bool, error)
	SetScoped(ctx context.Context, scope, key, value string) error
	DeleteScoped(ctx context.Context, scope, key string) error
}

// Scoped returns a Store view that confines every key to scope.
func Scoped(base ScopedBackend, scope string) Store {
	return scopedStore{base: base, scope: strings.TrimSpace(scope)}
}

type scopedStore struct {
	base  ScopedBackend
	scope string
}

func (s scopedStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(key); err != nil {
		return "", false, err
	}
	return s.base.GetScoped(ctx, s.scope, key)
}

func (s scopedStore) Set(ctx context.Context, key, value string) error {
	if err := s.check(key); err != nil {
		return err
	}
	return s.base.SetScoped(ctx, s.scope, key, value)
}

func (s scopedStore) Delete(ctx context.Context, key string) error {
	if err := s.check(key); err != nil {
		return err
	}
	return s.base.DeleteScoped(ctx, s.scope, key)
}

func (s scopedStore) check(key string) error {
	if s.scope == "" {
		return ErrEmptyScope
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
