// Package lazy provides values that are built at most once, on first use.
package lazy

import (
	"sync"

	"go.uber.org/atomic"
)

// Of holds a value produced on first access. The zero value is usable when
// populated through Set; otherwise create one with New.
type Of[T any] struct {
	build func() T
	once  sync.Once
	value T
	ready atomic.Bool
}

// New creates a lazy value built by f on first access.
func New[T any](f func() T) *Of[T] {
	return &Of[T]{build: f}
}

// Get returns the value, building it on the first call. A panic during the
// build resets the cell so that a later call can retry.
func (l *Of[T]) Get() T { //nolint:ireturn
	defer func() {
		if r := recover(); r != nil {
			l.once = sync.Once{}

			panic(r)
		}
	}()

	l.once.Do(func() {
		if l.build != nil {
			l.value = l.build()
			l.ready.Store(true)
			l.build = nil
		}
	})

	return l.value
}

// Set installs the value directly, dropping any pending build.
func (l *Of[T]) Set(value T) {
	l.build = nil
	l.value = value
	l.ready.Store(true)
}

// Initialized reports whether the value has been produced yet. Useful in
// tests and teardown paths that must not trigger a build.
func (l *Of[T]) Initialized() bool {
	return l.ready.Load()
}
