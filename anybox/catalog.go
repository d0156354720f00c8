package anybox

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// Observer receives lifecycle notifications for stored objects. Allocated
// fires when a box takes ownership of a freshly constructed object and
// Released when a box lets one go; moves transfer ownership without firing
// either. Implementations must be safe for concurrent use.
type Observer interface {
	Allocated(catalog, typeName string)
	Released(catalog, typeName string)
}

// Binding produces one freshly allocated implementation for values of type
// T, returning the dispatch handle together with the address of the Keeper
// embedded in it. Both results must belong to the same allocation, and every
// call must produce a new one.
type Binding[I Stored, T any] func() (I, *Keeper[T])

type config struct {
	name     string
	log      *slog.Logger
	observer Observer
}

// Option configures a catalog.
type Option func(*config)

// WithName sets the catalog name used in panics, log records and observer
// events.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger for catalog events.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithObserver sets the observer notified of stored object lifecycles.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

// Catalog is the composition point for one storable interface: it maps each
// concrete type to the binding that builds its implementation. Bind rarely,
// construct often; a catalog is safe for concurrent use.
type Catalog[I Stored] struct {
	name     string
	log      *slog.Logger
	observer Observer

	mu       sync.RWMutex
	bindings map[reflect.Type]any
}

// NewCatalog creates an empty catalog for the storable interface I.
func NewCatalog[I Stored](opts ...Option) *Catalog[I] {
	cfg := &config{
		name: "catalog",
		log:  slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Catalog[I]{
		name:     cfg.name,
		log:      cfg.log,
		observer: cfg.observer,
		bindings: make(map[reflect.Type]any),
	}
}

// Name returns the catalog name.
func (c *Catalog[I]) Name() string {
	return c.name
}

// Types returns the names of all bound types in sorted order.
func (c *Catalog[I]) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.bindings))
	for t := range c.bindings {
		names = append(names, t.String())
	}

	sort.Strings(names)

	return names
}

// Bind registers the binding that backs stored values of type T in this
// catalog. Binding a type that is already bound replaces the previous
// binding; that is how a specialized implementation is substituted for one
// type without touching the interface, the container or the other types.
func Bind[I Stored, T any](c *Catalog[I], b Binding[I, T]) {
	if b == nil {
		panic(fmt.Sprintf("anybox: catalog %q: nil binding for %s", c.name, typeName[T]()))
	}

	entry := &binding[I, T]{
		make:  b,
		move:  relocatorFor[T](),
		cat:   c.name,
		tname: typeName[T](),
	}

	c.mu.Lock()
	key := reflect.TypeFor[T]()
	_, rebound := c.bindings[key]
	c.bindings[key] = entry
	c.mu.Unlock()

	if rebound {
		c.log.Debug("rebinding stored type", "catalog", c.name, "type", entry.tname)
	}
}

// binding is the composed per-type entry held by a catalog.
type binding[I Stored, T any] struct {
	make  Binding[I, T]
	move  relocate[T]
	cat   string
	tname string
}

// newObject runs the binding and checks the result shape. Either a nil
// handle or a nil keeper would produce a box that reports defined but cannot
// be dispatched through or constructed into.
func (e *binding[I, T]) newObject() (I, *Keeper[T]) { //nolint:ireturn
	handle, keeper := e.make()
	if any(handle) == nil {
		panic(fmt.Sprintf("anybox: catalog %q: binding for %s returned a nil handle", e.cat, e.tname))
	}

	if keeper == nil {
		panic(fmt.Sprintf("anybox: catalog %q: binding for %s returned a nil keeper", e.cat, e.tname))
	}

	return handle, keeper
}

// lookup fetches the binding for T, panicking when the type was never bound
// in this catalog. Constructing an unbound type is a programmer error on par
// with a missing gob registration.
func lookup[I Stored, T any](c *Catalog[I]) *binding[I, T] {
	c.mu.RLock()
	entry, ok := c.bindings[reflect.TypeFor[T]()]
	c.mu.RUnlock()

	if !ok {
		panic(fmt.Sprintf("anybox: catalog %q: no binding for %s", c.name, typeName[T]()))
	}

	return entry.(*binding[I, T])
}

// releaseHook builds the hook a box fires when it lets go of a stored
// object. Nil when nobody is observing, so untracked catalogs pay nothing.
func (c *Catalog[I]) releaseHook(tname string) func() {
	if c.observer == nil {
		return nil
	}

	return func() {
		c.observer.Released(c.name, tname)
	}
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
