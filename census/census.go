// Package census keeps a live population count of stored objects. A Tracker
// plugs into a catalog as its observer and counts, per catalog and stored
// type, how many objects were created, how many were released and how many
// are still alive. Anything still alive is either genuinely in use or a box
// that was dropped without being cleared, moved out or replaced, which is
// how ownership leaks show up in a report.
package census

import (
	"log/slog"
	"sync"

	"go.uber.org/atomic"
)

type config struct {
	log *slog.Logger
}

// Option configures a tracker.
type Option func(*config)

// WithLogger sets the logger used for leak and double release reporting.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// Tracker counts stored object lifecycles. It satisfies the observer
// contract of a catalog and may watch any number of catalogs at once; all
// methods are safe for concurrent use.
type Tracker struct {
	log  *slog.Logger
	live *atomic.Int64

	mu      sync.RWMutex
	entries map[key]*entry
}

type key struct {
	catalog  string
	typeName string
}

type entry struct {
	created  *atomic.Int64
	released *atomic.Int64
}

// New creates an empty tracker.
func New(opts ...Option) *Tracker {
	cfg := &config{
		log: slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	trackersCreated.Inc()

	return &Tracker{
		log:     cfg.log,
		live:    atomic.NewInt64(0),
		entries: make(map[key]*entry),
	}
}

// Allocated records that a box took ownership of a freshly constructed
// object of the given type.
func (t *Tracker) Allocated(catalog, typeName string) {
	e := t.entry(catalog, typeName)
	e.created.Inc()
	t.live.Inc()

	objectsLive.WithLabelValues(catalog, typeName).Inc()
	objectsCreated.WithLabelValues(catalog, typeName).Inc()
}

// Released records that a box let go of a stored object of the given type.
func (t *Tracker) Released(catalog, typeName string) {
	e := t.entry(catalog, typeName)
	released := e.released.Inc()
	t.live.Dec()

	objectsLive.WithLabelValues(catalog, typeName).Dec()
	objectsReleased.WithLabelValues(catalog, typeName).Inc()

	if released > e.created.Load() {
		doubleReleases.WithLabelValues(catalog, typeName).Inc()
		t.log.Error("stored object released more often than created",
			"catalog", catalog,
			"type", typeName)
	}
}

// Live returns the number of stored objects currently alive across every
// watched catalog.
func (t *Tracker) Live() int64 {
	return t.live.Load()
}

// Leaks returns the entries that still have live objects, in natural order.
func (t *Tracker) Leaks() []Entry {
	return t.snapshot(true)
}

// LogLeaks writes one warning per leaking entry and returns the number of
// entries logged. Intended for teardown paths where everything should
// already have been released.
func (t *Tracker) LogLeaks() int {
	leaks := t.Leaks()
	for _, leak := range leaks {
		t.log.Warn("stored objects still alive",
			"catalog", leak.Catalog,
			"type", leak.Type,
			"tag", leak.Tag,
			"live", leak.Live)
	}

	return len(leaks)
}

// entry returns the counter pair for one (catalog, type), creating it on
// first sight.
func (t *Tracker) entry(catalog, typeName string) *entry {
	k := key{catalog: catalog, typeName: typeName}

	t.mu.RLock()
	e, ok := t.entries[k]
	t.mu.RUnlock()

	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok = t.entries[k]
	if !ok {
		e = &entry{
			created:  atomic.NewInt64(0),
			released: atomic.NewInt64(0),
		}
		t.entries[k] = e
	}

	return e
}
