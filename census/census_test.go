package census

import (
	"fmt"
	"sync"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moveonly/anykit/anybox"
)

// counted is the storable interface used by the integration tests.
type counted interface {
	anybox.Stored
	Kind() string
}

type countedImpl[T any] struct {
	anybox.Keeper[T]
}

func (c *countedImpl[T]) Kind() string {
	return fmt.Sprintf("%T", *c.Value())
}

func newWatched(t *testing.T, tr *Tracker) *anybox.Catalog[counted] {
	t.Helper()

	c := anybox.NewCatalog[counted](
		anybox.WithName("watched"),
		anybox.WithLogger(slogt.New(t)),
		anybox.WithObserver(tr),
	)

	anybox.Bind(c, func() (counted, *anybox.Keeper[int]) {
		impl := new(countedImpl[int])

		return impl, &impl.Keeper
	})
	anybox.Bind(c, func() (counted, *anybox.Keeper[string]) {
		impl := new(countedImpl[string])

		return impl, &impl.Keeper
	})

	return c
}

func TestTrackerCounts(t *testing.T) {
	t.Parallel()

	tr := New(WithLogger(slogt.New(t)))

	tr.Allocated("boxes", "int")
	tr.Allocated("boxes", "int")
	tr.Allocated("boxes", "string")
	tr.Released("boxes", "int")

	assert.Equal(t, int64(2), tr.Live())

	leaks := tr.Leaks()
	require.Len(t, leaks, 2)
	assert.Equal(t, int64(1), leaks[0].Live)
	assert.Equal(t, int64(2), leaks[0].Created)
	assert.Equal(t, int64(1), leaks[0].Released)
	assert.Equal(t, "int", leaks[0].Type)
	assert.Equal(t, "string", leaks[1].Type)
}

func TestTrackerWatchesCatalog(t *testing.T) {
	t.Parallel()

	tr := New(WithLogger(slogt.New(t)))
	c := newWatched(t, tr)

	b := anybox.Of(c, 5)
	assert.Equal(t, int64(1), tr.Live())

	err := anybox.Emplace(c, b, func(s *string) error {
		*s = "abc"

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tr.Live(), "emplace releases the old object for the new one")

	var moved anybox.Box[counted]
	moved.Take(b)
	assert.Equal(t, int64(1), tr.Live(), "a move transfers ownership without an allocation")
	assert.Equal(t, "string", moved.Handle().Kind())

	moved.Clear()
	assert.Equal(t, int64(0), tr.Live())
	assert.Empty(t, tr.Leaks())
}

func TestLeaks(t *testing.T) {
	t.Parallel()

	tr := New(WithLogger(slogt.New(t)))
	c := newWatched(t, tr)

	anybox.Of(c, 1)
	anybox.Of(c, 2)
	released := anybox.Of(c, "bye")
	released.Clear()

	leaks := tr.Leaks()
	require.Len(t, leaks, 1)
	assert.Equal(t, "int", leaks[0].Type)
	assert.Equal(t, int64(2), leaks[0].Live)

	assert.Equal(t, 1, tr.LogLeaks())
}

func TestLogLeaksClean(t *testing.T) {
	t.Parallel()

	tr := New(WithLogger(slogt.New(t)))

	assert.Equal(t, 0, tr.LogLeaks())
}

func TestDoubleReleaseIsReported(t *testing.T) {
	t.Parallel()

	tr := New(WithLogger(slogt.New(t)))

	tr.Allocated("boxes", "int")
	tr.Released("boxes", "int")
	tr.Released("boxes", "int")

	assert.Equal(t, int64(-1), tr.Live())
	assert.Empty(t, tr.Leaks(), "an over-released entry is not a leak")

	report := tr.Report()
	require.Len(t, report.Entries, 1)
	assert.Equal(t, int64(1), report.Entries[0].Created)
	assert.Equal(t, int64(2), report.Entries[0].Released)
	assert.Equal(t, int64(-1), report.Entries[0].Live)
}

func TestTrackerConcurrent(t *testing.T) {
	t.Parallel()

	tr := New(WithLogger(slogt.New(t)))

	const perWorker = 100

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range perWorker {
				tr.Allocated("boxes", "int")
				tr.Released("boxes", "int")
				tr.Allocated("boxes", "string")
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(8*perWorker), tr.Live())

	leaks := tr.Leaks()
	require.Len(t, leaks, 1)
	assert.Equal(t, "string", leaks[0].Type)
	assert.Equal(t, int64(8*perWorker), leaks[0].Created)
}
