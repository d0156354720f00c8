// Package fanout runs one operation across many boxes concurrently. A single
// box is not safe for concurrent use, but distinct boxes are independent;
// fanout owns all cross goroutine coordination and never mutates a box.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/alitto/pond/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moveonly/anykit/anybox"
	"github.com/moveonly/anykit/lazy"
)

// ErrUndefined is reported for every box that holds no value. Callers that
// want to skip empty boxes should filter on IsDefined first.
var ErrUndefined = errors.New("fanout: box is not defined")

// ErrPanicked wraps panics recovered from an operation.
var ErrPanicked = errors.New("fanout: operation panicked")

const defaultWorkers = 8

// defaultPool backs runs that did not bring their own pool.
var defaultPool = lazy.New[pond.Pool](func() pond.Pool { //nolint:gochecknoglobals
	slog.Debug("initializing fanout worker pool", "workers", defaultWorkers)

	return pond.NewPool(defaultWorkers)
})

type options struct {
	pool   pond.Pool
	tracer trace.Tracer
}

// Option configures a single run.
type Option func(*options)

// WithPool runs the operations on the given pool instead of the shared
// package pool. The caller keeps ownership of the pool.
func WithPool(pool pond.Pool) Option {
	return func(o *options) {
		o.pool = pool
	}
}

// WithTracer overrides the global tracer for the run's span.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

func newOptions(opts []Option) *options {
	cfg := &options{}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.pool == nil {
		cfg.pool = defaultPool.Get()
	}

	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer("fanout")
	}

	return cfg
}

// Each runs op on the handle of every box. The first failure cancels the
// shared context, so operations that block should watch it; canceled peers
// report their context error. Undefined boxes contribute ErrUndefined.
// All failures come back joined, with the box position wrapped in.
func Each[I anybox.Stored](
	ctx context.Context,
	boxes []*anybox.Box[I],
	op func(context.Context, I) error,
	opts ...Option,
) error {
	results := run(ctx, "fanout.each", boxes, opts, func(ctx context.Context, handle I) (struct{}, error) {
		return struct{}{}, op(ctx, handle)
	})

	return joinResults(results)
}

// Result is the outcome of one box's operation within a Collect run.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Collect runs op on the handle of every box and gathers the outcomes in
// input order. Cancellation and error semantics match Each; the returned
// error joins every per-box failure, while the slice always has one entry
// per input box.
func Collect[I anybox.Stored, R any](
	ctx context.Context,
	boxes []*anybox.Box[I],
	op func(context.Context, I) (R, error),
	opts ...Option,
) ([]Result[R], error) {
	results := run(ctx, "fanout.collect", boxes, opts, op)

	return results, joinResults(results)
}

// run is the engine behind Each and Collect: one span per run, one pool task
// per defined box, results written at each box's input position.
func run[I anybox.Stored, R any](
	ctx context.Context,
	spanName string,
	boxes []*anybox.Box[I],
	opts []Option,
	op func(context.Context, I) (R, error),
) []Result[R] {
	cfg := newOptions(opts)

	ctx, span := cfg.tracer.Start(ctx, spanName)
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result[R], len(boxes))

	var wg sync.WaitGroup

	undefined := 0

	for i, b := range boxes {
		results[i] = Result[R]{Index: i}

		if b == nil || !b.IsDefined() {
			results[i].Err = ErrUndefined
			undefined++

			continue
		}

		handle := b.Handle()

		wg.Add(1)

		task := func() {
			defer wg.Done()

			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("%w: %v\n%s", ErrPanicked, r, debug.Stack())

					cancel()
				}
			}()

			// A canceled run skips the work but still reports why.
			if ctx.Err() != nil {
				results[i].Err = ctx.Err()

				return
			}

			value, err := op(ctx, handle)
			if err != nil {
				cancel()

				results[i].Err = err

				return
			}

			results[i].Value = value
		}

		if err := cfg.pool.Go(task); err != nil {
			wg.Done()

			results[i].Err = err

			cancel()
		}
	}

	wg.Wait()

	span.SetAttributes(
		attribute.Int("boxes", len(boxes)),
		attribute.Int("undefined", undefined),
		attribute.Int("errors", countErrors(results)),
	)

	return results
}

func countErrors[R any](results []Result[R]) int {
	n := 0

	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}

	return n
}

// joinResults folds per-box failures into one error, keeping each box's
// position visible in the chain.
func joinResults[R any](results []Result[R]) error {
	var errs []error

	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("box %d: %w", r.Index, r.Err))
		}
	}

	switch {
	case len(errs) == 0:
		return nil
	case len(errs) == 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}
