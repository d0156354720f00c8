// Package anybox provides a move-only container that holds a value of any
// bound type behind a fixed, caller-declared interface. The concrete type is
// erased at the container boundary: once stored, a value is reachable only
// through dynamic dispatch on that interface, and the implementation backing
// each concrete type can be replaced per type without touching the interface
// or the container.
//
// Making an interface storable takes three declarations. First, the
// operations, with Stored embedded:
//
//	type Printer interface {
//		anybox.Stored
//		Print(w io.Writer)
//	}
//
// Second, one generic implementation of those operations, with Keeper
// embedded so it can reach its own value:
//
//	type printed[T any] struct {
//		anybox.Keeper[T]
//	}
//
//	func (p *printed[T]) Print(w io.Writer) {
//		fmt.Fprintf(w, "%v", *p.Value())
//	}
//
// Third, a catalog binding every type that may be stored:
//
//	var printers = anybox.NewCatalog[Printer](anybox.WithName("printers"))
//
//	func init() {
//		anybox.Bind(printers, func() (Printer, *anybox.Keeper[int]) {
//			p := new(printed[int])
//
//			return p, &p.Keeper
//		})
//	}
//
// A Box[Printer] then holds a value of any bound type and dispatches through
// Printer alone:
//
//	b := anybox.Of(printers, 5)
//	b.Handle().Print(os.Stdout)
//
//	err := anybox.Emplace(printers, b, func(s *string) error {
//		*s = "abc"
//
//		return nil
//	})
//
// Boxes move and never copy: Take transfers ownership and empties the
// source, and go vet flags plain struct copies. Concrete named container
// types embed Box and pick up its API by promotion.
package anybox

// noCopy makes go vet's copylocks check flag value copies of the type that
// contains it. The methods must stay on the pointer receiver: copylocks only
// fires for types where *T satisfies sync.Locker and T does not.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Box owns at most one value of a type bound in a catalog, erased behind the
// storable interface I. The zero value is a valid empty box.
//
// A box moves rather than copies, and a single box is not safe for
// concurrent use.
type Box[I Stored] struct {
	noCopy noCopy

	handle  I
	done    func()
	defined bool
}

// IsDefined reports whether the box currently holds a value.
func (b *Box[I]) IsDefined() bool {
	return b.defined
}

// Handle returns the erased dispatch handle. For an empty box it returns the
// zero handle, and invoking an operation on that panics; callers that have
// not already established definedness should use Get instead.
func (b *Box[I]) Handle() I { //nolint:ireturn
	return b.handle
}

// Get returns the dispatch handle and whether the box holds a value.
func (b *Box[I]) Get() (I, bool) { //nolint:ireturn
	return b.handle, b.defined
}

// Clear releases the held value, leaving the box empty. Clearing an empty
// box does nothing.
func (b *Box[I]) Clear() {
	b.release()
}

// Take moves the value held by src into b. The content b held before is
// released, src is left empty, and the stored object itself neither moves
// nor reallocates. Taking from an empty box leaves b empty; a box taking
// from itself is left unchanged.
func (b *Box[I]) Take(src *Box[I]) {
	if b == src {
		return
	}

	if !src.defined {
		b.release()

		return
	}

	handle, done := src.handle, src.done

	var zero I
	src.handle = zero
	src.done = nil
	src.defined = false

	b.install(handle, done)
}

// install hands ownership of a stored object to the box. The previous
// content is released only after the new content is in place.
func (b *Box[I]) install(handle I, done func()) {
	oldDone := b.done
	oldDefined := b.defined

	b.handle = handle
	b.done = done
	b.defined = true

	if oldDefined && oldDone != nil {
		oldDone()
	}
}

// release drops the current content, resetting the box before the release
// hook fires.
func (b *Box[I]) release() {
	if !b.defined {
		return
	}

	done := b.done

	var zero I
	b.handle = zero
	b.done = nil
	b.defined = false

	if done != nil {
		done()
	}
}
