package anybox

import "fmt"

// Of creates a box holding a copy of v. The type of v must be bound in c.
func Of[I Stored, T any](c *Catalog[I], v T) *Box[I] {
	b := new(Box[I])
	Set(c, b, v)

	return b
}

// OfMoved creates a box holding the value taken out of *src. The source is
// reset to its zero value, element by element in ascending order for arrays.
func OfMoved[I Stored, T any](c *Catalog[I], src *T) *Box[I] {
	b := new(Box[I])
	MoveIn(c, b, src)

	return b
}

// OfFunc creates a box whose value is initialized in place: init receives
// the zero value at its final storage location, with no intermediate copy.
// When init fails no box is created.
func OfFunc[I Stored, T any](c *Catalog[I], init func(*T) error) (*Box[I], error) {
	b := new(Box[I])
	if err := Emplace(c, b, init); err != nil {
		return nil, err
	}

	return b, nil
}

// Set replaces the content of b with a copy of v. The new stored object is
// fully constructed before the previous content is released.
func Set[I Stored, T any](c *Catalog[I], b *Box[I], v T) {
	entry := lookup[I, T](c)

	handle, keeper := entry.newObject()
	keeper.held = v

	finish(c, entry, b, handle)
}

// MoveIn replaces the content of b with the value taken out of *src, which
// is reset to its zero value, element by element in ascending order for
// arrays. The new stored object is fully constructed before the previous
// content is released.
func MoveIn[I Stored, T any](c *Catalog[I], b *Box[I], src *T) {
	if src == nil {
		panic(fmt.Sprintf("anybox: catalog %q: MoveIn from a nil source", c.name))
	}

	entry := lookup[I, T](c)

	handle, keeper := entry.newObject()
	entry.move(&keeper.held, src)

	finish(c, entry, b, handle)
}

// Emplace replaces the content of b with a value initialized in place: init
// receives the zero value at its final storage location, with no
// intermediate copy. When init returns an error or panics, b keeps its
// previous content untouched; otherwise the new stored object is installed
// and only then is the previous content released.
func Emplace[I Stored, T any](c *Catalog[I], b *Box[I], init func(*T) error) error {
	if init == nil {
		panic(fmt.Sprintf("anybox: catalog %q: Emplace with a nil initializer", c.name))
	}

	entry := lookup[I, T](c)

	handle, keeper := entry.newObject()
	if err := init(&keeper.held); err != nil {
		return err
	}

	finish(c, entry, b, handle)

	return nil
}

// finish hands the constructed object to the box: the observer learns about
// the allocation first, then install releases whatever the box held before.
func finish[I Stored, T any](c *Catalog[I], entry *binding[I, T], b *Box[I], handle I) {
	if c.observer != nil {
		c.observer.Allocated(c.name, entry.tname)
	}

	b.install(handle, c.releaseHook(entry.tname))
}
