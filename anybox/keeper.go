package anybox

import "reflect"

// Stored marks interfaces whose values may live in a Box. A storable
// interface embeds Stored; its operations are then implemented by a type
// embedding Keeper, which supplies the one unexported method below. The
// marker seals the chain in both directions: a Box can only be instantiated
// for interfaces that carry it, and only keeper-backed implementations can
// satisfy such an interface.
type Stored interface {
	storedType() reflect.Type
}

// Keeper owns the stored value on behalf of an implementation that embeds
// it. The implementation reaches the value through the promoted Value
// accessor; the accessor is not part of any storable interface, so holders
// of the erased handle can never reach the concrete value through it.
type Keeper[T any] struct {
	held T
}

// Value returns the address of the held value.
func (k *Keeper[T]) Value() *T {
	return &k.held
}

func (k *Keeper[T]) storedType() reflect.Type {
	return reflect.TypeFor[T]()
}

// relocate moves *src into *dst and resets *src to the zero value.
type relocate[T any] func(dst, src *T)

// relocatorFor picks the relocation strategy for T once, at bind time.
// Arrays move element by element so that relocation follows the same shape
// element-wise moves would have; everything else moves as a whole.
func relocatorFor[T any]() relocate[T] {
	if reflect.TypeFor[T]().Kind() == reflect.Array {
		return relocateArray[T]
	}

	return relocateWhole[T]
}

func relocateWhole[T any](dst, src *T) {
	*dst = *src

	var zero T
	*src = zero
}

// relocateArray moves array elements in ascending index order, resetting
// each source element as it goes.
func relocateArray[T any](dst, src *T) {
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()
	zero := reflect.Zero(sv.Type().Elem())

	for i := range sv.Len() {
		dv.Index(i).Set(sv.Index(i))
		sv.Index(i).Set(zero)
	}
}
