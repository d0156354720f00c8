package anybox

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeeperValue(t *testing.T) {
	t.Parallel()

	var k Keeper[int]
	*k.Value() = 5

	assert.Equal(t, 5, k.held)
	assert.Same(t, &k.held, k.Value())
}

func TestStoredType(t *testing.T) {
	t.Parallel()

	var k Keeper[[4]string]
	assert.Equal(t, reflect.TypeFor[[4]string](), k.storedType())
}

func TestRelocateWhole(t *testing.T) {
	t.Parallel()

	src := "payload"

	var dst string

	relocateWhole(&dst, &src)
	assert.Equal(t, "payload", dst)
	assert.Empty(t, src)
}

func TestRelocateArray(t *testing.T) {
	t.Parallel()

	src := [3]int{1, 2, 3}

	var dst [3]int

	relocateArray(&dst, &src)
	assert.Equal(t, [3]int{1, 2, 3}, dst)
	assert.Equal(t, [3]int{}, src, "every source element is reset")
}

func TestRelocatorSelection(t *testing.T) {
	t.Parallel()

	t.Run("array", func(t *testing.T) {
		t.Parallel()

		src := [2]string{"a", "b"}

		var dst [2]string

		relocatorFor[[2]string]()(&dst, &src)
		assert.Equal(t, [2]string{"a", "b"}, dst)
		assert.Equal(t, [2]string{}, src)
	})

	t.Run("slice moves as a whole", func(t *testing.T) {
		t.Parallel()

		src := []int{1, 2, 3}

		var dst []int

		relocatorFor[[]int]()(&dst, &src)
		assert.Equal(t, []int{1, 2, 3}, dst)
		assert.Nil(t, src)
	})

	t.Run("struct moves as a whole", func(t *testing.T) {
		t.Parallel()

		type pair struct{ a, b int }

		src := pair{a: 1, b: 2}

		var dst pair

		relocatorFor[pair]()(&dst, &src)
		assert.Equal(t, pair{a: 1, b: 2}, dst)
		assert.Zero(t, src)
	})
}

func TestMoveInArray(t *testing.T) {
	t.Parallel()

	c := newSpeakers()

	src := [3]int{1, 2, 3}

	var b Box[speaker]
	MoveIn(c, &b, &src)

	require.True(t, b.IsDefined())
	assert.Equal(t, "[1 2 3]", b.Handle().Say())
	assert.Equal(t, [3]int{}, src, "moving in an array resets every element")
}

func TestSetArrayCopies(t *testing.T) {
	t.Parallel()

	c := newSpeakers()

	src := [3]int{4, 5, 6}

	var b Box[speaker]
	Set(c, &b, src)

	assert.Equal(t, "[4 5 6]", b.Handle().Say())
	assert.Equal(t, [3]int{4, 5, 6}, src, "a copy leaves the source intact")
}

func TestOfMovedArray(t *testing.T) {
	t.Parallel()

	c := newSpeakers()

	src := [3]int{7, 8, 9}

	b := OfMoved(c, &src)

	assert.Equal(t, "[7 8 9]", b.Handle().Say())
	assert.Equal(t, [3]int{}, src)
}

func TestRelocateArrayOfStructs(t *testing.T) {
	t.Parallel()

	type item struct {
		Name string
		N    int
	}

	src := [2]item{{Name: "a", N: 1}, {Name: "b", N: 2}}

	var dst [2]item

	relocateArray(&dst, &src)
	assert.Equal(t, [2]item{{Name: "a", N: 1}, {Name: "b", N: 2}}, dst)
	assert.Equal(t, [2]item{}, src)
}
