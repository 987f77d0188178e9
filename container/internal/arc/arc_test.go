package arc

import (
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInt(v int) Arc[int] {
	a := New[int]()
	*a.Ptr() = v
	return a
}

func TestArc_CloneAndDrop(t *testing.T) {
	a := newInt(42)
	require.True(t, a.IsUnique())

	b := a.Clone()
	assert.Equal(t, int64(2), a.Count())
	assert.True(t, a.SameAllocation(&b))
	assert.Same(t, a.Ptr(), b.Ptr())

	_, ok := a.GetMut()
	assert.False(t, ok, "shared handle must not grant mutation")

	destroyed := 0
	assert.False(t, a.Drop(func(*int) { destroyed++ }))
	assert.True(t, a.Released())
	assert.Equal(t, 0, destroyed)

	p, ok := b.GetMut()
	require.True(t, ok)
	*p = 43

	assert.True(t, b.Drop(func(v *int) {
		destroyed++
		assert.Equal(t, 43, *v)
	}))
	assert.Equal(t, 1, destroyed)
}

func TestArc_TryMoveOut(t *testing.T) {
	a := newInt(42)
	b := a.Clone()

	called := false
	assert.False(t, a.TryMoveOut(func(*int) { called = true }))
	assert.False(t, called)
	assert.True(t, a.Released())
	assert.Equal(t, int64(1), b.Count())

	var got int
	assert.True(t, b.TryMoveOut(func(v *int) { got = *v }))
	assert.Equal(t, 42, got)
	assert.True(t, b.Released())
}

func TestArc_UseAfterRelease(t *testing.T) {
	a := newInt(1)
	a.Drop(nil)

	assert.Panics(t, func() { a.Ptr() })
	assert.Panics(t, func() { a.Clone() })
	assert.Panics(t, func() { a.Drop(nil) })
	assert.Panics(t, func() { a.TryMoveOut(func(*int) {}) })

	var zero Arc[int]
	assert.True(t, zero.Released())
	assert.False(t, zero.SameAllocation(&a))
}

func TestArc_CloneOverflow(t *testing.T) {
	a := newInt(1)
	a.p.count.Store(MaxRefs + 1)
	assert.Panics(t, func() { a.Clone() })
}

func TestArc_MoveOutRace(t *testing.T) {
	for goroutines := 1; goroutines <= 16; goroutines++ {
		for round := 0; round < 30; round++ {
			root := newInt(42)
			handles := make([]Arc[int], goroutines)
			for i := range handles {
				handles[i] = root.Clone()
			}
			root.Drop(func(*int) { t.Error("root must not be last") })

			var (
				wins  atomic.Int32
				value atomic.Int64
				start sync.WaitGroup
				done  sync.WaitGroup
			)
			start.Add(1)
			for i := range handles {
				done.Add(1)
				go func(h Arc[int]) {
					defer done.Done()
					start.Wait()
					runtime.Gosched()
					if h.TryMoveOut(func(v *int) { value.Store(int64(*v)) }) {
						wins.Add(1)
					}
				}(handles[i])
			}
			start.Done()
			done.Wait()

			require.Equal(t, int32(1), wins.Load(), "goroutines=%d round=%d", goroutines, round)
			require.Equal(t, int64(42), value.Load())
		}
	}
}

func TestArc_MixedDropAndMoveOut(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(12)
		root := newInt(round)
		handles := make([]Arc[int], n)
		moveOut := make([]bool, n)
		for i := range handles {
			handles[i] = root.Clone()
			moveOut[i] = rng.Intn(2) == 0
		}
		root.Drop(nil)

		var (
			finals  atomic.Int32
			winners atomic.Int32
			wg      sync.WaitGroup
		)
		for i := range handles {
			wg.Add(1)
			go func(h Arc[int], mv bool) {
				defer wg.Done()
				if mv {
					if h.TryMoveOut(func(*int) { finals.Add(1) }) {
						winners.Add(1)
					}
					return
				}
				h.Drop(func(*int) { finals.Add(1) })
			}(handles[i], moveOut[i])
		}
		wg.Wait()

		require.Equal(t, int32(1), finals.Load(), "exactly one disposition per allocation")
		require.LessOrEqual(t, winners.Load(), int32(1))
	}
}

func TestArc_LastMoveOutSucceeds(t *testing.T) {
	a := newInt(9)
	b := a.Clone()
	c := a.Clone()

	a.Drop(nil)
	assert.False(t, b.TryMoveOut(func(*int) { t.Error("not last") }))

	var got int
	assert.True(t, c.TryMoveOut(func(v *int) { got = *v }))
	assert.Equal(t, 9, got)
}
