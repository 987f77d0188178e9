package container

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rterrors "github.com/wippyai/pinned-runtime/errors"
	"github.com/wippyai/pinned-runtime/lifecycle"
	"github.com/wippyai/pinned-runtime/relocate"
)

// tracked counts destructor runs through a pointer shared by all copies.
type tracked struct {
	drops *int
	v     int
}

func (t *tracked) Drop() {
	if t.drops != nil {
		*t.drops++
	}
}

// anchored stores its own address and must be moved through RelocateFrom.
type anchored struct {
	relocate.Pinned
	v int
}

func (a *anchored) RelocateFrom(src *anchored) {
	src.CheckPinned()
	a.v = src.v
	a.Pin()
	src.Unpin()
}

type celsius float64

func (c celsius) String() string { return fmt.Sprintf("%.1f°C", float64(c)) }

func observed() (Heap, *lifecycle.Ledger) {
	l := lifecycle.NewLedger()
	return Heap{Observer: l}, l
}

func TestOwned_MoveOut(t *testing.T) {
	heap, ledger := observed()
	c := InitValue(OwnedOn[int](heap), 42)

	v, err := Take[int](c)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Panics(t, func() { c.Get() })
	require.NoError(t, ledger.Balanced())
}

func TestOwned_InnerMutation(t *testing.T) {
	c := NewOwned(1)
	*c.Inner() = 2

	p, ok := c.TryInner()
	require.True(t, ok)
	assert.Equal(t, 2, *p)
	assert.Same(t, p, c.Get(), "address must be stable")
	assert.Equal(t, lifecycle.StrategyOwned, c.Strategy())
	c.Drop()
}

func TestOwned_DropRunsDestructorOnce(t *testing.T) {
	heap, ledger := observed()
	drops := 0
	c := InitValue(OwnedOn[tracked](heap), tracked{drops: &drops, v: 1})
	c.Drop()

	assert.Equal(t, 1, drops)
	assert.Panics(t, func() { c.Drop() })
	assert.Equal(t, 1, drops)
	require.NoError(t, ledger.Balanced())
}

func TestOwned_MoveOutSkipsDestructor(t *testing.T) {
	drops := 0
	c := NewOwned(tracked{drops: &drops, v: 7})

	got := MoveOut[tracked](c, func(src *tracked) int { return src.v })
	assert.Equal(t, 7, got)
	assert.Equal(t, 0, drops)
}

func TestShared_SecondHandleWins(t *testing.T) {
	heap, ledger := observed()
	a := InitValue(SharedOn[int](heap), 42)
	b := a.Clone()

	_, err := Take[int](a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotUnique)
	var rerr *rterrors.Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, rterrors.PhaseMoveOut, rerr.Phase)
	assert.Panics(t, func() { a.Get() }, "failed shared move-out consumes the handle")

	v, err := Take[int](b)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	require.NoError(t, ledger.Balanced())
	assert.Equal(t, int64(1), ledger.Count(lifecycle.EventContended))
}

func TestShared_UniquenessGating(t *testing.T) {
	a := NewShared(5)
	b := a.Clone()
	assert.True(t, a.SameAllocation(b))
	assert.Equal(t, int64(2), a.Count())

	_, ok := a.TryInner()
	assert.False(t, ok)
	_, ok = b.TryInner()
	assert.False(t, ok)

	b.Drop()
	p, ok := a.TryInner()
	require.True(t, ok)
	*p = 6
	assert.Equal(t, 6, *a.Get())
	assert.True(t, a.IsUnique())
	a.Drop()
}

func TestShared_DestructorRunsOnLastDrop(t *testing.T) {
	heap, ledger := observed()
	drops := 0
	a := InitValue(SharedOn[tracked](heap), tracked{drops: &drops})
	clones := []*Shared[tracked]{a.Clone(), a.Clone(), a.Clone()}

	a.Drop()
	for _, c := range clones[:2] {
		c.Drop()
	}
	assert.Equal(t, 0, drops)
	clones[2].Drop()
	assert.Equal(t, 1, drops)

	require.NoError(t, ledger.Balanced())
	assert.Equal(t, int64(3), ledger.Count(lifecycle.EventReleased))
}

func TestLocal_RefusedMoveOutKeepsHandle(t *testing.T) {
	heap, ledger := observed()
	a := InitValue(LocalOn[int](heap), 42)
	b := a.Clone()

	_, err := Take[int](a)
	assert.ErrorIs(t, err, ErrNotUnique)
	assert.Equal(t, 42, *a.Get(), "refused local move-out leaves the handle usable")
	assert.Equal(t, int64(2), b.Count())

	_, ok := b.TryInner()
	assert.False(t, ok)

	b.Drop()
	assert.True(t, a.IsUnique())
	v, err := Take[int](a)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	require.NoError(t, ledger.Balanced())
}

func TestLocal_DropAll(t *testing.T) {
	drops := 0
	a := NewLocal(tracked{drops: &drops})
	b := a.Clone()
	assert.True(t, a.SameAllocation(b))

	b.Drop()
	assert.Equal(t, 0, drops)
	a.Drop()
	assert.Equal(t, 1, drops)
	assert.Panics(t, func() { a.Clone() })
}

func TestBorrowed_SlotSafety(t *testing.T) {
	heap, ledger := observed()
	drops := 0
	var slot tracked

	b := InitValue(BorrowedIn(&slot).Observe(heap), tracked{drops: &drops, v: 3})
	assert.Same(t, &slot, b.Get())
	assert.True(t, b.Live())

	o := Move[tracked](b, OwnedOn[tracked](heap))
	assert.False(t, b.Live())
	assert.Equal(t, tracked{}, slot, "slot is cleared after the value leaves")

	b.Drop()
	assert.Equal(t, 0, drops, "drop after move-out is a no-op")
	assert.Panics(t, func() { b.Get() })

	assert.Equal(t, 3, o.Get().v)
	o.Drop()
	assert.Equal(t, 1, drops)
	require.NoError(t, ledger.Balanced())
}

func TestBorrowed_Drop(t *testing.T) {
	drops := 0
	var slot tracked
	b := InitValue(BorrowedIn(&slot), tracked{drops: &drops})

	b.Drop()
	b.Drop()
	assert.Equal(t, 1, drops)

	assert.Panics(t, func() { BorrowedIn[int](nil).Allocate() })
}

func TestConvert_RoundTrip(t *testing.T) {
	heap, ledger := observed()
	move, moves := relocate.Counting(relocate.Of[anchored]())

	o, err := InitWith(OwnedOn[anchored](heap), func(dst *anchored) error {
		dst.v = 42
		dst.Pin()
		return nil
	})
	require.NoError(t, err)

	s, err := ConvertWith[anchored](o, SharedOn[anchored](heap), move)
	require.NoError(t, err)
	assert.Equal(t, int64(1), moves.Load())
	assert.NotPanics(t, func() { s.Get().CheckPinned() })
	assert.Equal(t, 42, s.Get().v)

	back, err := ConvertWith[anchored](s, OwnedOn[anchored](heap), move)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moves.Load())
	assert.True(t, back.Get().IsPinned())
	assert.Equal(t, 42, back.Get().v)

	back.Drop()
	require.NoError(t, ledger.Balanced())
}

func TestConvert_FailsWhenShared(t *testing.T) {
	a := NewShared(1)
	b := a.Clone()

	_, err := Convert[int](a, OwnedOn[int](Heap{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotUnique)
	var rerr *rterrors.Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, rterrors.PhaseConvert, rerr.Phase)
	assert.Equal(t, int64(2), rerr.Value)

	// the refused source keeps its handle
	assert.Equal(t, 1, *a.Get())
	assert.Equal(t, int64(2), b.Count())

	_, err = Convert[int](b, LocalOn[int](Heap{}))
	assert.ErrorIs(t, err, ErrNotUnique)

	a.Drop()
	o, err := Convert[int](b, OwnedOn[int](Heap{}))
	require.NoError(t, err)
	assert.Equal(t, 1, *o.Get())
}

func TestConvert_RefusedLocalKeepsHandle(t *testing.T) {
	heap, ledger := observed()
	a := InitValue(LocalOn[int](heap), 5)
	b := a.Clone()

	_, err := Convert[int](a, SharedOn[int](heap))
	assert.ErrorIs(t, err, ErrNotUnique)
	assert.Equal(t, int64(2), a.Count())

	b.Drop()
	s, err := Convert[int](a, SharedOn[int](heap))
	require.NoError(t, err)
	assert.Equal(t, 5, *s.Get())
	s.Drop()
	require.NoError(t, ledger.Balanced())
}

func TestConvert_LocalToBorrowed(t *testing.T) {
	var slot int
	l := NewLocal(9)

	b, err := Convert[int](l, BorrowedIn(&slot))
	require.NoError(t, err)
	assert.Equal(t, 9, slot)
	assert.Same(t, &slot, b.Get())
}

func TestConvert_IntoSourceSlotPanics(t *testing.T) {
	var slot int
	b := InitValue(BorrowedIn(&slot), 7)

	var rerr *rterrors.Error
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "converting into the source slot must not succeed")
			var ok bool
			rerr, ok = r.(*rterrors.Error)
			require.True(t, ok, "panic value %v", r)
		}()
		_, _ = Convert[int](b, BorrowedIn(&slot))
	}()
	assert.Equal(t, rterrors.PhaseConvert, rerr.Phase)
	assert.Equal(t, rterrors.KindContract, rerr.Kind)
	assert.Contains(t, rerr.Error(), "destination aliases source")

	var other int
	c := InitValue(BorrowedIn(&other), 8)
	assert.Panics(t, func() { Move[int](c, BorrowedIn(&other)) })
}

func TestInitWith_FailureDiscards(t *testing.T) {
	heap, ledger := observed()
	boom := errors.New("domain rejected")

	c, err := InitWith(SharedOn[int](heap), func(dst *int) error {
		*dst = 13
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, c)
	assert.Equal(t, int64(1), ledger.Count(lifecycle.EventDiscarded))
	assert.Equal(t, int64(0), ledger.Count(lifecycle.EventInitialized))
	require.NoError(t, ledger.Balanced())
}

func TestUninit_SingleUse(t *testing.T) {
	u := OwnedOn[int](Heap{}).Allocate()
	*u.Ptr() = 1
	c := u.Init()

	assert.Panics(t, func() { u.Ptr() })
	assert.Panics(t, func() { u.Init() })
	assert.Panics(t, func() { u.Discard() })
	assert.Equal(t, 1, *c.Get())
}

func TestPinnedValueContracts(t *testing.T) {
	assert.Panics(t, func() { InitValue(OwnedOn[anchored](Heap{}), anchored{}) })

	o, err := InitWith(OwnedOn[anchored](Heap{}), func(dst *anchored) error {
		dst.Pin()
		return nil
	})
	require.NoError(t, err)
	assert.Panics(t, func() { _, _ = Take[anchored](o) })
}

func TestStringForwarding(t *testing.T) {
	assert.Equal(t, "21.5°C", NewOwned(celsius(21.5)).String())
	assert.Equal(t, "7", NewShared(7).String())
	assert.Equal(t, "true", NewLocal(true).String())

	var slot celsius
	b := InitValue(BorrowedIn(&slot), celsius(-4))
	assert.Equal(t, "-4.0°C", fmt.Sprint(b))
}

func TestStrategies(t *testing.T) {
	var slot int
	cases := []struct {
		c    Container[int]
		want lifecycle.Strategy
	}{
		{NewOwned(0), lifecycle.StrategyOwned},
		{InitValue(BorrowedIn(&slot), 0), lifecycle.StrategyBorrowed},
		{NewLocal(0), lifecycle.StrategyLocal},
		{NewShared(0), lifecycle.StrategyShared},
	}
	for _, tc := range cases {
		t.Run(string(tc.want), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.c.Strategy())
			tc.c.Drop()
		})
	}
}
