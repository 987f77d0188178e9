package lifecycle

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func emit(o Observer, s Strategy, types ...EventType) {
	for _, t := range types {
		o.OnContainerEvent(Event{Strategy: s, GoType: "int", Type: t})
	}
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "allocated", EventAllocated.String())
	assert.Equal(t, "moved_out", EventMovedOut.String())
	assert.Equal(t, "contended", EventContended.String())
	assert.Equal(t, "unknown", EventType(200).String())
}

func TestLedger_Balanced(t *testing.T) {
	l := NewLedger()
	emit(l, StrategyOwned, EventAllocated, EventInitialized, EventDestroyed, EventFreed)
	emit(l, StrategyShared, EventAllocated, EventInitialized, EventCloned, EventReleased, EventMovedOut, EventFreed)
	emit(l, StrategyOwned, EventAllocated, EventDiscarded)

	require.NoError(t, l.Balanced())
	assert.Equal(t, int64(0), l.Live())
	assert.Equal(t, int64(3), l.Count(EventAllocated))
	assert.Equal(t, int64(1), l.Snapshot()["cloned"])
}

func TestLedger_DetectsLeak(t *testing.T) {
	l := NewLedger()
	emit(l, StrategyOwned, EventAllocated, EventInitialized)

	assert.Error(t, l.Balanced())
	assert.Equal(t, int64(1), l.Live())
}

func TestLedger_DetectsDoubleFinalize(t *testing.T) {
	l := NewLedger()
	emit(l, StrategyBorrowed, EventInitialized, EventMovedOut, EventDestroyed)

	assert.Error(t, l.Balanced())
}

func TestLedger_Concurrent(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			emit(l, StrategyShared, EventAllocated, EventFreed)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), l.Count(EventAllocated))
	assert.NoError(t, l.Balanced())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	emit(m, StrategyShared, EventAllocated, EventAllocated, EventCloned, EventFreed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("shared", "allocated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("shared", "cloned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.live.WithLabelValues("shared")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "second registration should conflict")
}

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	o := NewLogObserver(zap.New(core))

	emit(o, StrategyLocal, EventContended)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "container event", entry.Message)
	assert.Equal(t, "contended", entry.ContextMap()["event"])
	assert.Equal(t, "local", entry.ContextMap()["strategy"])

	assert.NotPanics(t, func() { emit(NewLogObserver(nil), StrategyLocal, EventFreed) })
}

func TestMulti(t *testing.T) {
	a, b := NewLedger(), NewLedger()
	var calls int
	f := ObserverFunc(func(Event) { calls++ })

	m := Multi(a, nil, b, f)
	emit(m, StrategyOwned, EventAllocated)

	assert.Equal(t, int64(1), a.Count(EventAllocated))
	assert.Equal(t, int64(1), b.Count(EventAllocated))
	assert.Equal(t, 1, calls)

	assert.Nil(t, Multi(nil, nil))
	assert.Same(t, a, Multi(nil, a))
}
