// Package lifecycle reports what containers do with their storage.
//
// Every container transition (allocate, initialize, clone, release, destroy,
// move out, free, refuse) can be delivered to an Observer attached to the
// heap allocator:
//
//	ledger := lifecycle.NewLedger()
//	heap := container.Heap{Observer: ledger}
//
//	c := container.InitValue(container.OwnedOn[int](heap), 42)
//	c.Drop()
//
//	if err := ledger.Balanced(); err != nil {
//	    // something leaked or was released twice
//	}
//
// Three observers are provided:
//
//	Ledger       atomic counters with a balance check, used by tests
//	Metrics      Prometheus counters and a live-allocation gauge
//	LogObserver  zap debug logging
//
// Multi combines several observers. Observers run synchronously on the
// goroutine performing the container operation and must not block.
package lifecycle
