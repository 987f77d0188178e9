package lifecycle

// Strategy names the storage strategy a container uses.
type Strategy string

const (
	StrategyOwned    Strategy = "owned"
	StrategyBorrowed Strategy = "borrowed"
	StrategyLocal    Strategy = "local"
	StrategyShared   Strategy = "shared"
)

// EventType identifies a container lifecycle transition.
type EventType uint8

const (
	// EventAllocated: storage for one value was reserved.
	EventAllocated EventType = iota
	// EventInitialized: a writer deposited a valid value.
	EventInitialized
	// EventDiscarded: uninitialized storage was abandoned.
	EventDiscarded
	// EventCloned: a shared handle was duplicated.
	EventCloned
	// EventReleased: a shared handle went away without being the last one.
	EventReleased
	// EventDestroyed: the value's destructor ran.
	EventDestroyed
	// EventMovedOut: the value was handed to a move-out action.
	EventMovedOut
	// EventFreed: the storage was released.
	EventFreed
	// EventContended: an exclusive operation was refused.
	EventContended

	eventTypeCount
)

var eventNames = [...]string{
	EventAllocated:   "allocated",
	EventInitialized: "initialized",
	EventDiscarded:   "discarded",
	EventCloned:      "cloned",
	EventReleased:    "released",
	EventDestroyed:   "destroyed",
	EventMovedOut:    "moved_out",
	EventFreed:       "freed",
	EventContended:   "contended",
}

func (t EventType) String() string {
	if t < eventTypeCount {
		return eventNames[t]
	}
	return "unknown"
}

// Event represents a container lifecycle event.
type Event struct {
	Strategy Strategy
	GoType   string
	Type     EventType
}

// Observer receives notifications about container lifecycle events.
// Observers are called synchronously from the goroutine performing the
// operation and must be safe for concurrent use.
type Observer interface {
	OnContainerEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnContainerEvent(e Event) { f(e) }

type multi []Observer

func (m multi) OnContainerEvent(e Event) {
	for _, o := range m {
		o.OnContainerEvent(e)
	}
}

// Multi fans events out to every non-nil observer.
func Multi(observers ...Observer) Observer {
	out := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}
