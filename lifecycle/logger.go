package lifecycle

import (
	"go.uber.org/zap"
)

// LogObserver writes every event to a zap logger at debug level.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver creates a LogObserver. A nil logger yields a no-op observer.
func NewLogObserver(l *zap.Logger) *LogObserver {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogObserver{log: l}
}

// OnContainerEvent implements Observer.
func (o *LogObserver) OnContainerEvent(e Event) {
	o.log.Debug("container event",
		zap.String("strategy", string(e.Strategy)),
		zap.String("event", e.Type.String()),
		zap.String("type", e.GoType))
}
