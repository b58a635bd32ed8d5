package log

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// NewSessionID returns a fresh identifier for one driver run.
func NewSessionID() string {
	return uuid.NewString()
}

// CaptureSink records every message it forwards. It wraps the sink handed to
// a strip observer so that the capture reflects exactly what the observer
// emitted, in order.
type CaptureSink struct {
	next      wire.Sink
	logger    Logger
	sessionID string
	now       func() time.Time
}

// NewCaptureSink wraps next. A nil next makes the sink capture-only.
func NewCaptureSink(next wire.Sink, logger Logger, sessionID string) *CaptureSink {
	if logger == nil {
		logger = NoopLogger{}
	}
	return &CaptureSink{
		next:      next,
		logger:    logger,
		sessionID: sessionID,
		now:       time.Now,
	}
}

// Send records msg and forwards it.
func (c *CaptureSink) Send(msg wire.Message) {
	c.logger.Log(Event{
		Timestamp: c.now(),
		SessionID: c.sessionID,
		Direction: DirectionOut,
		Layer:     LayerFeedback,
		Category:  CategoryMessage,
		SlotID:    msg.SlotID,
		Message: &MessageEvent{
			Path:    msg.Path,
			Payload: msg.Payload,
			Routing: msg.Routing,
		},
	})
	if c.next != nil {
		c.next.Send(msg)
	}
}

// Close closes the wrapped sink when it holds a resource.
func (c *CaptureSink) Close() error {
	if closer, ok := c.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

var (
	_ wire.Sink = (*CaptureSink)(nil)
	_ io.Closer = (*CaptureSink)(nil)
)
