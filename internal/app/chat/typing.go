package chat

import (
	"github.com/rs/zerolog"

	"socialchat/internal/pkg/metrics"
)

// TypingRelay forwards typing signals to a single bound target.
// Nothing is stored or queued: a signal for an offline user is dropped.
type TypingRelay struct {
	registry *Registry
	recorder metrics.Recorder
	logger   zerolog.Logger
}

// NewTypingRelay creates a relay.
func NewTypingRelay(registry *Registry, recorder metrics.Recorder, logger zerolog.Logger) *TypingRelay {
	return &TypingRelay{registry: registry, recorder: recorder, logger: logger}
}

// NotifyTyping reports whether the signal reached toID's connection.
func (r *TypingRelay) NotifyTyping(fromID, toID string, isTyping bool) bool {
	c, ok := r.registry.Resolve(toID)
	if !ok {
		r.recorder.TypingRelayed(false)
		return false
	}

	err := c.Deliver(Outbound{
		Type:    EventTyping,
		Payload: TypingPayload{From: fromID, IsTyping: isTyping},
	})
	if err != nil {
		r.logger.Debug().Err(err).Str("user_id", toID).Msg("Typing signal dropped")
	}

	r.recorder.TypingRelayed(err == nil)
	return err == nil
}
