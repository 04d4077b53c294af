package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"socialchat/internal/app/message"
	"socialchat/internal/pkg/metrics"
)

// ErrSeenUpdateFailed wraps store errors from MarkSeen.
var ErrSeenUpdateFailed = errors.New("seen state not updated")

// SeenTracker moves messages to the seen state and tells the original sender.
type SeenTracker struct {
	store    message.Store
	registry *Registry
	recorder metrics.Recorder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSeenTracker creates a tracker.
func NewSeenTracker(store message.Store, registry *Registry, recorder metrics.Recorder, logger zerolog.Logger) *SeenTracker {
	return &SeenTracker{
		store:    store,
		registry: registry,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// MarkSeen marks every unseen message counterpartID sent to viewerID as seen,
// all with the same timestamp. When at least one row changed, counterpartID's
// connection (if bound) receives a message-seen receipt. Zero changes notify nobody.
func (t *SeenTracker) MarkSeen(ctx context.Context, viewerID, counterpartID string) (SeenReceipt, error) {
	seenAt := t.now().UTC().Truncate(time.Microsecond)

	count, err := t.store.BulkMarkSeen(ctx, counterpartID, viewerID, seenAt)
	if err != nil {
		t.logger.Error().Err(err).
			Str("viewer_id", viewerID).
			Str("counterpart_id", counterpartID).
			Msg("Bulk seen update failed")
		return SeenReceipt{}, fmt.Errorf("%w: %w", ErrSeenUpdateFailed, err)
	}

	receipt := SeenReceipt{By: viewerID, SeenAt: seenAt, Count: count}
	if count == 0 {
		return receipt, nil
	}
	t.recorder.MessagesSeen(count)

	c, ok := t.registry.Resolve(counterpartID)
	if !ok {
		return receipt, nil
	}

	if err := c.Deliver(Outbound{Type: EventMessageSeen, Payload: receipt}); err != nil {
		t.logger.Warn().Err(err).
			Str("user_id", counterpartID).
			Msg("Seen receipt not delivered")
	}

	return receipt, nil
}
