package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"socialchat/internal/app/message"
	"socialchat/internal/pkg/metrics"
	"socialchat/internal/pkg/randx"
)

// ErrPersistFailed wraps store errors from Submit. Nothing was delivered.
var ErrPersistFailed = errors.New("message not persisted")

// Pipeline persists chat messages and fans them out to the sender and recipient.
type Pipeline struct {
	store    message.Store
	registry *Registry
	recorder metrics.Recorder
	logger   zerolog.Logger

	now   func() time.Time
	newID func() string

	pairs keyedMutex
}

// NewPipeline creates a message pipeline.
func NewPipeline(store message.Store, registry *Registry, recorder metrics.Recorder, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		registry: registry,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
		newID:    randx.MessageID,
	}
}

type submitOptions struct {
	tempID string
}

// SubmitOption customizes a single Submit call.
type SubmitOption func(*submitOptions)

// WithTempID attaches the client's provisional id to the sender echo.
func WithTempID(tempID string) SubmitOption {
	return func(o *submitOptions) { o.tempID = tempID }
}

// Submit stores a new message from senderID to recipientID and, only once it is
// committed, delivers it to both parties' live connections. The sender always
// gets the echo when connected. Offline parties are skipped.
//
// Calls for the same sender/recipient pair are serialized, so persistence and
// fan-out happen in call order for that pair.
func (p *Pipeline) Submit(ctx context.Context, senderID, recipientID string, body message.Body, opts ...SubmitOption) (message.Message, error) {
	var o submitOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := body.Validate(); err != nil {
		return message.Message{}, err
	}

	unlock := p.pairs.Lock(senderID + "\x00" + recipientID)
	defer unlock()

	msg := message.Message{
		ID:          p.newID(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        body.Text,
		Image:       body.Image,
		CreatedAt:   p.now().UTC().Truncate(time.Microsecond),
		Seen:        false,
	}

	stored, err := p.store.PersistMessage(ctx, msg)
	if err != nil {
		p.recorder.MessagePersistFailed()
		p.logger.Error().Err(err).
			Str("sender_id", senderID).
			Str("recipient_id", recipientID).
			Msg("Message persistence failed, fan-out suppressed")
		return message.Message{}, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	p.recorder.MessagePersisted()

	delivered := 0
	if p.deliverTo(senderID, Outbound{Type: EventChatMessage, Payload: stored, TempID: o.tempID}) {
		delivered++
	}
	if recipientID != senderID && p.deliverTo(recipientID, Outbound{Type: EventChatMessage, Payload: stored}) {
		delivered++
	}
	p.recorder.MessageDelivered(delivered)

	p.logger.Debug().
		Str("message_id", stored.ID).
		Int("deliveries", delivered).
		Msg("Message persisted and fanned out")

	return stored, nil
}

// deliverTo pushes evt to userID's connection. A missing binding or a full/closed
// queue counts as offline.
func (p *Pipeline) deliverTo(userID string, evt Outbound) bool {
	c, ok := p.registry.Resolve(userID)
	if !ok {
		return false
	}

	if err := c.Deliver(evt); err != nil {
		p.logger.Warn().Err(err).
			Str("user_id", userID).
			Str("conn_id", c.ID()).
			Msg("Live delivery failed, treating user as offline")
		return false
	}
	return true
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
