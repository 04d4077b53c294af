package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"socialchat/internal/app/message"
	"socialchat/internal/pkg/errs"
	"socialchat/internal/pkg/logx"
	"socialchat/internal/pkg/metrics"
)

const (
	// DefaultOpTimeout bounds a single persistence call made on behalf of an event.
	DefaultOpTimeout = 5 * time.Second

	// WsCloseCodeSessionKicked tells a client its session was replaced by a newer connection.
	WsCloseCodeSessionKicked = 4001
)

// Hub is the process-wide presence authority. It owns the connection registry
// and routes decoded events to the pipeline, seen tracker and typing relay.
type Hub struct {
	registry *Registry
	presence *Presence
	pipeline *Pipeline
	seen     *SeenTracker
	typing   *TypingRelay
	store    message.Store
	recorder metrics.Recorder
	logger   zerolog.Logger

	// baseCtx outlives individual connections: a disconnect never cancels an
	// in-flight persistence call. It is cancelled on Shutdown.
	baseCtx   context.Context
	cancel    context.CancelFunc
	opTimeout time.Duration
}

// Option configures a Hub.
type Option func(*Hub)

// WithRecorder reports hub activity to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(h *Hub) { h.recorder = r }
}

// WithOpTimeout overrides DefaultOpTimeout.
func WithOpTimeout(d time.Duration) Option {
	return func(h *Hub) { h.opTimeout = d }
}

// NewHub wires the realtime core on top of store.
func NewHub(store message.Store, opts ...Option) *Hub {
	h := &Hub{
		registry:  NewRegistry(),
		store:     store,
		recorder:  metrics.Nop{},
		logger:    logx.Component("Hub"),
		opTimeout: DefaultOpTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.baseCtx, h.cancel = context.WithCancel(context.Background())
	h.presence = NewPresence(h.registry, h.recorder, h.logger.With().Str("unit", "presence").Logger())
	h.pipeline = NewPipeline(store, h.registry, h.recorder, h.logger.With().Str("unit", "pipeline").Logger())
	h.seen = NewSeenTracker(store, h.registry, h.recorder, h.logger.With().Str("unit", "seen").Logger())
	h.typing = NewTypingRelay(h.registry, h.recorder, h.logger.With().Str("unit", "typing").Logger())

	h.logger.Info().Msg("Hub started.")
	return h
}

// Attach registers a freshly opened connection for presence broadcasts.
func (h *Hub) Attach(c Conn) {
	h.presence.Attach(c)
}

// Detach unconditionally unbinds c. Safe to call more than once.
func (h *Hub) Detach(c Conn) {
	if userID, ok := h.presence.Detach(c); ok {
		h.logger.Info().Str("user_id", userID).Str("conn_id", c.ID()).Msg("User went offline.")
	}
}

// Handle routes one decoded event from c. Failures are acknowledged to c with
// an error frame and also returned.
func (h *Hub) Handle(c Conn, evt Inbound) error {
	switch e := evt.(type) {
	case UserConnected:
		h.bind(c, e)
		return nil

	case ChatMessage:
		ctx, cancel := context.WithTimeout(h.baseCtx, h.opTimeout)
		defer cancel()

		_, err := h.pipeline.Submit(ctx, e.From, e.To, e.Body, WithTempID(e.TempID))
		if err != nil {
			h.Reject(c, err, e.TempID)
		}
		return err

	case MarkSeen:
		ctx, cancel := context.WithTimeout(h.baseCtx, h.opTimeout)
		defer cancel()

		// From is the original sender, To is the viewer.
		_, err := h.seen.MarkSeen(ctx, e.To, e.From)
		if err != nil {
			h.Reject(c, err, "")
		}
		return err

	case Typing:
		h.typing.NotifyTyping(e.From, e.To, e.IsTyping)
		return nil
	}

	err := fmt.Errorf("%w: %T", ErrUnknownEvent, evt)
	h.Reject(c, err, "")
	return err
}

func (h *Hub) bind(c Conn, e UserConnected) {
	replaced := h.presence.Bind(e.UserID, c)

	h.logger.Info().
		Str("user_id", e.UserID).
		Str("display_name", e.DisplayName).
		Str("conn_id", c.ID()).
		Msg("User bound to connection.")

	if replaced != nil {
		h.logger.Warn().
			Str("user_id", e.UserID).
			Str("old_conn_id", replaced.ID()).
			Msg("Existing session replaced by new connection.")

		go replaced.Close(WsCloseCodeSessionKicked, errs.NewError(errs.ErrSessionKicked).Message)
	}
}

// Reject sends an error frame for err to c.
func (h *Hub) Reject(c Conn, err error, tempID string) {
	code := errorCode(err)
	h.recorder.EventRejected(fmt.Sprint(code))

	customErr := errs.NewError(code)
	frame := Outbound{
		Type:    EventError,
		Payload: ErrorPayload{Code: customErr.Code, Message: customErr.Message},
		TempID:  tempID,
	}

	if deliverErr := c.Deliver(frame); deliverErr != nil {
		h.logger.Debug().Err(deliverErr).Str("conn_id", c.ID()).Msg("Error frame not delivered")
	}
}

// errorCode maps core errors onto the client-facing code table.
func errorCode(err error) int {
	switch {
	case errors.Is(err, ErrPersistFailed):
		return errs.ErrMessagePersistFailed
	case errors.Is(err, ErrSeenUpdateFailed):
		return errs.ErrSeenUpdateFailed
	case errors.Is(err, message.ErrTextTooLong):
		return errs.ErrMessageContentTooLong
	case errors.Is(err, message.ErrInvalidImageKey):
		return errs.ErrAttachmentKeyInvalid
	case errors.Is(err, ErrUnknownEvent):
		return errs.ErrUnknownEvent
	case errors.Is(err, ErrMalformedEvent),
		errors.Is(err, message.ErrEmptyBody),
		errors.Is(err, message.ErrAmbiguousBody):
		return errs.ErrMalformedEvent
	}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		return customErr.Code
	}
	return errs.ErrUnknown
}

// NotifyUser pushes evt to userID's live connection. Best effort.
func (h *Hub) NotifyUser(userID string, evt Outbound) bool {
	c, ok := h.registry.Resolve(userID)
	if !ok {
		return false
	}
	return c.Deliver(evt) == nil
}

// IsOnline reports whether userID is bound.
func (h *Hub) IsOnline(userID string) bool {
	_, ok := h.registry.Resolve(userID)
	return ok
}

// Online returns the current presence snapshot.
func (h *Hub) Online() []string {
	return h.registry.Snapshot()
}

// History returns the conversation between two users from the store, oldest first.
func (h *Hub) History(ctx context.Context, userA, userB string) ([]message.Message, error) {
	return h.store.FetchHistory(ctx, userA, userB)
}

// Shutdown closes every live connection and cancels outstanding persistence calls.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down Hub...")

	conns := h.presence.Live()
	for _, c := range conns {
		c.Close(websocket.CloseGoingAway, "server shutting down")
	}

	h.cancel()

	h.logger.Info().Int("closed_connections", len(conns)).Msg("Hub shutdown complete.")
}
