package chat

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"socialchat/internal/app/message"
)

// fakeConn records every frame delivered to it.
type fakeConn struct {
	id string

	mu        sync.Mutex
	frames    []Outbound
	closed    bool
	closeCode int
	failing   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.NewString()}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Deliver(evt Outbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.failing {
		return ErrConnClosed
	}
	c.frames = append(c.frames, evt)
	return nil
}

func (c *fakeConn) Close(code int, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.closeCode = code
}

func (c *fakeConn) Frames() []Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.frames)
}

func (c *fakeConn) FramesOf(t EventType) []Outbound {
	var out []Outbound
	for _, f := range c.Frames() {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

// LastPresence returns the payload of the most recent online-users frame.
func (c *fakeConn) LastPresence() []string {
	frames := c.FramesOf(EventOnlineUsers)
	if len(frames) == 0 {
		return nil
	}
	return frames[len(frames)-1].Payload.([]string)
}

func (c *fakeConn) CloseCode() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode, c.closed
}

func (c *fakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// memStore is an in-memory message.Store.
type memStore struct {
	mu       sync.Mutex
	messages []message.Message
	err      error
}

func (s *memStore) PersistMessage(_ context.Context, msg message.Message) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return message.Message{}, s.err
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *memStore) BulkMarkSeen(_ context.Context, senderID, recipientID string, seenAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return 0, s.err
	}

	var n int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.SenderID == senderID && m.RecipientID == recipientID && !m.Seen {
			at := seenAt
			m.Seen = true
			m.SeenAt = &at
			n++
		}
	}
	return n, nil
}

func (s *memStore) FetchHistory(_ context.Context, userA, userB string) ([]message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	var out []message.Message
	for _, m := range s.messages {
		if (m.SenderID == userA && m.RecipientID == userB) || (m.SenderID == userB && m.RecipientID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) Messages() []message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// seed stores n unseen messages from senderID to recipientID.
func (s *memStore) seed(senderID, recipientID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range n {
		s.messages = append(s.messages, message.Message{
			ID:          uuid.NewString(),
			SenderID:    senderID,
			RecipientID: recipientID,
			Text:        strings.Repeat("x", i+1),
			CreatedAt:   time.Now().UTC(),
		})
	}
}

func userConnected(userID string) []byte {
	return []byte(fmt.Sprintf(`{"type":"user-connected","payload":%q}`, userID))
}
