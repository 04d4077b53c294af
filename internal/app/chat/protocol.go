/*
Package chat is the realtime core: it binds user identities to live connections,
broadcasts presence, and routes direct messages, seen receipts and typing signals.

This file defines the wire protocol. Every frame is a JSON envelope
{"type": ..., "payload": ..., "tempId": ...}. Inbound frames are decoded into a
closed set of typed events before any core logic sees them.
*/
package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"socialchat/internal/app/message"
)

// EventType names a frame on the wire.
type EventType string

// Client to server.
const (
	EventUserConnected EventType = "user-connected"
	EventChatMessage   EventType = "chat-message"
	EventMarkSeen      EventType = "mark-seen"
	EventSeenMessage   EventType = "seen-message"
	EventTyping        EventType = "typing"
	EventTypingStart   EventType = "typing-start"
	EventTypingStop    EventType = "typing-stop"
)

// Server to client. EventChatMessage and EventTyping are used in both directions.
const (
	EventOnlineUsers    EventType = "online-users"
	EventMessageSeen    EventType = "message-seen"
	EventError          EventType = "error"
	EventFriendRequest  EventType = "friend-request"
	EventFriendAccepted EventType = "friend-accepted"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event type")
)

// Envelope is the raw inbound frame.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	TempID  string          `json:"tempId,omitempty"`
}

// Outbound is a frame sent to a client.
type Outbound struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
	TempID  string    `json:"tempId,omitempty"`
}

// Inbound is one of UserConnected, ChatMessage, MarkSeen or Typing.
type Inbound interface {
	Kind() EventType
}

// UserConnected announces the identity of the connection.
type UserConnected struct {
	UserID      string
	DisplayName string
}

// ChatMessage submits a direct message.
type ChatMessage struct {
	From   string
	To     string
	Body   message.Body
	TempID string
}

// MarkSeen reports that To has viewed the messages From sent them.
type MarkSeen struct {
	From string
	To   string
}

// Typing is an ephemeral typing signal from From to To.
type Typing struct {
	From     string
	To       string
	IsTyping bool
}

func (UserConnected) Kind() EventType { return EventUserConnected }
func (ChatMessage) Kind() EventType   { return EventChatMessage }
func (MarkSeen) Kind() EventType      { return EventMarkSeen }
func (Typing) Kind() EventType        { return EventTyping }

// TypingPayload is relayed to the typing target.
type TypingPayload struct {
	From     string `json:"from"`
	IsTyping bool   `json:"isTyping"`
}

// SeenReceipt tells the original sender that By viewed their messages.
type SeenReceipt struct {
	By     string    `json:"by"`
	SeenAt time.Time `json:"seenAt"`
	Count  int64     `json:"count"`
}

// ErrorPayload is the body of an "error" frame.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ParseEnvelope decodes the outer frame.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	return env, nil
}

// Decode validates the payload and returns the typed event.
func (e Envelope) Decode() (Inbound, error) {
	switch e.Type {
	case EventUserConnected:
		return decodeUserConnected(e.Payload)

	case EventChatMessage:
		var p struct {
			From  string `json:"from"`
			To    string `json:"to"`
			Text  string `json:"text"`
			Image string `json:"image"`
		}
		if err := unmarshalPayload(e.Payload, &p); err != nil {
			return nil, err
		}
		from, to, err := requireRoute(p.From, p.To)
		if err != nil {
			return nil, err
		}
		body := message.Body{Text: p.Text, Image: p.Image}.Normalize()
		if err := body.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
		}
		return ChatMessage{From: from, To: to, Body: body, TempID: e.TempID}, nil

	case EventMarkSeen, EventSeenMessage:
		var p struct {
			From string `json:"from"`
			To   string `json:"to"`
		}
		if err := unmarshalPayload(e.Payload, &p); err != nil {
			return nil, err
		}
		from, to, err := requireRoute(p.From, p.To)
		if err != nil {
			return nil, err
		}
		return MarkSeen{From: from, To: to}, nil

	case EventTyping, EventTypingStart, EventTypingStop:
		var p struct {
			From     string `json:"from"`
			To       string `json:"to"`
			IsTyping *bool  `json:"isTyping"`
		}
		if err := unmarshalPayload(e.Payload, &p); err != nil {
			return nil, err
		}
		from, to, err := requireRoute(p.From, p.To)
		if err != nil {
			return nil, err
		}
		isTyping := e.Type != EventTypingStop
		if p.IsTyping != nil && e.Type == EventTyping {
			isTyping = *p.IsTyping
		}
		return Typing{From: from, To: to, IsTyping: isTyping}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
}

// decodeUserConnected accepts either a bare "userId" string or {id, displayName}.
// "fullname" is read as a fallback display name.
func decodeUserConnected(raw json.RawMessage) (Inbound, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing payload", ErrMalformedEvent)
	}

	var evt UserConnected
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &evt.UserID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	} else {
		var p struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
			Fullname    string `json:"fullname"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		evt.UserID = p.ID
		evt.DisplayName = p.DisplayName
		if evt.DisplayName == "" {
			evt.DisplayName = p.Fullname
		}
	}

	evt.UserID = strings.TrimSpace(evt.UserID)
	if evt.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrMalformedEvent)
	}
	return evt, nil
}

func unmarshalPayload(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: missing payload", ErrMalformedEvent)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}

func requireRoute(from, to string) (string, string, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return "", "", fmt.Errorf("%w: from and to are required", ErrMalformedEvent)
	}
	return from, to, nil
}
