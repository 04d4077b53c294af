//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=mocks/mock_store.go -package=mocks

/*
Package message defines the direct message entity and the persistence contract
the realtime core consumes.
*/
package message

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	// MaxTextBytes is the largest accepted text body.
	MaxTextBytes = 5000

	// AttachmentPrefix is the object key namespace for chat images.
	AttachmentPrefix = "chat/"
)

var (
	ErrEmptyBody       = errors.New("message body is empty")
	ErrAmbiguousBody   = errors.New("message body has both text and image")
	ErrTextTooLong     = errors.New("message text too long")
	ErrInvalidImageKey = errors.New("image reference outside the chat attachment namespace")
)

// Body is the content of a message: either text or an image attachment key.
type Body struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// Validate checks that exactly one of Text or Image is set and within limits.
// Any text next to an image is ambiguous, whitespace included.
func (b Body) Validate() error {
	text := strings.TrimSpace(b.Text)

	switch {
	case text == "" && b.Image == "":
		return ErrEmptyBody
	case b.Text != "" && b.Image != "":
		return ErrAmbiguousBody
	case len(b.Text) > MaxTextBytes:
		return ErrTextTooLong
	case b.Image != "" && !strings.HasPrefix(b.Image, AttachmentPrefix):
		return ErrInvalidImageKey
	}

	return nil
}

// Normalize drops whitespace-only text and trims the image key.
func (b Body) Normalize() Body {
	if strings.TrimSpace(b.Text) == "" {
		b.Text = ""
	}
	b.Image = strings.TrimSpace(b.Image)
	return b
}

// Message is a persisted direct message.
// Seen is true exactly when SeenAt is set.
type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"from"`
	RecipientID string     `json:"to"`
	Text        string     `json:"text,omitempty"`
	Image       string     `json:"image,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Seen        bool       `json:"seen"`
	SeenAt      *time.Time `json:"seenAt,omitempty"`
}

// Body returns the content part of m.
func (m Message) Body() Body {
	return Body{Text: m.Text, Image: m.Image}
}

// Store is the durable message store.
type Store interface {
	// PersistMessage durably stores msg and returns it as committed.
	PersistMessage(ctx context.Context, msg Message) (Message, error)

	// BulkMarkSeen marks every unseen message from senderID to recipientID as seen at seenAt
	// and returns how many rows changed.
	BulkMarkSeen(ctx context.Context, senderID, recipientID string, seenAt time.Time) (int64, error)

	// FetchHistory returns the messages exchanged between userA and userB, oldest first.
	FetchHistory(ctx context.Context, userA, userB string) ([]Message, error)
}
