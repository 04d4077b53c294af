package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"socialchat/internal/app/message"
)

const insertMessage = `
INSERT INTO messages (id, sender_id, recipient_id, body_text, image_key, created_at, seen, seen_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, NULL)
RETURNING id::text, sender_id, recipient_id, body_text, image_key, created_at, seen, seen_at`

const markSeen = `
UPDATE messages
SET seen = TRUE, seen_at = $3
WHERE sender_id = $1 AND recipient_id = $2 AND NOT seen`

const conversation = `
SELECT id::text, sender_id, recipient_id, body_text, image_key, created_at, seen, seen_at
FROM messages
WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
ORDER BY created_at, id`

// PersistMessage implements message.Store.
func (s *Store) PersistMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	row := s.pool.QueryRow(ctx, insertMessage,
		msg.ID,
		msg.SenderID,
		msg.RecipientID,
		nullText(msg.Text),
		nullText(msg.Image),
		msg.CreatedAt,
	)

	stored, err := scanMessage(row)
	if err != nil {
		return message.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return stored, nil
}

// BulkMarkSeen implements message.Store. A single UPDATE makes the transition
// atomic, and the NOT seen predicate keeps already seen rows untouched.
func (s *Store) BulkMarkSeen(ctx context.Context, senderID, recipientID string, seenAt time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, markSeen, senderID, recipientID, seenAt)
	if err != nil {
		return 0, fmt.Errorf("mark messages seen: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FetchHistory implements message.Store.
func (s *Store) FetchHistory(ctx context.Context, userA, userB string) ([]message.Message, error) {
	rows, err := s.pool.Query(ctx, conversation, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (message.Message, error) {
		return scanMessage(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return msgs, nil
}

func scanMessage(row pgx.Row) (message.Message, error) {
	var (
		m      message.Message
		text   pgtype.Text
		image  pgtype.Text
		seenAt pgtype.Timestamptz
	)

	if err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &text, &image, &m.CreatedAt, &m.Seen, &seenAt); err != nil {
		return message.Message{}, err
	}

	m.Text = text.String
	m.Image = image.String
	m.CreatedAt = m.CreatedAt.UTC()
	if seenAt.Valid {
		t := seenAt.Time.UTC()
		m.SeenAt = &t
	}
	return m, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
