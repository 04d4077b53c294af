package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"socialchat/internal/app/user"
)

const requestColumns = `id::text, from_id::text, to_id::text, status, created_at`

const createFriendRequest = `
INSERT INTO friend_requests (from_id, to_id)
SELECT $1, $2
WHERE NOT EXISTS (
    SELECT 1 FROM user_friends WHERE user_id = $1 AND friend_id = $2
)
RETURNING ` + requestColumns

const pendingFriendRequests = `
SELECT r.id::text, r.from_id::text, r.to_id::text, r.status, r.created_at,
       u.username, u.fullname, u.avatar_key
FROM friend_requests r
JOIN users u ON u.id = r.from_id
WHERE r.to_id = $1 AND r.status = 'pending'
ORDER BY r.created_at DESC`

const lockFriendRequest = `
SELECT ` + requestColumns + `
FROM friend_requests
WHERE id = $1 AND to_id = $2
FOR UPDATE`

const acceptFriendRequest = `
UPDATE friend_requests
SET status = 'accepted', updated_at = now()
WHERE id = $1`

const befriend = `
INSERT INTO user_friends (user_id, friend_id)
VALUES ($1, $2), ($2, $1)
ON CONFLICT DO NOTHING`

// CreateFriendRequest implements user.Store.
func (s *Store) CreateFriendRequest(ctx context.Context, fromID, toID string) (user.FriendRequest, error) {
	if !validUUID(fromID) || !validUUID(toID) {
		return user.FriendRequest{}, user.ErrNotFound
	}

	fr, err := scanFriendRequest(s.pool.QueryRow(ctx, createFriendRequest, fromID, toID))
	if err != nil {
		switch {
		case IsNoRows(err):
			return user.FriendRequest{}, user.ErrAlreadyFriends
		case IsUniqueViolation(err):
			return user.FriendRequest{}, user.ErrRequestExists
		case IsForeignKeyViolation(err):
			return user.FriendRequest{}, user.ErrNotFound
		}
		return user.FriendRequest{}, fmt.Errorf("insert friend request: %w", err)
	}
	return fr, nil
}

// PendingFriendRequests implements user.Store.
func (s *Store) PendingFriendRequests(ctx context.Context, userID string) ([]user.FriendRequest, error) {
	if !validUUID(userID) {
		return nil, user.ErrNotFound
	}

	rows, err := s.pool.Query(ctx, pendingFriendRequests, userID)
	if err != nil {
		return nil, fmt.Errorf("query friend requests: %w", err)
	}

	requests, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.FriendRequest, error) {
		var (
			fr     user.FriendRequest
			sender user.Summary
		)
		err := row.Scan(&fr.ID, &fr.FromID, &fr.ToID, &fr.Status, &fr.CreatedAt,
			&sender.Username, &sender.Fullname, &sender.Avatar)
		sender.ID = fr.FromID
		fr.Sender = &sender
		return fr, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan friend requests: %w", err)
	}
	return requests, nil
}

// AcceptFriendRequest implements user.Store. The status change and both
// friendship rows commit together.
func (s *Store) AcceptFriendRequest(ctx context.Context, requestID, accepterID string) (user.FriendRequest, error) {
	if !validUUID(requestID) || !validUUID(accepterID) {
		return user.FriendRequest{}, user.ErrRequestNotFound
	}

	var fr user.FriendRequest
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		fr, err = acceptInTx(ctx, tx, requestID, accepterID)
		return err
	})
	if err != nil {
		return user.FriendRequest{}, err
	}
	return fr, nil
}

func acceptInTx(ctx context.Context, q querier, requestID, accepterID string) (user.FriendRequest, error) {
	fr, err := scanFriendRequest(q.QueryRow(ctx, lockFriendRequest, requestID, accepterID))
	if err != nil {
		if IsNoRows(err) {
			return user.FriendRequest{}, user.ErrRequestNotFound
		}
		return user.FriendRequest{}, fmt.Errorf("lock friend request: %w", err)
	}

	if fr.Status != user.RequestPending {
		return user.FriendRequest{}, user.ErrRequestAlreadyClosed
	}

	if _, err := q.Exec(ctx, acceptFriendRequest, requestID); err != nil {
		return user.FriendRequest{}, fmt.Errorf("accept friend request: %w", err)
	}

	if _, err := q.Exec(ctx, befriend, fr.FromID, fr.ToID); err != nil {
		return user.FriendRequest{}, fmt.Errorf("insert friendship: %w", err)
	}

	fr.Status = user.RequestAccepted
	return fr, nil
}

func scanFriendRequest(row pgx.Row) (user.FriendRequest, error) {
	var fr user.FriendRequest
	err := row.Scan(&fr.ID, &fr.FromID, &fr.ToID, &fr.Status, &fr.CreatedAt)
	return fr, err
}
