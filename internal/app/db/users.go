package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"socialchat/internal/app/user"
)

const userColumns = `id::text, username, email, fullname, phone, avatar_key, created_at`

const createAccount = `
INSERT INTO users (username, email, fullname, phone, password_hash)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

const accountByUsername = `
SELECT ` + userColumns + `, password_hash
FROM users
WHERE username = $1`

const userByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY username`

const friendsOf = `
SELECT u.id::text, u.username, u.fullname, u.avatar_key
FROM user_friends f
JOIN users u ON u.id = f.friend_id
WHERE f.user_id = $1
ORDER BY u.username`

const updateProfile = `
UPDATE users
SET fullname = $2, email = $3, phone = $4, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

const updateAvatar = `
UPDATE users AS u
SET avatar_key = $2, updated_at = now()
FROM (SELECT id, avatar_key FROM users WHERE id = $1 FOR UPDATE) AS prev
WHERE u.id = prev.id
RETURNING u.id::text, u.username, u.email, u.fullname, u.phone, u.avatar_key, u.created_at, prev.avatar_key`

const updatePasswordByEmail = `
UPDATE users
SET password_hash = $2, updated_at = now()
WHERE email = $1`

const emailExists = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`

// CreateAccount implements user.Store.
func (s *Store) CreateAccount(ctx context.Context, in user.NewAccount) (user.User, error) {
	row := s.pool.QueryRow(ctx, createAccount, in.Username, in.Email, in.Fullname, in.Phone, in.PasswordHash)

	u, err := scanUser(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrAlreadyExists
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// AccountByUsername implements user.Store.
func (s *Store) AccountByUsername(ctx context.Context, username string) (user.Account, error) {
	var acc user.Account
	err := s.pool.QueryRow(ctx, accountByUsername, username).Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.Fullname, &acc.Phone, &acc.Avatar, &acc.CreatedAt,
		&acc.PasswordHash,
	)
	if err != nil {
		if IsNoRows(err) {
			return user.Account{}, user.ErrNotFound
		}
		return user.Account{}, fmt.Errorf("select account: %w", err)
	}
	return acc, nil
}

// GetUser implements user.Store.
func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	if !validUUID(id) {
		return user.User{}, user.ErrNotFound
	}

	u, err := scanUser(s.pool.QueryRow(ctx, userByID, id))
	if err != nil {
		if IsNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("select user: %w", err)
	}

	rows, err := s.pool.Query(ctx, friendsOf, id)
	if err != nil {
		return user.User{}, fmt.Errorf("query friends: %w", err)
	}

	u.Friends, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.Summary, error) {
		var f user.Summary
		err := row.Scan(&f.ID, &f.Username, &f.Fullname, &f.Avatar)
		return f, err
	})
	if err != nil {
		return user.User{}, fmt.Errorf("scan friends: %w", err)
	}

	return u, nil
}

// ListUsers implements user.Store.
func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.pool.Query(ctx, listUsers)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

// UpdateProfile implements user.Store.
func (s *Store) UpdateProfile(ctx context.Context, id string, in user.ProfileUpdate) (user.User, error) {
	if !validUUID(id) {
		return user.User{}, user.ErrNotFound
	}

	u, err := scanUser(s.pool.QueryRow(ctx, updateProfile, id, in.Fullname, in.Email, in.Phone))
	if err != nil {
		switch {
		case IsNoRows(err):
			return user.User{}, user.ErrNotFound
		case IsUniqueViolation(err):
			return user.User{}, user.ErrAlreadyExists
		}
		return user.User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// UpdateAvatar implements user.Store.
func (s *Store) UpdateAvatar(ctx context.Context, id, avatarKey string) (user.User, string, error) {
	if !validUUID(id) {
		return user.User{}, "", user.ErrNotFound
	}

	var (
		u       user.User
		prevKey string
	)
	err := s.pool.QueryRow(ctx, updateAvatar, id, avatarKey).Scan(
		&u.ID, &u.Username, &u.Email, &u.Fullname, &u.Phone, &u.Avatar, &u.CreatedAt,
		&prevKey,
	)
	if err != nil {
		if IsNoRows(err) {
			return user.User{}, "", user.ErrNotFound
		}
		return user.User{}, "", fmt.Errorf("update avatar: %w", err)
	}
	return u, prevKey, nil
}

// UpdatePasswordByEmail implements user.Store.
func (s *Store) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, updatePasswordByEmail, email, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// EmailExists implements user.Store.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, emailExists, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Fullname, &u.Phone, &u.Avatar, &u.CreatedAt)
	return u, err
}
