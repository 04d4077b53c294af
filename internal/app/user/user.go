/*
Package user contains the account, profile and friendship model.

It defines the User returned to clients, the friend request lifecycle and the
Store contract the persistence layer implements.
*/
package user

import (
	"context"
	"errors"
	"time"
)

// Friend request states.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
)

var (
	ErrNotFound             = errors.New("user not found")
	ErrAlreadyExists        = errors.New("username or email already taken")
	ErrRequestExists        = errors.New("pending friend request already exists")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrRequestAlreadyClosed = errors.New("friend request is not pending")
	ErrAlreadyFriends       = errors.New("users are already friends")
)

// Summary is the public card of a user, used in friend lists and requests.
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Avatar   string `json:"avatar,omitempty"`
}

// User is a registered account without its credentials.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Fullname  string    `json:"fullname"`
	Phone     string    `json:"phone,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// Friends is only loaded by Store.GetUser.
	Friends []Summary `json:"friends,omitempty"`
}

// Summary returns the public card of u.
func (u User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Fullname: u.Fullname, Avatar: u.Avatar}
}

// Account is a User together with its password hash.
type Account struct {
	User
	PasswordHash string
}

// NewAccount holds the fields needed to register.
type NewAccount struct {
	Username     string
	Email        string
	Fullname     string
	Phone        string
	PasswordHash string
}

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	Fullname string
	Email    string
	Phone    string
}

// FriendRequest is a directed invitation from one user to another.
type FriendRequest struct {
	ID        string    `json:"id"`
	FromID    string    `json:"from"`
	ToID      string    `json:"to"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`

	// Sender is loaded for pending-request listings.
	Sender *Summary `json:"sender,omitempty"`
}

// Store persists accounts, profiles and friendships.
type Store interface {
	// CreateAccount returns ErrAlreadyExists when the username or email is taken.
	CreateAccount(ctx context.Context, in NewAccount) (User, error)

	// AccountByUsername returns ErrNotFound for unknown usernames.
	AccountByUsername(ctx context.Context, username string) (Account, error)

	// GetUser returns the user with their friends, or ErrNotFound.
	GetUser(ctx context.Context, id string) (User, error)

	// ListUsers returns every user, ordered by username.
	ListUsers(ctx context.Context) ([]User, error)

	// UpdateProfile returns ErrNotFound or ErrAlreadyExists (email clash).
	UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (User, error)

	// UpdateAvatar stores the new avatar key and returns the updated user and the previous key.
	UpdateAvatar(ctx context.Context, id, avatarKey string) (updated User, previousKey string, err error)

	// UpdatePasswordByEmail returns ErrNotFound when no account has that email.
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error

	// EmailExists reports whether an account uses email.
	EmailExists(ctx context.Context, email string) (bool, error)

	// CreateFriendRequest returns ErrRequestExists for a duplicate pending request,
	// ErrAlreadyFriends when the users are friends and ErrNotFound when either user is unknown.
	CreateFriendRequest(ctx context.Context, fromID, toID string) (FriendRequest, error)

	// PendingFriendRequests lists requests addressed to userID, newest first.
	PendingFriendRequests(ctx context.Context, userID string) ([]FriendRequest, error)

	// AcceptFriendRequest marks the request accepted and befriends both users atomically.
	// Only the addressee may accept; any other accepterID gets ErrRequestNotFound.
	AcceptFriendRequest(ctx context.Context, requestID, accepterID string) (FriendRequest, error)
}
