package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"socialchat/internal/app/message"
	"socialchat/internal/app/storage"
	"socialchat/internal/app/user"
)

// memUsers is an in-memory user.Store.
type memUsers struct {
	mu       sync.Mutex
	accounts map[string]*user.Account
	friends  map[string]map[string]bool
	requests map[string]*user.FriendRequest
}

func newMemUsers() *memUsers {
	return &memUsers{
		accounts: make(map[string]*user.Account),
		friends:  make(map[string]map[string]bool),
		requests: make(map[string]*user.FriendRequest),
	}
}

var _ user.Store = (*memUsers)(nil)

func (s *memUsers) CreateAccount(_ context.Context, in user.NewAccount) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Username == in.Username || a.Email == in.Email {
			return user.User{}, user.ErrAlreadyExists
		}
	}

	acc := &user.Account{
		User: user.User{
			ID:        uuid.NewString(),
			Username:  in.Username,
			Email:     in.Email,
			Fullname:  in.Fullname,
			Phone:     in.Phone,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: in.PasswordHash,
	}
	s.accounts[acc.ID] = acc
	return acc.User, nil
}

func (s *memUsers) AccountByUsername(_ context.Context, username string) (user.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Username == username {
			return *a, nil
		}
	}
	return user.Account{}, user.ErrNotFound
}

func (s *memUsers) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u := a.User
	u.Friends = nil
	for fid := range s.friends[id] {
		u.Friends = append(u.Friends, s.accounts[fid].Summary())
	}
	return u, nil
}

func (s *memUsers) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]user.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *memUsers) UpdateProfile(_ context.Context, id string, in user.ProfileUpdate) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	a.Fullname, a.Email, a.Phone = in.Fullname, in.Email, in.Phone
	return a.User, nil
}

func (s *memUsers) UpdateAvatar(_ context.Context, id, avatarKey string) (user.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return user.User{}, "", user.ErrNotFound
	}
	previous := a.Avatar
	a.Avatar = avatarKey
	return a.User, previous, nil
}

func (s *memUsers) UpdatePasswordByEmail(_ context.Context, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == email {
			a.PasswordHash = passwordHash
			return nil
		}
	}
	return user.ErrNotFound
}

func (s *memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memUsers) CreateFriendRequest(_ context.Context, fromID, toID string) (user.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accounts[fromID] == nil || s.accounts[toID] == nil {
		return user.FriendRequest{}, user.ErrNotFound
	}
	if s.friends[fromID][toID] {
		return user.FriendRequest{}, user.ErrAlreadyFriends
	}
	for _, fr := range s.requests {
		if fr.FromID == fromID && fr.ToID == toID && fr.Status == user.RequestPending {
			return user.FriendRequest{}, user.ErrRequestExists
		}
	}

	fr := &user.FriendRequest{
		ID:        uuid.NewString(),
		FromID:    fromID,
		ToID:      toID,
		Status:    user.RequestPending,
		CreatedAt: time.Now().UTC(),
	}
	s.requests[fr.ID] = fr
	return *fr, nil
}

func (s *memUsers) PendingFriendRequests(_ context.Context, userID string) ([]user.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []user.FriendRequest
	for _, fr := range s.requests {
		if fr.ToID == userID && fr.Status == user.RequestPending {
			c := *fr
			sender := s.accounts[fr.FromID].Summary()
			c.Sender = &sender
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memUsers) AcceptFriendRequest(_ context.Context, requestID, accepterID string) (user.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fr, ok := s.requests[requestID]
	if !ok || fr.ToID != accepterID {
		return user.FriendRequest{}, user.ErrRequestNotFound
	}
	if fr.Status != user.RequestPending {
		return user.FriendRequest{}, user.ErrRequestAlreadyClosed
	}

	fr.Status = user.RequestAccepted
	for _, pair := range [][2]string{{fr.FromID, fr.ToID}, {fr.ToID, fr.FromID}} {
		if s.friends[pair[0]] == nil {
			s.friends[pair[0]] = make(map[string]bool)
		}
		s.friends[pair[0]][pair[1]] = true
	}
	return *fr, nil
}

// memObjects is an in-memory storage.StorageService.
type memObjects struct {
	mu      sync.Mutex
	objects map[string]storage.ObjectMetadata
	deleted chan string
}

func newMemObjects() *memObjects {
	return &memObjects{
		objects: make(map[string]storage.ObjectMetadata),
		deleted: make(chan string, 8),
	}
}

var _ storage.StorageService = (*memObjects)(nil)

func (s *memObjects) Upload(_ context.Context, key, contentType string, body io.Reader) error {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storage.ObjectMetadata{ContentType: contentType, ContentLength: n}
	return nil
}

func (s *memObjects) PresignUpload(_ context.Context, key, mimeType string, _ int64, duration time.Duration) (string, error) {
	return fmt.Sprintf("https://bucket.test/%s?op=put&type=%s&ttl=%d", key, url.QueryEscape(mimeType), int(duration.Seconds())), nil
}

func (s *memObjects) PresignDownload(_ context.Context, key string, duration time.Duration) (string, error) {
	return fmt.Sprintf("https://bucket.test/%s?op=get&ttl=%d", key, int(duration.Seconds())), nil
}

func (s *memObjects) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()

	s.deleted <- key
	return nil
}

func (s *memObjects) GetObjectMetadata(_ context.Context, key string) (storage.ObjectMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.objects[key]
	if !ok {
		return storage.ObjectMetadata{}, storage.ErrObjectNotFound
	}
	return meta, nil
}

func (s *memObjects) put(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storage.ObjectMetadata{ContentType: "image/png", ContentLength: 1}
}

// memMessages is an in-memory message.Store.
type memMessages struct {
	mu       sync.Mutex
	messages []message.Message
}

func (s *memMessages) PersistMessage(_ context.Context, msg message.Message) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *memMessages) BulkMarkSeen(_ context.Context, senderID, recipientID string, seenAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.SenderID == senderID && m.RecipientID == recipientID && !m.Seen {
			at := seenAt
			m.Seen, m.SeenAt = true, &at
			n++
		}
	}
	return n, nil
}

func (s *memMessages) FetchHistory(_ context.Context, userA, userB string) ([]message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []message.Message
	for _, m := range s.messages {
		if (m.SenderID == userA && m.RecipientID == userB) || (m.SenderID == userB && m.RecipientID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

// codeMailer captures the last code sent per address.
type codeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *codeMailer) SendCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[email] = code
	return nil
}

func (m *codeMailer) last(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}
