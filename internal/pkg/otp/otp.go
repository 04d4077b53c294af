/*
Package otp implements the one-time code flow used for password resets.

A code is issued per email address, verified once, and a successful verification
opens a short window in which the password may be reset. Everything lives in
memory and expires on its own.
*/
package otp

import (
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"socialchat/internal/pkg/randx"
)

const (
	// DefaultTTL is how long an issued code, and a successful verification, stays valid.
	DefaultTTL = 10 * time.Minute

	// MaxAttempts is the number of wrong guesses after which a code is discarded.
	MaxAttempts = 5

	cleanupInterval = time.Minute
)

var (
	ErrInvalidCode = errors.New("one-time code invalid or expired")
	ErrNotVerified = errors.New("one-time code not verified")
)

type pendingCode struct {
	code     string
	expires  time.Time
	attempts int
}

// Manager stores pending codes and verified addresses. It is safe for concurrent use.
type Manager struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	pending  map[string]*pendingCode
	verified map[string]time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager and starts a background goroutine that drops expired entries.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m := &Manager{
		ttl:      ttl,
		now:      time.Now,
		pending:  make(map[string]*pendingCode),
		verified: make(map[string]time.Time),
		stop:     make(chan struct{}),
	}

	go m.cleanupExpiredEntries()

	return m
}

// Issue generates a fresh code for email, replacing any earlier one.
func (m *Manager) Issue(email string) (string, error) {
	code, err := randx.OTP()
	if err != nil {
		return "", err
	}

	key := normalize(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending[key] = &pendingCode{code: code, expires: m.now().Add(m.ttl)}
	delete(m.verified, key)

	return code, nil
}

// Verify checks code for email. A correct code is consumed and email becomes
// eligible for one password reset within the TTL.
func (m *Manager) Verify(email, code string) error {
	key := normalize(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[key]
	if !ok || m.now().After(p.expires) {
		delete(m.pending, key)
		return ErrInvalidCode
	}

	if subtle.ConstantTimeCompare([]byte(p.code), []byte(strings.TrimSpace(code))) != 1 {
		p.attempts++
		if p.attempts >= MaxAttempts {
			delete(m.pending, key)
		}
		return ErrInvalidCode
	}

	delete(m.pending, key)
	m.verified[key] = m.now().Add(m.ttl)
	return nil
}

// ConsumeVerified reports whether email passed Verify within the TTL, and
// forgets it so a verification only authorizes one reset.
func (m *Manager) ConsumeVerified(email string) error {
	key := normalize(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	expires, ok := m.verified[key]
	delete(m.verified, key)

	if !ok || m.now().After(expires) {
		return ErrNotVerified
	}
	return nil
}

// Stop ends the cleanup goroutine.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) cleanupExpiredEntries() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.removeExpired()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) removeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0

	for key, p := range m.pending {
		if now.After(p.expires) {
			delete(m.pending, key)
			removed++
		}
	}

	for key, expires := range m.verified {
		if now.After(expires) {
			delete(m.verified, key)
			removed++
		}
	}

	return removed
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
