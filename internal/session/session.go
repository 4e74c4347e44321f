// Package session keeps the signed-in user and token on the client side.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"krishak/internal/models"

	log "github.com/sirupsen/logrus"
)

// ErrCorrupt is returned by a Tier whose stored entry cannot be decoded.
var ErrCorrupt = errors.New("session: stored entry is corrupt")

// Session is what a tier stores. It never holds a password.
type Session struct {
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
	SavedAt time.Time         `json:"savedAt"`
}

// Tier is one storage location for a session. Load returns nil, nil when
// nothing is stored.
type Tier interface {
	Load() (*Session, error)
	Save(s *Session) error
	Delete() error
}

// Store persists the session to exactly one of two tiers: a durable tier
// that survives restarts, or a scoped tier that lives as long as the client.
type Store struct {
	mu      sync.Mutex
	durable Tier
	scoped  Tier
	now     func() time.Time
}

// New creates a Store over the durable and scoped tiers.
func New(durable, scoped Tier) *Store {
	return &Store{durable: durable, scoped: scoped, now: time.Now}
}

// Persist stores user and token in the durable tier when remember is set and
// in the scoped tier otherwise, removing any copy from the other tier.
func (s *Store) Persist(user models.PublicUser, token string, remember bool) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("session: token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, other := s.scoped, s.durable
	if remember {
		target, other = s.durable, s.scoped
	}
	if err := other.Delete(); err != nil {
		return fmt.Errorf("session: failed to clear previous session: %w", err)
	}
	if err := target.Save(&Session{Token: token, User: user, SavedAt: s.now()}); err != nil {
		return fmt.Errorf("session: failed to save session: %w", err)
	}
	return nil
}

// CurrentUser returns the signed-in user, or nil when nobody is signed in.
// A corrupt entry counts as signed out and is removed.
func (s *Store) CurrentUser() (*models.PublicUser, error) {
	sess, err := s.current()
	if err != nil || sess == nil {
		return nil, err
	}
	user := sess.User
	return &user, nil
}

// Token returns the bearer token of the current session, or "".
func (s *Store) Token() string {
	sess, err := s.current()
	if err != nil || sess == nil {
		return ""
	}
	return sess.Token
}

// Clear signs out. Clearing an empty store succeeds.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return errors.Join(s.durable.Delete(), s.scoped.Delete())
}

func (s *Store) current() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tier := range []Tier{s.durable, s.scoped} {
		sess, err := tier.Load()
		switch {
		case errors.Is(err, ErrCorrupt):
			log.WithError(err).Warn("Discarding corrupt session entry")
			if delErr := tier.Delete(); delErr != nil {
				return nil, delErr
			}
		case err != nil:
			return nil, err
		case sess != nil && sess.Token != "":
			return sess, nil
		}
	}
	return nil, nil
}
