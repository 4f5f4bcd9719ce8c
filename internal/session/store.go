package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-side record of one authenticated sign-in.
type Session struct {
	ID        uuid.UUID `json:"id"`
	RefreshID uuid.UUID `json:"refresh_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EventType identifies a session lifecycle change.
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
	EventRefreshed EventType = "refreshed"
)

// Event is published to subscribers on every session change.
type Event struct {
	Type    EventType
	Session *Session
}

// Store persists sessions in Redis with a TTL. Sessions are created on
// sign-in, replaced wholesale on refresh and deleted on sign-out; Redis
// expiry covers abandoned sessions.
type Store struct {
	client *redis.Client
	ttl    time.Duration

	mu          sync.Mutex
	subscribers []chan Event
}

// NewStore constructs a Store around an initialized Redis client.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func refreshKey(id uuid.UUID) string {
	return "refresh:" + id.String()
}

// Create opens a new session for the user and publishes a signed-in event.
func (s *Store) Create(userID uuid.UUID) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.New(),
		RefreshID: uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.save(sess); err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventSignedIn, Session: sess})
	return sess, nil
}

// Get returns the session by ID, or ErrNotFound.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	raw, err := s.client.Get(sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Refresh exchanges a refresh ID for a brand new session. The old session is
// deleted before the replacement is stored.
func (s *Store) Refresh(refreshID uuid.UUID) (*Session, error) {
	raw, err := s.client.Get(refreshKey(refreshID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("refresh lookup: %w", err)
	}

	oldID, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("decode refresh entry: %w", err)
	}

	old, err := s.Get(oldID)
	if err != nil {
		return nil, err
	}

	if err := s.delete(old); err != nil {
		return nil, err
	}

	now := time.Now()
	next := &Session{
		ID:        uuid.New(),
		RefreshID: uuid.New(),
		UserID:    old.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.save(next); err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventRefreshed, Session: next})
	return next, nil
}

// Revoke removes the session and publishes a signed-out event. Revoking an
// unknown session returns ErrNotFound.
func (s *Store) Revoke(id uuid.UUID) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := s.delete(sess); err != nil {
		return err
	}

	s.publish(Event{Type: EventSignedOut, Session: sess})
	return nil
}

// Subscribe returns a channel receiving every session change for the life of
// the store. Slow consumers drop events rather than blocking auth paths.
func (s *Store) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) save(sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(sessionKey(sess.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if err := s.client.Set(refreshKey(sess.RefreshID), sess.ID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("store refresh entry: %w", err)
	}
	return nil
}

func (s *Store) delete(sess *Session) error {
	if err := s.client.Del(sessionKey(sess.ID), refreshKey(sess.RefreshID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) publish(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
