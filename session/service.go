package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spetersoncode/pausable/event"
)

// Service creates sessions and persists their events and suspended invocations.
type Service interface {
	Create(ctx context.Context, appName, userID, sessionID string) (*Session, error)
	Get(ctx context.Context, appName, userID, sessionID string) (*Session, error)
	List(ctx context.Context, appName, userID string) ([]*Session, error)
	Delete(ctx context.Context, appName, userID, sessionID string) error

	AppendEvent(ctx context.Context, s *Session, e event.Event) error

	SaveInvocation(ctx context.Context, s *Session, inv Invocation) error
	LoadInvocation(ctx context.Context, s *Session, invocationID string) (Invocation, error)
	DeleteInvocation(ctx context.Context, s *Session, invocationID string) error
}

// Store is a Service backed by an Adapter.
type Store struct {
	mu      sync.Mutex
	adapter Adapter
}

var _ Service = (*Store)(nil)

// NewStore creates a Store with the given adapter.
// If adapter is nil, a default in-memory adapter is used.
func NewStore(adapter Adapter) *Store {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	return &Store{adapter: adapter}
}

// NewInMemoryService creates a Store that keeps everything in memory.
func NewInMemoryService() *Store {
	return NewStore(nil)
}

func sessionKey(appName, userID, sessionID string) string {
	return "session/" + appName + "/" + userID + "/" + sessionID
}

func invocationKey(s *Session, invocationID string) string {
	return "invocation/" + s.AppName + "/" + s.UserID + "/" + s.ID + "/" + invocationID
}

// Create starts a new session. An id is generated when sessionID is empty.
func (st *Store) Create(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	key := sessionKey(appName, userID, sessionID)
	_, exists, err := st.adapter.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSessionExists
	}

	now := time.Now()
	s := &Session{
		ID:        sessionID,
		AppName:   appName,
		UserID:    userID,
		Events:    []event.Event{},
		State:     map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.put(ctx, key, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get loads a session.
func (st *Store) Get(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	var s Session
	if err := st.get(ctx, sessionKey(appName, userID, sessionID), &s, ErrSessionNotFound); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns the sessions of a user, ordered by id.
func (st *Store) List(ctx context.Context, appName, userID string) ([]*Session, error) {
	keys, err := st.adapter.Keys(ctx, sessionKey(appName, userID, ""))
	if err != nil {
		return nil, err
	}
	sessions := make([]*Session, 0, len(keys))
	for _, key := range keys {
		var s Session
		if err := st.get(ctx, key, &s, ErrSessionNotFound); err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, nil
}

// Delete removes a session and every invocation stored under it.
func (st *Store) Delete(ctx context.Context, appName, userID, sessionID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := &Session{AppName: appName, UserID: userID, ID: sessionID}
	keys, err := st.adapter.Keys(ctx, invocationKey(s, ""))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := st.adapter.Delete(ctx, key); err != nil {
			return err
		}
	}
	return st.adapter.Delete(ctx, sessionKey(appName, userID, sessionID))
}

// AppendEvent appends e to the stored session and to s.
func (st *Store) AppendEvent(ctx context.Context, s *Session, e event.Event) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	key := sessionKey(s.AppName, s.UserID, s.ID)
	var stored Session
	if err := st.get(ctx, key, &stored, ErrSessionNotFound); err != nil {
		return err
	}
	stored.Events = append(stored.Events, e)
	stored.UpdatedAt = time.Now()
	if err := st.put(ctx, key, &stored); err != nil {
		return err
	}

	s.Events = append(s.Events, e)
	s.UpdatedAt = stored.UpdatedAt
	return nil
}

// SaveInvocation stores or replaces the snapshot of a suspended invocation.
func (st *Store) SaveInvocation(ctx context.Context, s *Session, inv Invocation) error {
	if _, err := st.Get(ctx, s.AppName, s.UserID, s.ID); err != nil {
		return err
	}
	inv.SessionID = s.ID
	return st.put(ctx, invocationKey(s, inv.ID), inv)
}

// LoadInvocation loads the snapshot of a suspended invocation.
func (st *Store) LoadInvocation(ctx context.Context, s *Session, invocationID string) (Invocation, error) {
	var inv Invocation
	if invocationID == "" || strings.Contains(invocationID, "/") {
		return inv, ErrInvocationNotFound
	}
	err := st.get(ctx, invocationKey(s, invocationID), &inv, ErrInvocationNotFound)
	return inv, err
}

// DeleteInvocation removes a snapshot. Deleting a missing snapshot is not an error.
func (st *Store) DeleteInvocation(ctx context.Context, s *Session, invocationID string) error {
	return st.adapter.Delete(ctx, invocationKey(s, invocationID))
}

func (st *Store) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return st.adapter.Set(ctx, key, raw)
}

func (st *Store) get(ctx context.Context, key string, v any, notFound error) error {
	raw, ok, err := st.adapter.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return notFound
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return nil
}
