// pkg/session/store.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/catalog"
)

// State is everything the service remembers about one user
type State struct {
	ID        string
	CreatedAt time.Time
	Browse    *catalog.Session

	mu sync.Mutex
}

// Store keeps sessions in a TTL cache keyed by session id.
// Expired sessions are dropped; a request carrying an unknown id starts fresh.
type Store struct {
	cache  *ttlcache.Cache[string, *State]
	paging catalog.Paging
	logger *zap.Logger

	onExpire func(id string)

	mu sync.Mutex // guards get-or-create
}

// NewStore creates a session store; call Start to run expiry in the background
func NewStore(ttl time.Duration, paging catalog.Paging, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, *State](ttl),
	)

	s := &Store{
		cache:  cache,
		paging: paging,
		logger: logger.Named("session"),
	}

	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *State]) {
		if reason == ttlcache.EvictionReasonExpired {
			s.logger.Debug("Session expired", zap.String("session_id", item.Key()))
			if s.onExpire != nil {
				s.onExpire(item.Key())
			}
		}
	})

	return s
}

// OnExpire registers fn to be called with the id of every expired session.
// It must be set before Start.
func (s *Store) OnExpire(fn func(id string)) {
	s.onExpire = fn
}

// Start runs the expiry loop until Stop is called
func (s *Store) Start() {
	go s.cache.Start()
}

// Stop halts the expiry loop
func (s *Store) Stop() {
	s.cache.Stop()
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	return s.cache.Len()
}

// Get returns the session for id if it is still alive
func (s *Store) Get(id string) (*State, bool) {
	if id == "" {
		return nil, false
	}
	item := s.cache.Get(id)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// GetOrCreate returns the live session for id, or a new one when id is empty,
// malformed or expired. The returned state's ID is the one the client must keep.
func (s *Store) GetOrCreate(id string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := uuid.Parse(id); err == nil {
		if state, ok := s.Get(id); ok {
			return state
		}
	}

	id = uuid.New().String()
	state := &State{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Browse:    catalog.NewSession(id, s.paging, nil),
	}
	s.cache.Set(id, state, ttlcache.DefaultTTL)
	s.logger.Debug("Session created", zap.String("session_id", id))
	return state
}

// With runs fn while holding the session's lock, so concurrent requests for the
// same session are handled one at a time. It returns the session id in use.
func (s *Store) With(id string, fn func(*State) error) (string, error) {
	state := s.GetOrCreate(id)

	state.mu.Lock()
	defer state.mu.Unlock()

	return state.ID, fn(state)
}

// Delete forgets a session
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}
