// Package session owns the application's view of the authenticated session.
// The store is injected wherever session state is needed; updates flow
// through an internal publish/subscribe channel rather than ambient globals.
package session

import (
	"context"
	"log/slog"
	"sync"

	"walnut/internal/authclient"
)

// Snapshot is an immutable view of the store's state.
type Snapshot struct {
	Session *authclient.Session
	Loading bool
}

// Store holds the current session and loading flag, kept in sync with the
// auth client's change notifications.
type Store struct {
	client authclient.Client
	logger *slog.Logger

	mu      sync.RWMutex
	session *authclient.Session
	loading bool
	subs    map[int]func(Snapshot)
	nextID  int
	unsub   func()
}

// New creates a store in the loading state. Call Init to resolve it.
func New(client authclient.Client, logger *slog.Logger) *Store {
	return &Store{
		client:  client,
		logger:  logger,
		loading: true,
		subs:    make(map[int]func(Snapshot)),
	}
}

// Init fetches the current session once and registers for change
// notifications. A fetch failure means "no session", never an error:
// the caller proceeds anonymously.
func (s *Store) Init(ctx context.Context) {
	current, err := s.client.GetSession(ctx)
	if err != nil {
		s.logger.Warn("initial session fetch failed, continuing without session", "error", err)
		current = nil
	}

	s.mu.Lock()
	s.unsub = s.client.OnSessionChange(s.onChange)
	s.mu.Unlock()

	s.replace(current, false)
}

// Close unregisters the change-notification callback.
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Current returns a snapshot of the store's state.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Session: s.session, Loading: s.loading}
}

// Session returns the current session, or nil when signed out.
func (s *Store) Session() *authclient.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Loading reports whether the initial session fetch is still pending.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Set replaces the session directly, ahead of the asynchronous change
// notification that will later deliver the same data.
func (s *Store) Set(session *authclient.Session) {
	s.replace(session, false)
}

// Clear drops the session. Always succeeds; used by sign-out regardless of
// whether the remote revocation worked.
func (s *Store) Clear() {
	s.replace(nil, false)
}

// Subscribe registers a callback invoked with a snapshot after every state
// change. The returned function unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) onChange(event authclient.Event, session *authclient.Session) {
	s.replace(session, false)
}

// replace installs the new session wholesale. Writes are last-write-wins
// with one guard: a write for the same subject must not regress
// onboarding_completed from true to false, since the direct post-sign-in
// write and the async notification are not required to be identical.
func (s *Store) replace(session *authclient.Session, loading bool) {
	s.mu.Lock()

	if session != nil && s.session != nil &&
		session.User.ID == s.session.User.ID &&
		s.session.User.OnboardingCompleted() && !session.User.OnboardingCompleted() {
		patched := *session
		patched.User.Metadata = cloneWithOnboarding(session.User.Metadata)
		session = &patched
	}

	s.session = session
	s.loading = loading
	snapshot := Snapshot{Session: s.session, Loading: s.loading}

	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func cloneWithOnboarding(metadata map[string]any) map[string]any {
	clone := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		clone[k] = v
	}
	clone["onboarding_completed"] = true
	return clone
}
