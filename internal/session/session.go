// Package session holds the authentication state for the current storefront
// session and notifies subscribers when it changes.
package session

import "sync"

// Snapshot is an immutable view of the session at one point in time.
type Snapshot struct {
	UserID        string
	Token         string
	Authenticated bool
}

// Session tracks the current user and bearer token. The zero value is a
// valid unauthenticated (guest) session.
type Session struct {
	mu       sync.RWMutex
	userID   string
	token    string
	onChange []func(Snapshot)
}

// New returns an unauthenticated session.
func New() *Session {
	return &Session{}
}

// Current returns a snapshot of the session.
func (s *Session) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		UserID:        s.userID,
		Token:         s.token,
		Authenticated: s.token != "",
	}
}

// Token returns the current bearer token, empty for guests. Suitable as a
// token source for transport decorators.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Authenticate installs the user's identity and token, then notifies
// subscribers. Re-authenticating replaces the previous identity.
func (s *Session) Authenticate(userID, token string) {
	s.mu.Lock()
	s.userID = userID
	s.token = token
	subs := s.onChange
	snap := Snapshot{UserID: userID, Token: token, Authenticated: token != ""}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Invalidate tears the session down to guest state and notifies subscribers.
// Called on explicit logout and on a 401 from the remote API.
func (s *Session) Invalidate() {
	s.Authenticate("", "")
}

// OnChange registers a subscriber invoked after every session transition.
// Subscribers run synchronously on the goroutine that changed the session.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}
