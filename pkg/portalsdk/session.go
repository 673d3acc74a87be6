package portalsdk

import (
	"context"
	"errors"
	"sync"
)

// SessionState is a snapshot of who is signed in.
type SessionState struct {
	Loading       bool
	Authenticated bool
	User          *User
}

func (s SessionState) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Session tracks the signed-in account for one client and notifies
// subscribers on every change. It starts out loading until Init runs.
type Session struct {
	client *Client

	mu    sync.Mutex
	state SessionState
	subs  map[int]func(SessionState)
	next  int
}

func NewSession(c *Client) *Session {
	s := &Session{
		client: c,
		state:  SessionState{Loading: true},
		subs:   make(map[int]func(SessionState)),
	}
	c.OnSessionExpired(func() { s.set(SessionState{}) })
	return s
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe calls fn after each state change. The returned function removes
// the subscription.
func (s *Session) Subscribe(fn func(SessionState)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(st SessionState) {
	s.mu.Lock()
	s.state = st
	subs := make([]func(SessionState), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// Init resolves the state from the stored token. Any failure leaves the
// session unauthenticated; only transport errors are returned.
func (s *Session) Init(ctx context.Context) error {
	_, ok, err := s.client.Tokens.Get(ctx)
	if err != nil || !ok {
		s.set(SessionState{})
		return err
	}

	u, err := s.client.VerifyToken(ctx)
	if err != nil {
		s.set(SessionState{})
		if errors.Is(err, ErrNetwork) {
			return err
		}
		return nil
	}
	s.set(SessionState{Authenticated: true, User: &u})
	return nil
}

func (s *Session) Login(ctx context.Context, role Role, email, password, otp string) (User, error) {
	u, err := s.client.Login(ctx, role, email, password, otp)
	if err != nil {
		return User{}, err
	}
	s.set(SessionState{Authenticated: true, User: &u})
	return u, nil
}

// Logout always ends in the unauthenticated state.
func (s *Session) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)
	s.set(SessionState{})
	return err
}
