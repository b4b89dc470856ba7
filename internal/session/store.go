// ABOUTME: Auth store orchestrating login, register, logout and rehydration
// ABOUTME: Keeps in-memory session and persisted snapshot consistent, newest auth call wins

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/markalston/einvoice/internal/apiclient"
	"github.com/markalston/einvoice/internal/models"
)

var (
	// ErrSuperseded is returned by an auth call whose result was discarded
	// because a newer login, register or logout was issued while it was in flight
	ErrSuperseded = errors.New("superseded by a newer auth operation")
	// ErrNotAuthenticated is returned when an operation needs a signed-in session
	ErrNotAuthenticated = errors.New("not authenticated")
)

const (
	loginFailed        = "Login failed"
	registrationFailed = "Registration failed"

	defaultLogoutTimeout  = 10 * time.Second
	defaultRefreshTimeout = 30 * time.Second
)

// Authenticator performs the auth calls the store orchestrates
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Register(ctx context.Context, input models.RegisterInput) (*models.User, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Me(ctx context.Context) (*models.User, error)
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for background failures
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithLogoutTimeout bounds the background server-side logout call
func WithLogoutTimeout(d time.Duration) Option {
	return func(s *Store) { s.logoutTimeout = d }
}

// Store holds the session for one client and is safe for concurrent use
type Store struct {
	auth           Authenticator
	persister      *Persister
	logger         *slog.Logger
	logoutTimeout  time.Duration
	refreshTimeout time.Duration

	mu      sync.Mutex
	state   State
	seq     uint64
	subs    map[int]func(State)
	nextSub int

	persistMu sync.Mutex
	refreshSF singleflight.Group
	bg        sync.WaitGroup
}

// New creates a store in the not-loaded phase. Call Rehydrate before use.
func New(auth Authenticator, persister *Persister, opts ...Option) *Store {
	s := &Store{
		auth:           auth,
		persister:      persister,
		logger:         slog.Default(),
		logoutTimeout:  defaultLogoutTimeout,
		refreshTimeout: defaultRefreshTimeout,
		state:          State{IsLoading: true},
		subs:           map[int]func(State){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current session
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// AccessToken returns the current access token; it makes Store an apiclient.TokenSource
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AccessToken
}

var _ apiclient.TokenSource = (*Store)(nil)

// Subscribe registers fn to receive a copy of the state after every change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Rehydrate seeds the session from the persisted snapshot without any network call.
// It always leaves IsLoading false; a read failure yields an unauthenticated session.
func (s *Store) Rehydrate() error {
	snap, err := s.persister.Load()

	s.commit(func(st *State) {
		st.Hydrated = true
		st.IsLoading = false
		if err == nil && snap != nil && snap.Valid() {
			user := *snap.User
			st.User = &user
			st.AccessToken = snap.AccessToken
			st.RefreshToken = snap.RefreshToken
		}
	})
	return err
}

// Login exchanges credentials for a session and persists it.
// On failure the error message is stored in State.Error and the previous tokens are kept.
func (s *Store) Login(ctx context.Context, creds models.Credentials) error {
	seq := s.begin(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})

	res, err := s.auth.Login(ctx, creds)
	if err == nil && (res == nil || res.User == nil || res.AccessToken == "" || res.RefreshToken == "") {
		err = errors.New("login response is missing the user or tokens")
	}
	if err != nil {
		msg := apiclient.Message(err, loginFailed)
		if !s.commitIf(seq, func(st *State) {
			st.Error = msg
			st.IsLoading = false
		}) {
			return ErrSuperseded
		}
		return err
	}

	if !s.commitIf(seq, func(st *State) {
		user := *res.User
		st.User = &user
		st.AccessToken = res.AccessToken
		st.RefreshToken = res.RefreshToken
		st.IsLoading = false
		st.Error = ""
		st.Hydrated = true
	}) {
		return ErrSuperseded
	}
	s.persist()
	return nil
}

// Register creates an account. It does not sign the user in.
func (s *Store) Register(ctx context.Context, input models.RegisterInput) (*models.User, error) {
	seq := s.begin(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})

	user, err := s.auth.Register(ctx, input)
	if err != nil {
		msg := apiclient.Message(err, registrationFailed)
		if !s.commitIf(seq, func(st *State) {
			st.Error = msg
			st.IsLoading = false
		}) {
			return nil, ErrSuperseded
		}
		return nil, err
	}

	if !s.commitIf(seq, func(st *State) { st.IsLoading = false }) {
		return nil, ErrSuperseded
	}
	return user, nil
}

// Logout clears the session and the persisted snapshot immediately, then revokes
// the refresh token on the server in the background. Calling it twice is harmless.
// The returned error only reports a failure to write persisted storage.
func (s *Store) Logout(ctx context.Context) error {
	var refreshToken string
	s.begin(func(st *State) {
		refreshToken = st.RefreshToken
		*st = State{Hydrated: true}
	})

	err := s.persist()

	if refreshToken != "" {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.logoutTimeout)
			defer cancel()
			if err := s.auth.Logout(bgCtx, refreshToken); err != nil {
				s.logger.Warn("Server logout failed", "error", err)
			}
		}()
	}
	return err
}

// Wait blocks until background logout calls have finished
func (s *Store) Wait() {
	s.bg.Wait()
}

// SetUser replaces the user in memory only
func (s *Store) SetUser(user *models.User) {
	s.commit(func(st *State) {
		if user == nil {
			st.User = nil
			return
		}
		u := *user
		st.User = &u
	})
}

// SetError sets the error message in memory only
func (s *Store) SetError(msg string) {
	s.commit(func(st *State) { st.Error = msg })
}

// ClearError clears the error message in memory only
func (s *Store) ClearError() {
	s.SetError("")
}

// Refresh exchanges the refresh token for a new pair and persists it.
// Concurrent calls share one request, and a caller that gives up early does not
// cancel it for the others. Nothing refreshes automatically.
func (s *Store) Refresh(ctx context.Context) error {
	ch := s.refreshSF.DoChan("refresh", func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		return nil, s.refresh(flightCtx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) refresh(ctx context.Context) error {
	s.mu.Lock()
	seq := s.seq
	refreshToken := s.state.RefreshToken
	authenticated := s.state.IsAuthenticated
	s.mu.Unlock()

	if !authenticated {
		return ErrNotAuthenticated
	}

	pair, err := s.auth.Refresh(ctx, refreshToken)
	if err == nil && (pair == nil || pair.AccessToken == "") {
		err = errors.New("refresh response is missing the access token")
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.seq != seq || s.state.RefreshToken != refreshToken {
		s.mu.Unlock()
		return ErrSuperseded
	}
	notify := s.applyLocked(func(st *State) {
		st.AccessToken = pair.AccessToken
		if pair.RefreshToken != "" {
			st.RefreshToken = pair.RefreshToken
		}
	})
	s.mu.Unlock()
	notify()

	s.persist()
	return nil
}

// LoadProfile fetches the current user and replaces it wholesale
func (s *Store) LoadProfile(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	seq := s.seq
	authenticated := s.state.IsAuthenticated
	s.mu.Unlock()

	if !authenticated {
		return nil, ErrNotAuthenticated
	}

	user, err := s.auth.Me(ctx)
	if err != nil {
		return nil, err
	}
	if !s.commitIf(seq, func(st *State) {
		u := *user
		st.User = &u
	}) {
		return nil, ErrSuperseded
	}
	s.persist()
	return user, nil
}

// begin applies fn as a new auth mutation and returns its sequence number
func (s *Store) begin(fn func(*State)) uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	notify := s.applyLocked(fn)
	s.mu.Unlock()
	notify()
	return seq
}

// commit applies fn unconditionally
func (s *Store) commit(fn func(*State)) {
	s.mu.Lock()
	notify := s.applyLocked(fn)
	s.mu.Unlock()
	notify()
}

// commitIf applies fn only if no auth mutation was issued after seq
func (s *Store) commitIf(seq uint64, fn func(*State)) bool {
	s.mu.Lock()
	if s.seq != seq {
		s.mu.Unlock()
		return false
	}
	notify := s.applyLocked(fn)
	s.mu.Unlock()
	notify()
	return true
}

// applyLocked mutates the state and returns a function that notifies subscribers.
// The caller must hold s.mu and call the returned function after releasing it.
func (s *Store) applyLocked(fn func(*State)) func() {
	fn(&s.state)
	s.state.normalize()

	snapshot := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	return func() {
		for _, sub := range subs {
			sub(snapshot.clone())
		}
	}
}

// persist writes the current state to storage. Failures are logged; most callers
// ignore the returned error since the in-memory session is already authoritative.
func (s *Store) persist() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	st := s.State()
	var err error
	if st.IsAuthenticated {
		err = s.persister.Save(Snapshot{
			User:            st.User,
			AccessToken:     st.AccessToken,
			RefreshToken:    st.RefreshToken,
			IsAuthenticated: true,
		})
	} else {
		err = s.persister.Clear()
	}
	if err != nil {
		s.logger.Warn("Failed to persist session", "error", err)
	}
	return err
}
