package authstate

import (
	"context"
	"sync"

	"FreshCart/events"
	"FreshCart/models"
	"FreshCart/tokenstore"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

// Backend is the slice of the gateway client the auth store drives.
// Split out so tests can swap in fakes.
type Backend interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResponse, error)
	SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthResponse, error)
	ExchangeGoogleSession(ctx context.Context, sess *models.ExternalSession) (*models.AuthResponse, error)
	SignOut(ctx context.Context, sessionID string) error
	Me(ctx context.Context, sessionID string) (*models.User, error)
}

// OpState is the lifecycle of the most recent auth action. Keeping it a
// tagged value (instead of isLoading/error booleans) rules out the
// loading-and-errored combination by construction.
type OpState int

const (
	OpIdle OpState = iota
	OpLoading
	OpError
)

// Snapshot is the consumer-facing view of one session's auth state.
// Only User and IsAuthenticated survive a restart; the op fields always
// come back idle.
type Snapshot struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"isLoading"`
	Error           string       `json:"error,omitempty"`
}

// Store holds the auth state of a single browser session. Actions mutate
// it in the documented order; overlapping actions on one session race
// last-write-wins, same as the storefront they serve. The mutex is for
// memory safety only, it does not serialize whole actions.
type Store struct {
	sessionID string
	backend   Backend
	tokens    *tokenstore.Store
	producer  *events.Producer

	mu            sync.Mutex
	user          *models.User
	authenticated bool
	op            OpState
	errMsg        string
	subs          map[string]chan Snapshot
}

// NewStore hydrates from the persisted snapshot: a stored user plus a
// present access token come back as authenticated.
func NewStore(sessionID string, backend Backend, tokens *tokenstore.Store, producer *events.Producer) *Store {
	s := &Store{
		sessionID: sessionID,
		backend:   backend,
		tokens:    tokens,
		producer:  producer,
		subs:      make(map[string]chan Snapshot),
	}
	ctx := context.Background()
	if user, authenticated, ok := tokens.UserSnapshot(ctx, sessionID); ok {
		s.user = user
		// stored flag alone is not enough: authenticated must never be
		// observable while the token store is empty
		s.authenticated = authenticated && tokens.IsAuthenticated(ctx, sessionID)
	}
	return s
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		User:            s.user,
		IsAuthenticated: s.authenticated,
		IsLoading:       s.op == OpLoading,
	}
	if s.op == OpError {
		snap.Error = s.errMsg
	}
	return snap
}

// Subscribe registers a listener for state transitions. The returned
// channel is buffered; slow consumers drop snapshots rather than block
// an action.
func (s *Store) Subscribe() (string, <-chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	ch := make(chan Snapshot, 8)
	s.subs[id] = ch
	return id, ch
}

func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	for id, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			log.Warnf("auth state subscriber %s buffer full, dropping snapshot", id)
		}
	}
}

func (s *Store) beginLoading() {
	s.mu.Lock()
	s.op = OpLoading
	s.errMsg = ""
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *Store) fail(message string) models.ActionResult {
	s.mu.Lock()
	s.op = OpError
	s.errMsg = message
	s.notifyLocked()
	s.mu.Unlock()
	return models.ActionResult{Success: false, Message: message}
}

func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	user, authenticated := s.user, s.authenticated
	s.mu.Unlock()
	if err := s.tokens.SetUserSnapshot(ctx, s.sessionID, user, authenticated); err != nil {
		log.Warnf("failed to persist user snapshot: %v", err)
	}
}

// SignUp registers a new account. The backend issues no tokens on
// signup (email confirmation comes first), so only the user and the
// flag change here.
func (s *Store) SignUp(ctx context.Context, req *models.SignUpRequest) models.ActionResult {
	s.beginLoading()

	resp, err := s.backend.SignUp(ctx, req)
	if err != nil {
		return s.fail(err.Error())
	}
	if !resp.Success {
		return s.fail(resp.Message)
	}

	s.mu.Lock()
	if resp.User != nil {
		s.user = resp.User
		s.authenticated = true
	}
	s.op = OpIdle
	s.notifyLocked()
	s.mu.Unlock()

	if resp.User != nil {
		s.persist(ctx)
	}
	s.producer.Emit(events.TypeSignUp, s.sessionID, userID(resp.User), req.Email)
	return models.ActionResult{Success: true, Message: resp.Message}
}

func (s *Store) SignIn(ctx context.Context, req *models.SignInRequest) models.ActionResult {
	s.beginLoading()

	resp, err := s.backend.SignIn(ctx, req)
	if err != nil {
		return s.fail(err.Error())
	}
	if !resp.Success || resp.User == nil || resp.AccessToken == "" {
		message := resp.Message
		if message == "" {
			message = "sign in failed"
		}
		return s.fail(message)
	}
	return s.adoptSession(ctx, resp, events.TypeSignIn)
}

// SignInWithGoogle exchanges an external identity-provider session for
// application tokens and adopts the result.
func (s *Store) SignInWithGoogle(ctx context.Context, sess *models.ExternalSession) models.ActionResult {
	s.beginLoading()

	resp, err := s.backend.ExchangeGoogleSession(ctx, sess)
	if err != nil {
		return s.fail(err.Error())
	}
	if !resp.Success || resp.AccessToken == "" {
		message := resp.Message
		if message == "" {
			message = "session exchange failed"
		}
		return s.fail(message)
	}
	return s.adoptSession(ctx, resp, events.TypeSessionExchange)
}

// adoptSession stores the token pair, then flips the state to
// authenticated. Order matters: isAuthenticated must never be observable
// while the token store is empty.
func (s *Store) adoptSession(ctx context.Context, resp *models.AuthResponse, eventType string) models.ActionResult {
	if err := s.tokens.SetTokens(ctx, s.sessionID, resp.AccessToken, resp.RefreshToken); err != nil {
		return s.fail("failed to persist session tokens")
	}

	s.mu.Lock()
	s.user = resp.User
	s.authenticated = true
	s.op = OpIdle
	s.notifyLocked()
	s.mu.Unlock()

	s.persist(ctx)
	s.producer.Emit(eventType, s.sessionID, userID(resp.User), userEmail(resp.User))
	return models.ActionResult{Success: true, Message: resp.Message}
}

// SignOut always lands in the initial state. The backend call is
// best-effort; its failure is logged and swallowed.
func (s *Store) SignOut(ctx context.Context) models.ActionResult {
	s.mu.Lock()
	prev := s.user
	s.op = OpLoading
	s.notifyLocked()
	s.mu.Unlock()

	if err := s.backend.SignOut(ctx, s.sessionID); err != nil {
		log.Warnf("backend signout failed, clearing local session anyway: %v", err)
	}

	if err := s.tokens.ClearTokens(ctx, s.sessionID); err != nil {
		log.Warnf("failed to clear tokens on signout: %v", err)
	}
	if err := s.tokens.ClearUserSnapshot(ctx, s.sessionID); err != nil {
		log.Warnf("failed to clear user snapshot on signout: %v", err)
	}

	s.mu.Lock()
	s.user = nil
	s.authenticated = false
	s.op = OpIdle
	s.errMsg = ""
	s.notifyLocked()
	s.mu.Unlock()

	s.producer.Emit(events.TypeSignOut, s.sessionID, userID(prev), userEmail(prev))
	return models.ActionResult{Success: true}
}

// RefreshUser re-fetches the current user. No-op when the token store
// holds no session; any failure resets to unauthenticated.
func (s *Store) RefreshUser(ctx context.Context) {
	if !s.tokens.IsAuthenticated(ctx, s.sessionID) {
		return
	}
	s.beginLoading()

	user, err := s.backend.Me(ctx, s.sessionID)

	s.mu.Lock()
	if err != nil || user == nil {
		s.user = nil
		s.authenticated = false
	} else {
		s.user = user
		s.authenticated = true
	}
	s.op = OpIdle
	s.notifyLocked()
	s.mu.Unlock()

	if err != nil || user == nil {
		if err := s.tokens.ClearUserSnapshot(ctx, s.sessionID); err != nil {
			log.Warnf("failed to clear user snapshot: %v", err)
		}
		return
	}
	s.persist(ctx)
}

func (s *Store) ClearError() {
	s.mu.Lock()
	if s.op == OpError {
		s.op = OpIdle
		s.errMsg = ""
		s.notifyLocked()
	}
	s.mu.Unlock()
}

func userID(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

func userEmail(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}
