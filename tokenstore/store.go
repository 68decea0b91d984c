package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"

	"FreshCart/models"

	"github.com/labstack/gommon/log"
)

// Store is the durable session keyspace: token pairs plus the handful of
// per-session flags the storefront needs across reloads (redirect path,
// onboarding fallback, persisted user snapshot, pending external session).
//
// Every write goes through to both backends. A write fails only when both
// paths fail; losing one is logged and tolerated. Reads prefer the primary
// and fall back to the secondary.
type Store struct {
	primary   Backend
	secondary Backend
}

func NewStore(primary, secondary Backend) *Store {
	return &Store{primary: primary, secondary: secondary}
}

func keyAccess(sid string) string     { return "auth:" + sid + ":access_token" }
func keyRefresh(sid string) string    { return "auth:" + sid + ":refresh_token" }
func keyUser(sid string) string       { return "auth:" + sid + ":user" }
func keyRedirect(sid string) string   { return "auth:" + sid + ":redirect_path" }
func keyOnboarding(sid string) string { return "auth:" + sid + ":onboarding_completed" }
func keyExternal(sid string) string   { return "auth:" + sid + ":external_session" }

func (s *Store) set(ctx context.Context, key, value string) error {
	errPrimary := s.primary.Set(ctx, key, value)
	errSecondary := s.secondary.Set(ctx, key, value)
	if errPrimary != nil && errSecondary != nil {
		return fmt.Errorf("both storage paths failed: %v / %w", errPrimary, errSecondary)
	}
	if errPrimary != nil {
		log.Warnf("primary token storage write failed for %s: %v", key, errPrimary)
	}
	if errSecondary != nil {
		log.Warnf("secondary token storage write failed for %s: %v", key, errSecondary)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	if val, err := s.primary.Get(ctx, key); err == nil {
		return val, true
	}
	if val, err := s.secondary.Get(ctx, key); err == nil {
		return val, true
	}
	return "", false
}

func (s *Store) del(ctx context.Context, keys ...string) error {
	errPrimary := s.primary.Del(ctx, keys...)
	errSecondary := s.secondary.Del(ctx, keys...)
	if errPrimary != nil && errSecondary != nil {
		return fmt.Errorf("both storage paths failed: %v / %w", errPrimary, errSecondary)
	}
	return nil
}

// SetTokens persists the token pair on both storage paths.
func (s *Store) SetTokens(ctx context.Context, sessionID, access, refresh string) error {
	if err := s.set(ctx, keyAccess(sessionID), access); err != nil {
		return err
	}
	if refresh != "" {
		return s.set(ctx, keyRefresh(sessionID), refresh)
	}
	return nil
}

// Tokens returns the stored pair; ok is false when no access token exists.
func (s *Store) Tokens(ctx context.Context, sessionID string) (models.TokenPair, bool) {
	access, ok := s.get(ctx, keyAccess(sessionID))
	if !ok || access == "" {
		return models.TokenPair{}, false
	}
	refresh, _ := s.get(ctx, keyRefresh(sessionID))
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, true
}

func (s *Store) ClearTokens(ctx context.Context, sessionID string) error {
	return s.del(ctx, keyAccess(sessionID), keyRefresh(sessionID))
}

// IsAuthenticated 只看访问令牌是否存在，有效性由后端判断
func (s *Store) IsAuthenticated(ctx context.Context, sessionID string) bool {
	_, ok := s.Tokens(ctx, sessionID)
	return ok
}

type persistedState struct {
	User          *models.User `json:"user"`
	Authenticated bool         `json:"authenticated"`
}

// SetUserSnapshot persists the reload-surviving part of the auth state:
// the user and the authenticated flag, nothing else.
func (s *Store) SetUserSnapshot(ctx context.Context, sessionID string, user *models.User, authenticated bool) error {
	data, err := json.Marshal(persistedState{User: user, Authenticated: authenticated})
	if err != nil {
		return err
	}
	return s.set(ctx, keyUser(sessionID), string(data))
}

func (s *Store) UserSnapshot(ctx context.Context, sessionID string) (user *models.User, authenticated, ok bool) {
	raw, found := s.get(ctx, keyUser(sessionID))
	if !found {
		return nil, false, false
	}
	var state persistedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, false, false
	}
	return state.User, state.Authenticated, true
}

func (s *Store) ClearUserSnapshot(ctx context.Context, sessionID string) error {
	return s.del(ctx, keyUser(sessionID))
}

func (s *Store) SetRedirectPath(ctx context.Context, sessionID, path string) error {
	return s.set(ctx, keyRedirect(sessionID), path)
}

// TakeRedirectPath reads and clears the stored post-login redirect path.
func (s *Store) TakeRedirectPath(ctx context.Context, sessionID string) string {
	path, ok := s.get(ctx, keyRedirect(sessionID))
	if !ok {
		return ""
	}
	if err := s.del(ctx, keyRedirect(sessionID)); err != nil {
		log.Warnf("failed to clear redirect path: %v", err)
	}
	return path
}

// SetOnboardingFallback caches the last known onboarding status. Advisory
// only, consulted when the backend cannot be reached.
func (s *Store) SetOnboardingFallback(ctx context.Context, sessionID string, completed bool) error {
	val := "false"
	if completed {
		val = "true"
	}
	return s.set(ctx, keyOnboarding(sessionID), val)
}

func (s *Store) OnboardingFallback(ctx context.Context, sessionID string) (completed, ok bool) {
	val, ok := s.get(ctx, keyOnboarding(sessionID))
	if !ok {
		return false, false
	}
	return val == "true", true
}

// SetExternalSession stashes an identity-provider session delivered ahead
// of the callback landing (e.g. written by a prior request in the flow).
func (s *Store) SetExternalSession(ctx context.Context, sessionID string, sess *models.ExternalSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.set(ctx, keyExternal(sessionID), string(data))
}

func (s *Store) ExternalSession(ctx context.Context, sessionID string) (*models.ExternalSession, bool) {
	raw, ok := s.get(ctx, keyExternal(sessionID))
	if !ok {
		return nil, false
	}
	var sess models.ExternalSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.AccessToken == "" {
		return nil, false
	}
	return &sess, true
}

func (s *Store) ClearExternalSession(ctx context.Context, sessionID string) error {
	return s.del(ctx, keyExternal(sessionID))
}
