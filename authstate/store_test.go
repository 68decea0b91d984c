package authstate

import (
	"context"
	"errors"
	"testing"

	"FreshCart/models"
	"FreshCart/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	signInResp   *models.AuthResponse
	signInErr    error
	exchangeResp *models.AuthResponse
	exchangeErr  error
	signOutErr   error
	meUser       *models.User
	meErr        error
	signOutCalls int
}

func (f *fakeBackend) SignUp(context.Context, *models.SignUpRequest) (*models.AuthResponse, error) {
	return &models.AuthResponse{Success: true, Message: "check your email"}, nil
}

func (f *fakeBackend) SignIn(context.Context, *models.SignInRequest) (*models.AuthResponse, error) {
	return f.signInResp, f.signInErr
}

func (f *fakeBackend) ExchangeGoogleSession(context.Context, *models.ExternalSession) (*models.AuthResponse, error) {
	return f.exchangeResp, f.exchangeErr
}

func (f *fakeBackend) SignOut(context.Context, string) error {
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeBackend) Me(context.Context, string) (*models.User, error) {
	return f.meUser, f.meErr
}

func newTestTokens(t *testing.T) *tokenstore.Store {
	t.Helper()
	primary, err := tokenstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	secondary, err := tokenstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return tokenstore.NewStore(primary, secondary)
}

func TestInitialState(t *testing.T) {
	t.Parallel()
	store := NewStore("sid", &fakeBackend{}, newTestTokens(t), nil)

	snap := store.Snapshot()
	assert.Nil(t, snap.User)
	assert.False(t, snap.IsAuthenticated)
	assert.False(t, snap.IsLoading)
	assert.Empty(t, snap.Error)
}

func TestSignInSuccessStoresTokens(t *testing.T) {
	t.Parallel()
	tokens := newTestTokens(t)
	backend := &fakeBackend{
		signInResp: &models.AuthResponse{
			Success:      true,
			AccessToken:  "T",
			RefreshToken: "R",
			User:         &models.User{ID: "u1", FirstName: "A"},
		},
	}
	store := NewStore("sid", backend, tokens, nil)

	result := store.SignIn(context.Background(), &models.SignInRequest{Email: "a@b.c", Password: "pw"})
	require.True(t, result.Success)

	snap := store.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "A", snap.User.FirstName)
	assert.False(t, snap.IsLoading)

	pair, ok := tokens.Tokens(context.Background(), "sid")
	require.True(t, ok)
	assert.Equal(t, "T", pair.AccessToken)
	assert.Equal(t, "R", pair.RefreshToken)
}

func TestSignInFailureKeepsPreviousState(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{
		signInResp: &models.AuthResponse{Success: false, Message: "invalid credentials"},
	}
	store := NewStore("sid", backend, newTestTokens(t), nil)

	result := store.SignIn(context.Background(), &models.SignInRequest{})
	assert.False(t, result.Success)
	assert.Equal(t, "invalid credentials", result.Message)

	snap := store.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, "invalid credentials", snap.Error)
}

func TestSignInMalformedSuccessGetsGenericError(t *testing.T) {
	t.Parallel()
	// 后端声称成功却没给令牌，也没给消息
	backend := &fakeBackend{
		signInResp: &models.AuthResponse{Success: true, User: &models.User{ID: "u1"}},
	}
	store := NewStore("sid", backend, newTestTokens(t), nil)

	result := store.SignIn(context.Background(), &models.SignInRequest{})
	assert.False(t, result.Success)
	assert.Equal(t, "sign in failed", result.Message)
	assert.Equal(t, "sign in failed", store.Snapshot().Error)
}

func TestSignOutAlwaysResetsEvenWhenBackendFails(t *testing.T) {
	t.Parallel()
	tokens := newTestTokens(t)
	ctx := context.Background()
	require.NoError(t, tokens.SetTokens(ctx, "sid", "T", "R"))
	require.NoError(t, tokens.SetUserSnapshot(ctx, "sid", &models.User{ID: "u1"}, true))

	backend := &fakeBackend{signOutErr: errors.New("backend down")}
	store := NewStore("sid", backend, tokens, nil)
	require.True(t, store.Snapshot().IsAuthenticated) // hydrated

	result := store.SignOut(ctx)
	assert.True(t, result.Success)
	assert.Equal(t, 1, backend.signOutCalls)

	snap := store.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Error)
	assert.False(t, tokens.IsAuthenticated(ctx, "sid"))
}

func TestSignOutClearsError(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{
		signInResp: &models.AuthResponse{Success: false, Message: "nope"},
	}
	store := NewStore("sid", backend, newTestTokens(t), nil)

	store.SignIn(context.Background(), &models.SignInRequest{})
	require.NotEmpty(t, store.Snapshot().Error)

	store.SignOut(context.Background())
	assert.Empty(t, store.Snapshot().Error)
}

func TestRefreshUserNoopWhenUnauthenticated(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{meErr: errors.New("should not be called")}
	store := NewStore("sid", backend, newTestTokens(t), nil)

	store.RefreshUser(context.Background())
	snap := store.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Empty(t, snap.Error)
}

func TestRefreshUserFailureResets(t *testing.T) {
	t.Parallel()
	tokens := newTestTokens(t)
	ctx := context.Background()
	require.NoError(t, tokens.SetTokens(ctx, "sid", "T", ""))
	require.NoError(t, tokens.SetUserSnapshot(ctx, "sid", &models.User{ID: "u1"}, true))

	backend := &fakeBackend{meErr: errors.New("backend down")}
	store := NewStore("sid", backend, tokens, nil)
	require.True(t, store.Snapshot().IsAuthenticated)

	store.RefreshUser(ctx)
	snap := store.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
	assert.False(t, snap.IsLoading)
}

func TestRefreshUserSuccessReplacesUser(t *testing.T) {
	t.Parallel()
	tokens := newTestTokens(t)
	ctx := context.Background()
	require.NoError(t, tokens.SetTokens(ctx, "sid", "T", ""))

	backend := &fakeBackend{meUser: &models.User{ID: "u2", FirstName: "B"}}
	store := NewStore("sid", backend, tokens, nil)

	store.RefreshUser(ctx)
	snap := store.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "u2", snap.User.ID)
}

func TestClearErrorOnlyClearsError(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{
		signInResp: &models.AuthResponse{Success: false, Message: "bad"},
	}
	store := NewStore("sid", backend, newTestTokens(t), nil)
	store.SignIn(context.Background(), &models.SignInRequest{})

	store.ClearError()
	snap := store.Snapshot()
	assert.Empty(t, snap.Error)
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.IsAuthenticated)
}

func TestSubscriberSeesTransitions(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{
		signInResp: &models.AuthResponse{
			Success:     true,
			AccessToken: "T",
			User:        &models.User{ID: "u1"},
		},
	}
	store := NewStore("sid", backend, newTestTokens(t), nil)

	id, updates := store.Subscribe()
	defer store.Unsubscribe(id)

	store.SignIn(context.Background(), &models.SignInRequest{})

	first := <-updates
	assert.True(t, first.IsLoading)
	second := <-updates
	assert.True(t, second.IsAuthenticated)
	assert.False(t, second.IsLoading)
}

func TestHydrationRequiresToken(t *testing.T) {
	t.Parallel()
	tokens := newTestTokens(t)
	ctx := context.Background()
	// persisted user but no token: must come back unauthenticated
	require.NoError(t, tokens.SetUserSnapshot(ctx, "sid", &models.User{ID: "u1"}, true))

	store := NewStore("sid", &fakeBackend{}, tokens, nil)
	assert.False(t, store.Snapshot().IsAuthenticated)
}

func TestManagerReturnsSameStore(t *testing.T) {
	t.Parallel()
	m := NewManager(&fakeBackend{}, newTestTokens(t), nil)
	a := m.GetOrCreate("sid")
	b := m.GetOrCreate("sid")
	assert.Same(t, a, b)
	assert.NotSame(t, a, m.GetOrCreate("other"))
}
