package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"FreshCart/authstate"
	"FreshCart/models"
	"FreshCart/session"
	"FreshCart/tokenstore"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	exchangeResp *models.AuthResponse
	signOutErr   error
}

func (s *stubGateway) SignUp(context.Context, *models.SignUpRequest) (*models.AuthResponse, error) {
	return &models.AuthResponse{Success: true}, nil
}

func (s *stubGateway) SignIn(context.Context, *models.SignInRequest) (*models.AuthResponse, error) {
	return &models.AuthResponse{
		Success:     true,
		AccessToken: "T",
		User:        &models.User{ID: "u1", FirstName: "A"},
	}, nil
}

func (s *stubGateway) ExchangeGoogleSession(context.Context, *models.ExternalSession) (*models.AuthResponse, error) {
	if s.exchangeResp == nil {
		return &models.AuthResponse{Success: false, Message: "rejected"}, nil
	}
	return s.exchangeResp, nil
}

func (s *stubGateway) SignOut(context.Context, string) error { return s.signOutErr }

func (s *stubGateway) Me(context.Context, string) (*models.User, error) {
	return nil, errors.New("not used")
}

func (s *stubGateway) OnboardingStatus(context.Context, string) (bool, error) {
	return false, nil
}

type stubExchanger struct{}

func (stubExchanger) Exchange(context.Context, string) (*models.ExternalSession, error) {
	return &models.ExternalSession{AccessToken: "ext"}, nil
}

func newAuthHandler(t *testing.T, gw *stubGateway) *AuthHandler {
	t.Helper()
	primary, err := tokenstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	secondary, err := tokenstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	tokens := tokenstore.NewStore(primary, secondary)
	states := authstate.NewManager(gw, tokens, nil)
	flow := session.NewFlow(stubExchanger{}, states, tokens, gw)
	return NewAuthHandler(states, flow)
}

func newAuthContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	c := e.NewContext(req, rec)
	c.Set("sessionID", "sid")
	return c
}

func TestSignInEndpointReturnsState(t *testing.T) {
	t.Parallel()
	h := newAuthHandler(t, &stubGateway{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
		strings.NewReader(`{"email":"a@b.c","password":"pw"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.SignIn(newAuthContext(e, req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Result models.ActionResult `json:"result"`
		State  authstate.Snapshot  `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Result.Success)
	assert.True(t, body.State.IsAuthenticated)
	assert.Equal(t, "A", body.State.User.FirstName)
}

func TestSignOutEndpointAlwaysSucceeds(t *testing.T) {
	t.Parallel()
	h := newAuthHandler(t, &stubGateway{signOutErr: errors.New("backend down")})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.SignOut(newAuthContext(e, req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var result models.ActionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
}

func TestCallbackSuccessRedirectsToOnboarding(t *testing.T) {
	t.Parallel()
	gw := &stubGateway{
		exchangeResp: &models.AuthResponse{
			Success:     true,
			AccessToken: "T",
			User:        &models.User{FirstName: "A"},
		},
	}
	h := newAuthHandler(t, gw)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Callback(newAuthContext(e, req, rec)))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/onboarding", rec.Header().Get(echo.HeaderLocation))
}

func TestCallbackFailureRedirectsToLoginWithToast(t *testing.T) {
	t.Parallel()
	h := newAuthHandler(t, &stubGateway{}) // exchange rejected

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Callback(newAuthContext(e, req, rec)))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), toastCookie)
}

func TestCallbackEmailVerificationRedirectsHomeSilently(t *testing.T) {
	t.Parallel()
	h := newAuthHandler(t, &stubGateway{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?type=signup", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Callback(newAuthContext(e, req, rec)))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.NotContains(t, rec.Header().Get(echo.HeaderSetCookie), toastCookie)
}
