package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"FreshCart/authstate"
	"FreshCart/models"
	"FreshCart/tokenstore"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/gommon/log"
)

// ErrDeferVerification marks an email-verification redirect: the flow
// exits silently and leaves the session to the verification page.
var ErrDeferVerification = errors.New("session: email verification redirect, deferring")

// ErrNoSession no usable identity-provider session was found
var ErrNoSession = errors.New("session: no session found")

// OnboardingBackend is the slice of the gateway client the callback
// flow consults after a successful exchange.
type OnboardingBackend interface {
	OnboardingStatus(ctx context.Context, sessionID string) (bool, error)
}

// Flow completes a landing from the external identity provider: find a
// session, exchange it for application tokens, sync the auth store, and
// decide where to send the user. The whole flow is atomic-or-abort from
// the user's perspective; any error aborts without retry.
type Flow struct {
	exchanger Exchanger
	states    *authstate.Manager
	tokens    *tokenstore.Store
	backend   OnboardingBackend
}

func NewFlow(exchanger Exchanger, states *authstate.Manager, tokens *tokenstore.Store, backend OnboardingBackend) *Flow {
	return &Flow{
		exchanger: exchanger,
		states:    states,
		tokens:    tokens,
		backend:   backend,
	}
}

// Complete runs the callback flow once and returns the navigation
// target. query is the landing URL's query string; fragment is the URL
// fragment as forwarded by the landing page (servers never see it
// directly).
func (f *Flow) Complete(ctx context.Context, sessionID string, query url.Values, fragment string) (string, error) {
	// 1. 已有的外部会话
	sess, _ := f.tokens.ExternalSession(ctx, sessionID)

	// 2. exchange code in the query string; a failed exchange is fatal
	if sess == nil {
		if code := query.Get("code"); code != "" {
			exchanged, err := f.exchanger.Exchange(ctx, code)
			if err != nil {
				return "", fmt.Errorf("code exchange failed: %w", err)
			}
			sess = exchanged
		}
	}

	// 3. hash-fragment token: the provider already consumed it, re-read
	if sess == nil && strings.Contains(fragment, "access_token") {
		sess, _ = f.tokens.ExternalSession(ctx, sessionID)
	}

	// 4. nothing found
	if sess == nil {
		if isEmailVerification(query, fragment) {
			return "", ErrDeferVerification
		}
		return "", ErrNoSession
	}

	logSessionClaims(sess)

	// 5–7. exchange with the backend and resync state; the action result
	// carries the fatal missing-success / missing-token cases
	store := f.states.GetOrCreate(sessionID)
	result := store.SignInWithGoogle(ctx, sess)
	if !result.Success {
		return "", errors.New(result.Message)
	}
	if err := f.tokens.ClearExternalSession(ctx, sessionID); err != nil {
		log.Warnf("failed to clear consumed external session: %v", err)
	}

	// 8. onboarding check; unreachable backend means incomplete, not abort
	completed, err := f.backend.OnboardingStatus(ctx, sessionID)
	if err != nil {
		log.Warnf("onboarding status check failed, assuming incomplete: %v", err)
		completed = false
	} else if err := f.tokens.SetOnboardingFallback(ctx, sessionID, completed); err != nil {
		log.Warnf("failed to cache onboarding status: %v", err)
	}

	// 9. 跳转目标
	redirect := f.tokens.TakeRedirectPath(ctx, sessionID)
	switch {
	case !completed:
		return "/onboarding", nil
	case redirect != "":
		return redirect, nil
	default:
		return "/", nil
	}
}

func isEmailVerification(query url.Values, fragment string) bool {
	t := query.Get("type")
	if t == "" {
		for _, part := range strings.Split(strings.TrimPrefix(fragment, "#"), "&") {
			if v, ok := strings.CutPrefix(part, "type="); ok {
				t = v
				break
			}
		}
	}
	switch t {
	case "signup", "email_change", "email_verification":
		return true
	}
	return false
}

// logSessionClaims peeks at the unverified ID token claims for the flow
// log. Verification is the backend's job during the exchange.
func logSessionClaims(sess *models.ExternalSession) {
	if sess.IDToken == "" {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.IDToken, claims); err != nil {
		return
	}
	if email, ok := claims["email"].(string); ok {
		log.Infof("completing session callback for %s", email)
	}
}
