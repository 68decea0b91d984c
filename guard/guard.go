package guard

import (
	"context"

	"FreshCart/tokenstore"

	"github.com/labstack/gommon/log"
)

// OnboardingBackend answers whether a session's user finished the
// onboarding flow. The backend is the source of truth; the token store's
// cached flag is only consulted when it cannot be reached.
type OnboardingBackend interface {
	OnboardingStatus(ctx context.Context, sessionID string) (bool, error)
}

// Result is what layout code renders loading or blocking UI from.
type Result struct {
	IsChecking          bool `json:"isChecking"`
	OnboardingCompleted bool `json:"onboardingCompleted"`
	RequiresOnboarding  bool `json:"requiresOnboarding"`
}

const onboardingPath = "/onboarding"

// Guard gates protected routes behind onboarding completion. Paths in
// neither set pass without a check.
type Guard struct {
	public    map[string]bool
	protected map[string]bool
	backend   OnboardingBackend
	tokens    *tokenstore.Store
}

func NewGuard(public, protected []string, backend OnboardingBackend, tokens *tokenstore.Store) *Guard {
	g := &Guard{
		public:    make(map[string]bool, len(public)),
		protected: make(map[string]bool, len(protected)),
		backend:   backend,
		tokens:    tokens,
	}
	for _, p := range public {
		g.public[p] = true
	}
	for _, p := range protected {
		g.protected[p] = true
	}
	return g
}

// Check evaluates the gate for one navigation. authKnown is false while
// the session's auth status is still being determined; the guard then
// stays in the checking state and decides nothing.
func (g *Guard) Check(ctx context.Context, sessionID, path string, authKnown, authenticated bool) Result {
	if !authKnown {
		return Result{IsChecking: true}
	}
	// 未登录用户由登录流程处理，这里不做跳转
	if !authenticated {
		return Result{}
	}
	if g.public[path] || path == onboardingPath {
		return Result{}
	}
	if !g.protected[path] {
		return Result{}
	}

	completed, err := g.backend.OnboardingStatus(ctx, sessionID)
	if err != nil {
		log.Warnf("onboarding status check failed, using cached flag: %v", err)
		cached, ok := g.tokens.OnboardingFallback(ctx, sessionID)
		completed = ok && cached
	} else if err := g.tokens.SetOnboardingFallback(ctx, sessionID, completed); err != nil {
		log.Warnf("failed to cache onboarding status: %v", err)
	}

	return Result{
		OnboardingCompleted: completed,
		RequiresOnboarding:  !completed,
	}
}
