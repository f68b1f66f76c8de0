package client

// GuardState is the session state a guard observes
type GuardState int

const (
	StateInitializing GuardState = iota
	StateAuthorized
	StateUnauthorized
)

// GuardAction tells the caller what to do with the guarded content
type GuardAction int

const (
	// ActionShowLoading renders a loading indicator and nothing else
	ActionShowLoading GuardAction = iota
	// ActionRender renders the guarded content
	ActionRender
	// ActionRedirect navigates to Target instead of rendering
	ActionRedirect
)

// GuardDecision is the outcome of evaluating a guard for a requested route
type GuardDecision struct {
	Action GuardAction
	// Target is the redirect destination when Action is ActionRedirect
	Target string
	// From preserves the originally requested route on a redirect to login,
	// so a successful login can return the user there
	From string
}

// sessionState is the slice of Session a guard needs. Session satisfies it;
// tests can substitute a fake.
type sessionState interface {
	Initializing() bool
	IsAuthenticated() bool
}

// RouteGuard gates content on session state without performing any auth
// logic itself. It holds no state: every evaluation re-reads the session,
// so login and logout take effect on the next evaluation.
type RouteGuard struct {
	session      sessionState
	loginRoute   string
	landingRoute string
}

// NewRouteGuard creates a guard over the given session using the default
// login and landing routes
func NewRouteGuard(session sessionState) *RouteGuard {
	return &RouteGuard{
		session:      session,
		loginRoute:   LoginRoute,
		landingRoute: LandingRoute,
	}
}

// State derives the guard state from the session
func (g *RouteGuard) State() GuardState {
	switch {
	case g.session.Initializing():
		return StateInitializing
	case g.session.IsAuthenticated():
		return StateAuthorized
	default:
		return StateUnauthorized
	}
}

// Protected evaluates a guard for content that requires authentication.
// Unauthenticated access redirects to the login route, preserving the
// requested route so login can return there.
func (g *RouteGuard) Protected(requested string) GuardDecision {
	switch g.State() {
	case StateInitializing:
		return GuardDecision{Action: ActionShowLoading}
	case StateAuthorized:
		return GuardDecision{Action: ActionRender}
	default:
		return GuardDecision{Action: ActionRedirect, Target: g.loginRoute, From: requested}
	}
}

// Public evaluates a guard for content that only unauthenticated users
// should see, such as the login screen. An authenticated user is redirected
// to the landing route.
func (g *RouteGuard) Public(requested string) GuardDecision {
	switch g.State() {
	case StateInitializing:
		return GuardDecision{Action: ActionShowLoading}
	case StateAuthorized:
		return GuardDecision{Action: ActionRedirect, Target: g.landingRoute}
	default:
		return GuardDecision{Action: ActionRender}
	}
}
