package guard

// State is a node of the per-navigation checkpoint state machine
type State int

const (
	StateStart State = iota
	StateAuthCheck
	StatePermissionCheck
	StateNavigationProceeds
	StateRedirectLogin
	StateRedirectForbidden
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAuthCheck:
		return "auth_check"
	case StatePermissionCheck:
		return "permission_check"
	case StateNavigationProceeds:
		return "navigation_proceeds"
	case StateRedirectLogin:
		return "redirect_login"
	case StateRedirectForbidden:
		return "redirect_forbidden"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the navigation attempt
func (s State) Terminal() bool {
	return s == StateNavigationProceeds || s == StateRedirectLogin || s == StateRedirectForbidden
}

// Outcome is the terminal state reached by one navigation attempt
type Outcome struct {
	State    State
	Decision Decision
	// Trace lists the states visited, starting with StateStart
	Trace []State
}

// Chain runs AuthGuard then PermissionGuard in that fixed order
type Chain struct {
	auth       *AuthGuard
	permission *PermissionGuard
}

// NewChain creates a checkpoint chain
func NewChain(auth *AuthGuard, permission *PermissionGuard) *Chain {
	return &Chain{auth: auth, permission: permission}
}

// Auth returns the chain's AuthGuard
func (c *Chain) Auth() *AuthGuard {
	return c.auth
}

// Permission returns the chain's PermissionGuard
func (c *Chain) Permission() *PermissionGuard {
	return c.permission
}

// Evaluate drives one navigation attempt to a terminal state. PermissionGuard
// is consulted only after AuthGuard has allowed the session.
func (c *Chain) Evaluate(nav Navigation, target Target, principal Principal) Outcome {
	trace := []State{StateStart, StateAuthCheck}

	authDecision := c.auth.Check(nav, principal)
	if !authDecision.Allowed() {
		return Outcome{State: StateRedirectLogin, Decision: authDecision, Trace: append(trace, StateRedirectLogin)}
	}

	trace = append(trace, StatePermissionCheck)
	permDecision := c.permission.Check(nav, target, principal.Permissions())
	if !permDecision.Allowed() {
		return Outcome{State: StateRedirectForbidden, Decision: permDecision, Trace: append(trace, StateRedirectForbidden)}
	}

	return Outcome{State: StateNavigationProceeds, Decision: permDecision, Trace: append(trace, StateNavigationProceeds)}
}
