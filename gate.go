package accounts

import (
	"context"
	"net/url"
	"strings"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// BlockChecker is the slice of AccountService the gate needs
type BlockChecker interface {
	IsBlocked(ctx context.Context, id uuid.UUID) bool
}

// GateRequest is the transport-free view of an inbound request
type GateRequest interface {
	Path() string
	Session() SessionState
}

// Decision is the gate's terminal answer for a request. A rejected decision
// carries the redirect target; nothing downstream runs after it.
type Decision struct {
	Admitted   bool   `json:"admitted"`
	Reason     string `json:"reason,omitempty"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

const (
	// ReasonLoginRequired means no account id could be resolved
	ReasonLoginRequired = "login required"
	// ReasonBlocked means the account was blocked after the session was issued
	ReasonBlocked = "account blocked"
)

// AccessGate re-evaluates the blocked decision on every request that is not
// allow-listed. Session tokens alone are not proof of continued
// authorization; an administrator can flip status at any time.
type AccessGate struct {
	checker        BlockChecker
	allowedPaths   []string
	loginRoute     string
	blockedMessage string
	logger         Logger
}

type GateOption func(*AccessGate)

// WithAllowedPaths replaces the allow-listed path prefixes. The bare root
// path is always matched exactly, never as a prefix.
func WithAllowedPaths(paths ...string) GateOption {
	return func(g *AccessGate) {
		if len(paths) > 0 {
			g.allowedPaths = paths
		}
	}
}

// WithLoginRoute sets the redirect target for rejected requests
func WithLoginRoute(route string) GateOption {
	return func(g *AccessGate) {
		if route != "" {
			g.loginRoute = route
		}
	}
}

// WithBlockedMessage sets the message appended to the login redirect when
// an account was blocked mid-session
func WithBlockedMessage(message string) GateOption {
	return func(g *AccessGate) {
		if message != "" {
			g.blockedMessage = message
		}
	}
}

func WithGateLogger(l Logger) GateOption {
	return func(g *AccessGate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewAccessGate will create an AccessGate over the block checker
func NewAccessGate(checker BlockChecker, opts ...GateOption) *AccessGate {
	g := &AccessGate{
		checker:        checker,
		allowedPaths:   []string{"/login", "/register", "/logout", "/"},
		loginRoute:     "/login",
		blockedMessage: "Your account has been blocked",
		logger:         defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Admit runs the per-request state machine:
//  1. allow-listed paths pass without touching identity or the stores
//  2. the account id comes from the session bag, or is lazily migrated
//     there from the authenticated principal
//  3. no id resolves to a login redirect
//  4. a blocked account is signed out, its session bag cleared, and
//     redirected with the blocked message
func (g *AccessGate) Admit(ctx context.Context, req GateRequest) Decision {
	if g.allowListed(req.Path()) {
		return Decision{Admitted: true}
	}

	session := req.Session()

	accountID, ok := session.CachedAccountID()
	if !ok {
		if principalID, authenticated := session.PrincipalAccountID(); authenticated {
			session.CacheAccountID(principalID)
			accountID, ok = principalID, true
		}
	}

	if !ok {
		return Decision{
			Reason:     ReasonLoginRequired,
			RedirectTo: g.loginRoute,
		}
	}

	if g.checker.IsBlocked(ctx, accountID) {
		g.logger.Warn("terminating session for blocked account %s", accountID)
		session.Clear()
		return Decision{
			Reason:     ReasonBlocked,
			RedirectTo: g.loginRoute + "?message=" + url.QueryEscape(g.blockedMessage),
		}
	}

	return Decision{Admitted: true}
}

func (g *AccessGate) allowListed(path string) bool {
	for _, allowed := range g.allowedPaths {
		if allowed == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if strings.HasPrefix(path, allowed) {
			return true
		}
	}
	return false
}

// Middleware adapts the gate into a router middleware. Rejections issue the
// redirect and end processing.
func (g *AccessGate) Middleware(tokens *TokenSessions, cfg Config) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			decision := g.Admit(c.Context(), NewRouterGateRequest(c, tokens, cfg))
			if decision.Admitted {
				return next(c)
			}
			return c.Redirect(decision.RedirectTo, router.StatusSeeOther)
		}
	}
}

type routerGateRequest struct {
	ctx     router.Context
	session SessionState
}

// NewRouterGateRequest wraps a router.Context as a GateRequest
func NewRouterGateRequest(c router.Context, tokens *TokenSessions, cfg Config) GateRequest {
	return &routerGateRequest{
		ctx:     c,
		session: NewRouterSession(c, tokens, cfg),
	}
}

func (r *routerGateRequest) Path() string {
	return r.ctx.Path()
}

func (r *routerGateRequest) Session() SessionState {
	return r.session
}

// LoginMessage maps a login outcome to the user-facing message shown on the
// login form. The wording never reveals which credential check failed.
func LoginMessage(outcome LoginOutcome) string {
	switch outcome {
	case OutcomeSucceeded:
		return ""
	case OutcomeLockedOut:
		return "This account has been locked out, please try again later."
	case OutcomeNotAllowed:
		return "Your account is blocked. Please contact support."
	default:
		return "Invalid login attempt."
	}
}
