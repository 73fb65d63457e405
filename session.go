package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// ErrUnableToDecodeSession covers principal tokens we cannot parse or trust
var ErrUnableToDecodeSession = goerrors.New("unable to decode session token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// TokenSessions mints and parses the signed principal token the transport
// layer carries in the auth cookie.
type TokenSessions struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	expiration int
	extended   int
	logger     Logger
}

// NewTokenSessions will create a TokenSessions from config
func NewTokenSessions(cfg Config) *TokenSessions {
	return &TokenSessions{
		signingKey: []byte(cfg.GetSigningKey()),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		expiration: cfg.GetTokenExpiration(),
		extended:   cfg.GetExtendedTokenDuration(),
		logger:     defLogger{},
	}
}

func (t *TokenSessions) WithLogger(l Logger) *TokenSessions {
	if l != nil {
		t.logger = l
	}
	return t
}

// Mint signs a principal token for the account. Persistent sessions get the
// extended duration.
func (t *TokenSessions) Mint(accountID uuid.UUID, persistent bool) (string, error) {
	now := time.Now()

	claims := &jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   accountID.String(),
		Audience:  t.audience,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.duration(persistent))),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Parse validates a principal token and returns the account id it names
func (t *TokenSessions) Parse(raw string) (uuid.UUID, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if t.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(t.issuer))
	}
	if len(t.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(t.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			t.logger.Error("session token has unexpected signing method: %v", tok.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.signingKey, nil
	}, parserOptions...)

	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, ErrUnableToDecodeSession.Category, ErrUnableToDecodeSession.Message)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrUnableToDecodeSession
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryAuth, "session subject is not an account id")
	}

	return id, nil
}

func (t *TokenSessions) duration(persistent bool) time.Duration {
	hours := t.expiration
	if hours <= 0 {
		hours = 24
	}

	if persistent && t.extended > hours {
		hours = t.extended
	}

	return time.Duration(hours) * time.Hour
}

// routerSession is the SessionState over a router.Context: the cached
// account id lives in the session-bag cookie, the principal comes from the
// signed token in the auth cookie.
type routerSession struct {
	ctx    router.Context
	tokens *TokenSessions
	cfg    Config
}

var _ SessionState = (*routerSession)(nil)

// NewRouterSession adapts a router.Context into the gate's SessionState
func NewRouterSession(c router.Context, tokens *TokenSessions, cfg Config) SessionState {
	return &routerSession{ctx: c, tokens: tokens, cfg: cfg}
}

func (s *routerSession) CachedAccountID() (uuid.UUID, bool) {
	raw := s.ctx.Cookies(s.cfg.GetSessionKey())
	if raw == "" {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

func (s *routerSession) CacheAccountID(id uuid.UUID) {
	setCookie(s.ctx, s.cfg.GetSessionKey(), id.String(), sessionCookieDuration(s.cfg))
}

func (s *routerSession) PrincipalAccountID() (uuid.UUID, bool) {
	raw := s.ctx.Cookies(s.cfg.GetContextKey())
	if raw == "" {
		return uuid.Nil, false
	}

	id, err := s.tokens.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

func (s *routerSession) Clear() {
	clearCookie(s.ctx, s.cfg.GetSessionKey())
	clearCookie(s.ctx, s.cfg.GetContextKey())
}

// SignIn mints the principal token, sets the auth cookie, and caches the
// account id into the session bag.
func SignIn(c router.Context, tokens *TokenSessions, cfg Config, accountID uuid.UUID, persistent bool) error {
	token, err := tokens.Mint(accountID, persistent)
	if err != nil {
		return err
	}

	duration := sessionCookieDuration(cfg)
	if persistent && cfg.GetExtendedTokenDuration() > 0 {
		duration = time.Duration(cfg.GetExtendedTokenDuration()) * time.Hour
	}

	setCookie(c, cfg.GetContextKey(), token, duration)
	setCookie(c, cfg.GetSessionKey(), accountID.String(), duration)
	return nil
}

// SignOut terminates the current session by expiring both cookies
func SignOut(c router.Context, cfg Config) {
	clearCookie(c, cfg.GetContextKey())
	clearCookie(c, cfg.GetSessionKey())
}

func sessionCookieDuration(cfg Config) time.Duration {
	if cfg.GetTokenExpiration() > 0 {
		return time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}
	return 24 * time.Hour
}

func setCookie(c router.Context, name, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func clearCookie(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
