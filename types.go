package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialStore manages authentication records: password verification,
// lockout state, and the failed attempt counter. Password policy is the
// store's concern; callers only see the resulting errors.
type CredentialStore interface {
	Create(ctx context.Context, loginName, email, password string) (*Credential, error)
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Credential, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// VerifyAndSignIn applies the lockout-on-repeated-failure policy. The
	// outcome never distinguishes an unknown email from a bad password.
	VerifyAndSignIn(ctx context.Context, email, password string, persistent bool) (LoginOutcome, error)
	SetLockout(ctx context.Context, id uuid.UUID, enabled bool, until *time.Time) error
	ResetFailedAttempts(ctx context.Context, id uuid.UUID) error
	IsLockedOut(ctx context.Context, id uuid.UUID) (bool, error)
}

// ProfileStore manages the business-facing account record. Email uniqueness
// is enforced by the store independently of the credential store.
type ProfileStore interface {
	Create(ctx context.Context, profile *Profile) (*Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Update(ctx context.Context, profile *Profile) (*Profile, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status ProfileStatus) (*Profile, error)
	TrackLogin(ctx context.Context, id uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	List(ctx context.Context) ([]*Profile, error)
}

// SessionState is the per-request view of the session bag the gate reads
// and writes. The cached account id is the single slot the gate owns; the
// principal id is whatever the transport layer authenticated.
type SessionState interface {
	CachedAccountID() (uuid.UUID, bool)
	CacheAccountID(id uuid.UUID)
	PrincipalAccountID() (uuid.UUID, bool)
	Clear()
}

// Config holds session token and cookie options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetTokenExpiration() int
	GetExtendedTokenDuration() int
	GetContextKey() string
	GetSessionKey() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
