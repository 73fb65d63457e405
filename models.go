package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileStatus is the human-facing account status
type ProfileStatus = string

const (
	// ProfileStatusActive is a usable account
	ProfileStatusActive ProfileStatus = "active"
	// ProfileStatusBlocked is an administratively blocked account
	ProfileStatusBlocked ProfileStatus = "blocked"
)

// LoginOutcome is the four-way result of a login attempt. It carries no
// payload so callers cannot tell an unknown email from a wrong password.
type LoginOutcome string

const (
	// OutcomeSucceeded means the credentials verified and the session may be issued
	OutcomeSucceeded LoginOutcome = "succeeded"
	// OutcomeLockedOut means the credential lockout is in effect
	OutcomeLockedOut LoginOutcome = "locked_out"
	// OutcomeNotAllowed means the profile is blocked; credentials were never checked
	OutcomeNotAllowed LoginOutcome = "not_allowed"
	// OutcomeFailed covers everything else: unknown email, bad password, store failure
	OutcomeFailed LoginOutcome = "failed"
)

// Credential is the authentication record, independent of the business
// profile. Lockout fields are mutated by block/unblock and by the
// verify-and-sign-in failure policy.
type Credential struct {
	bun.BaseModel  `bun:"table:credentials,alias:crd"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	LoginName      string     `bun:"login_name,notnull" json:"login_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"password_hash,omitempty"`
	LockoutEnabled bool       `bun:"lockout_enabled" json:"lockout_enabled,omitempty"`
	LockoutEnd     *time.Time `bun:"lockout_end,nullzero" json:"lockout_end,omitempty"`
	FailedAttempts int        `bun:"failed_attempts" json:"failed_attempts,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// LockedOutNow reports whether the lockout is in effect at the given
// instant. A nil LockoutEnd with the flag enabled means locked out forever.
func (c *Credential) LockedOutNow(now time.Time) bool {
	if c == nil || !c.LockoutEnabled {
		return false
	}
	if c.LockoutEnd == nil {
		return true
	}
	return c.LockoutEnd.After(now)
}

// Profile is the business-facing account record. Its id is shared 1:1 with
// the credential created during registration.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string        `bun:"name,notnull" json:"name,omitempty"`
	Email         string        `bun:"email,notnull,unique" json:"email,omitempty"`
	Status        ProfileStatus `bun:"status,notnull" json:"status,omitempty"`
	RegisteredAt  *time.Time    `bun:"registered_at,nullzero,default:current_timestamp" json:"registered_at,omitempty"`
	LastLoginAt   *time.Time    `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus defaults an empty status to active
func (p *Profile) EnsureStatus() {
	if p.Status == "" {
		p.Status = ProfileStatusActive
	}
}

// Blocked reports whether the profile status marks the account blocked. A
// nil profile contributes no block signal.
func (p *Profile) Blocked() bool {
	return p != nil && p.Status == ProfileStatusBlocked
}

// AccountBlocked aggregates the two block signals. Every caller that needs
// the blocked decision goes through this OR; neither signal is authoritative
// on its own.
func AccountBlocked(profile *Profile, lockoutActive bool) bool {
	return profile.Blocked() || lockoutActive
}
