package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AccountService orchestrates the account lifecycle across the credential
// and profile stores. Writes are best-effort sequential: registration
// compensates explicitly, the batch operations tolerate and log partial
// failure. No two-phase coordination happens here.
type AccountService struct {
	credentials CredentialStore
	profiles    ProfileStore
	logger      Logger
	now         func() time.Time
}

// NewAccountService will create an AccountService over the two stores
func NewAccountService(credentials CredentialStore, profiles ProfileStore) *AccountService {
	return &AccountService{
		credentials: credentials,
		profiles:    profiles,
		logger:      defLogger{},
		now:         time.Now,
	}
}

func (s *AccountService) WithLogger(l Logger) *AccountService {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithClock injects a custom clock (useful for tests)
func (s *AccountService) WithClock(clock func() time.Time) *AccountService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// BatchResult reports how many ids of a batch operation succeeded. Batches
// are never atomic; partial success is the expected shape.
type BatchResult struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
}

// Register creates the credential and then the profile that shares its id.
// A profile write failure deletes the just-created credential again so the
// attempted email resolves to no credential afterwards.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*Profile, error) {
	if err := validation.Validate(name, validation.Required, validation.Length(1, 100)); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid account name").
			WithCode(goerrors.CodeBadRequest)
	}

	existing, err := s.profiles.GetByEmail(ctx, email)
	if err != nil && !IsNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}
	if existing != nil {
		return nil, ErrAccountExists.WithMetadata(map[string]any{"email": email})
	}

	credential, err := s.credentials.Create(ctx, email, email, password)
	if err != nil {
		// credential store failures (policy, duplicates) propagate verbatim
		return nil, err
	}

	now := s.now()
	profile := &Profile{
		ID:           credential.ID,
		Name:         name,
		Email:        credential.Email,
		Status:       ProfileStatusActive,
		RegisteredAt: &now,
		LastLoginAt:  &now,
	}

	created, perr := s.profiles.Create(ctx, profile)
	if perr != nil {
		s.logger.Error("failed to save profile for %s, deleting credential %s: %v", email, credential.ID, perr)

		if derr := s.credentials.Delete(ctx, credential.ID); derr != nil {
			// keep the root cause; the dangling credential is only logged
			s.logger.Error("compensation failed, credential %s may be orphaned: %v", credential.ID, derr)
		}

		if IsUniqueViolation(perr) {
			return nil, ErrEmailExists.WithMetadata(map[string]any{"email": email})
		}
		return nil, ErrProfileSave.WithMetadata(map[string]any{"email": email})
	}

	return created, nil
}

// Login merges the profile block check with credential verification. A
// blocked profile short-circuits before the password is ever checked, so
// blocked accounts accrue no failed attempt noise.
func (s *AccountService) Login(ctx context.Context, email, password string, persistent bool) (LoginOutcome, error) {
	credential, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return OutcomeFailed, nil
		}
		return OutcomeFailed, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve credential")
	}

	profile, err := s.profiles.GetByID(ctx, credential.ID)
	if err != nil && !IsNotFound(err) {
		// fail closed: an unreadable profile is treated as blocked
		s.logger.Error("profile read failed during login for %s: %v", credential.ID, err)
		return OutcomeNotAllowed, nil
	}
	if profile.Blocked() {
		s.logger.Warn("login rejected for %s: profile is blocked", email)
		return OutcomeNotAllowed, nil
	}

	outcome, err := s.credentials.VerifyAndSignIn(ctx, email, password, persistent)
	if err != nil {
		return OutcomeFailed, goerrors.Wrap(err, goerrors.CategoryInternal, "credential verification failed")
	}

	if outcome == OutcomeSucceeded {
		if err := s.profiles.TrackLogin(ctx, credential.ID); err != nil {
			// secondary write, the login itself is not rolled back
			s.logger.Error("failed to update last login for %s: %v", credential.ID, err)
		}
	}

	return outcome, nil
}

// IsBlocked computes the OR of the profile status and the credential
// lockout. Store failures report blocked: the gate prefers safety over
// availability.
func (s *AccountService) IsBlocked(ctx context.Context, id uuid.UUID) bool {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil && !IsNotFound(err) {
		s.logger.Error("profile read failed during block check for %s: %v", id, err)
		return true
	}

	lockedOut, err := s.credentials.IsLockedOut(ctx, id)
	if err != nil {
		s.logger.Error("lockout read failed during block check for %s: %v", id, err)
		return true
	}

	return AccountBlocked(profile, lockedOut)
}

// BlockAccounts marks every profile blocked and locks every credential out
// indefinitely. Missing records are logged, not fatal.
func (s *AccountService) BlockAccounts(ctx context.Context, ids []uuid.UUID, callerID uuid.UUID) (BatchResult, error) {
	result := BatchResult{Requested: len(ids)}

	if err := guardSelfAction(ids, callerID); err != nil {
		return result, err
	}

	for _, id := range ids {
		ok := true

		if _, err := s.profiles.UpdateStatus(ctx, id, ProfileStatusBlocked); err != nil {
			if IsNotFound(err) {
				s.logger.Warn("no profile for %s during block", id)
			} else {
				s.logger.Error("failed to block profile %s: %v", id, err)
				ok = false
			}
		}

		// nil end = locked out forever
		if err := s.credentials.SetLockout(ctx, id, true, nil); err != nil {
			if IsNotFound(err) {
				s.logger.Warn("no credential for %s during block", id)
			} else {
				s.logger.Error("failed to lock credential %s: %v", id, err)
				ok = false
			}
		}

		if ok {
			result.Succeeded++
		}
	}

	return result, nil
}

// UnblockAccounts restores active status, clears the lockout, and resets
// the failed attempt counter. Unblocking an already active account is a
// no-op that still counts as success.
func (s *AccountService) UnblockAccounts(ctx context.Context, ids []uuid.UUID, callerID uuid.UUID) (BatchResult, error) {
	result := BatchResult{Requested: len(ids)}

	if err := guardSelfAction(ids, callerID); err != nil {
		return result, err
	}

	for _, id := range ids {
		ok := true

		if _, err := s.profiles.UpdateStatus(ctx, id, ProfileStatusActive); err != nil {
			if IsNotFound(err) {
				s.logger.Warn("no profile for %s during unblock", id)
			} else {
				s.logger.Error("failed to unblock profile %s: %v", id, err)
				ok = false
			}
		}

		if err := s.credentials.SetLockout(ctx, id, false, nil); err != nil {
			if IsNotFound(err) {
				s.logger.Warn("no credential for %s during unblock", id)
				if ok {
					result.Succeeded++
				}
				continue
			}
			s.logger.Error("failed to clear lockout for %s: %v", id, err)
			ok = false
		} else if err := s.credentials.ResetFailedAttempts(ctx, id); err != nil && !IsNotFound(err) {
			s.logger.Error("failed to reset attempt counter for %s: %v", id, err)
			ok = false
		}

		if ok {
			result.Succeeded++
		}
	}

	return result, nil
}

// DeleteAccounts removes the profile first, then the credential. A missing
// credential is only a warning: profile-only remnants of earlier partial
// failures are tolerated.
func (s *AccountService) DeleteAccounts(ctx context.Context, ids []uuid.UUID, callerID uuid.UUID) (BatchResult, error) {
	result := BatchResult{Requested: len(ids)}

	if err := guardSelfAction(ids, callerID); err != nil {
		return result, err
	}

	for _, id := range ids {
		ok := true

		if err := s.profiles.DeleteByIDs(ctx, []uuid.UUID{id}); err != nil {
			s.logger.Error("failed to delete profile %s: %v", id, err)
			ok = false
		}

		if err := s.credentials.Delete(ctx, id); err != nil {
			if IsNotFound(err) {
				s.logger.Warn("no credential for %s during delete, profile removed without one", id)
			} else {
				s.logger.Error("failed to delete credential %s: %v", id, err)
				ok = false
			}
		}

		if ok {
			result.Succeeded++
		}
	}

	return result, nil
}

// Profile returns the account record by id
func (s *AccountService) Profile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// ProfileByEmail returns the account record by email
func (s *AccountService) ProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	return s.profiles.GetByEmail(ctx, email)
}

// ListProfiles returns every account record for administrative listings
func (s *AccountService) ListProfiles(ctx context.Context) ([]*Profile, error) {
	return s.profiles.List(ctx)
}

// guardSelfAction rejects the whole batch before any mutation when the
// caller targets itself, and demands a real authenticated caller id.
func guardSelfAction(ids []uuid.UUID, callerID uuid.UUID) error {
	if callerID == uuid.Nil {
		return ErrCallerRequired
	}

	for _, id := range ids {
		if id == callerID {
			return ErrSelfAction.WithMetadata(map[string]any{"caller_id": callerID.String()})
		}
	}

	return nil
}
