package accounts

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MaxFailedAttempts is the number of consecutive failed password checks
// before the credential is locked out
var MaxFailedAttempts = 5

// LockoutWindow is how long a failure-triggered lockout lasts. Block
// operations set an unbounded lockout instead.
var LockoutWindow = 15 * time.Minute

// Credentials is the Bun-backed CredentialStore
type Credentials interface {
	CredentialStore

	CreateTx(ctx context.Context, tx bun.IDB, loginName, email, password string) (*Credential, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type credentials struct {
	repo   repository.Repository[*Credential]
	db     *bun.DB
	logger Logger
	now    func() time.Time
}

var _ Credentials = (*credentials)(nil)

// NewCredentialsRepository will create a CredentialStore backed by Bun
func NewCredentialsRepository(db *bun.DB) Credentials {
	repo := repository.NewRepository[*Credential](db, repository.ModelHandlers[*Credential]{
		NewRecord: func() *Credential { return &Credential{} },
		GetID: func(c *Credential) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Credential, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &credentials{
		repo:   repo,
		db:     db,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (r *credentials) Create(ctx context.Context, loginName, email, password string) (*Credential, error) {
	return r.CreateTx(ctx, r.db, loginName, email, password)
}

func (r *credentials) CreateTx(ctx context.Context, tx bun.IDB, loginName, email, password string) (*Credential, error) {
	email = NormalizeEmail(email)

	if err := validateNewCredential(loginName, email, password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	record := &Credential{
		ID:           credentialID(email),
		LoginName:    loginName,
		Email:        email,
		PasswordHash: hash,
	}

	created, err := r.repo.CreateTx(ctx, tx, record)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrEmailExists.WithMetadata(map[string]any{"email": email})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create credential")
	}

	return created, nil
}

func (r *credentials) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	record := &Credential{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (r *credentials) GetByID(ctx context.Context, id uuid.UUID) (*Credential, error) {
	record := &Credential{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (r *credentials) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DeleteTx(ctx, r.db, id)
}

func (r *credentials) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*Credential)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

// VerifyAndSignIn checks the password and tracks failures. Crossing
// MaxFailedAttempts stamps a lockout end LockoutWindow in the future. The
// persistent flag only affects the session the caller issues afterwards.
func (r *credentials) VerifyAndSignIn(ctx context.Context, email, password string, persistent bool) (LoginOutcome, error) {
	record, err := r.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return OutcomeFailed, nil
		}
		return OutcomeFailed, err
	}

	if record.LockedOutNow(r.now()) {
		return OutcomeLockedOut, nil
	}

	if err := ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		attempts := record.FailedAttempts + 1
		if attempts >= MaxFailedAttempts {
			end := r.now().Add(LockoutWindow)
			if err := r.lockAfterFailures(ctx, record.ID, &end); err != nil {
				return OutcomeFailed, err
			}
			return OutcomeLockedOut, nil
		}

		if err := r.trackFailedAttempt(ctx, record.ID, attempts); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeFailed, nil
	}

	if err := r.ResetFailedAttempts(ctx, record.ID); err != nil {
		r.logger.Error("failed to reset attempt counter for %s: %v", record.ID, err)
	}

	return OutcomeSucceeded, nil
}

func (r *credentials) trackFailedAttempt(ctx context.Context, id uuid.UUID, attempts int) error {
	// NOTE: raw update, the ORM treats a zero counter as an unset field
	_, err := r.db.NewRaw(`
		UPDATE "credentials"
		SET "failed_attempts" = ?, "updated_at" = ?
		WHERE "id" = ?;
	`, attempts, r.now(), id).Exec(ctx)

	return err
}

// lockAfterFailures stamps the lockout and zeroes the counter, so an
// expired lockout starts a fresh window instead of re-locking on the next
// single failure.
func (r *credentials) lockAfterFailures(ctx context.Context, id uuid.UUID, end *time.Time) error {
	_, err := r.db.NewRaw(`
		UPDATE "credentials"
		SET "failed_attempts" = 0, "lockout_enabled" = TRUE, "lockout_end" = ?, "updated_at" = ?
		WHERE "id" = ?;
	`, end, r.now(), id).Exec(ctx)

	return err
}

func (r *credentials) SetLockout(ctx context.Context, id uuid.UUID, enabled bool, until *time.Time) error {
	res, err := r.db.NewRaw(`
		UPDATE "credentials"
		SET "lockout_enabled" = ?, "lockout_end" = ?, "updated_at" = ?
		WHERE "id" = ?;
	`, enabled, until, r.now(), id).Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (r *credentials) ResetFailedAttempts(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewRaw(`
		UPDATE "credentials"
		SET "failed_attempts" = 0, "updated_at" = ?
		WHERE "id" = ?;
	`, r.now(), id).Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (r *credentials) IsLockedOut(ctx context.Context, id uuid.UUID) (bool, error) {
	record, err := r.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return record.LockedOutNow(r.now()), nil
}

// NormalizeEmail lowercases and trims an email identifier
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// credentialID derives the id deterministically from the normalized email,
// so re-registering a deleted account yields the same id
func credentialID(email string) uuid.UUID {
	if id, err := hashid.NewUUID(email); err == nil {
		return id
	}
	return uuid.New()
}

func validateNewCredential(loginName, email, password string) error {
	err := validation.Errors{
		"login_name": validation.Validate(loginName, validation.Required, validation.Length(1, 100)),
		"email":      validation.Validate(email, validation.Required, validation.Length(6, 100), is.Email),
		"password":   validation.Validate(password, validation.Required, validation.Length(8, 72)),
	}.Filter()

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "credential policy rejected the input").
			WithCode(goerrors.CodeBadRequest)
	}

	return nil
}
