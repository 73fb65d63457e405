package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	TextCodeAccountExists     = "ACCOUNT_EXISTS"
	TextCodeEmailExists       = "EMAIL_EXISTS"
	TextCodeProfileSaveFailed = "PROFILE_SAVE_FAILED"
	TextCodeSelfAction        = "SELF_ACTION"
	TextCodeCallerRequired    = "CALLER_REQUIRED"
	TextCodeInvalidCreds      = "CREDENTIALS_INVALID"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
)

// ErrAccountExists is returned when registration finds an existing profile for the email
var ErrAccountExists = goerrors.New("an account with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(goerrors.CodeConflict)

// ErrEmailExists is the registration failure when the profile store rejects a duplicate email
var ErrEmailExists = goerrors.New("email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(goerrors.CodeConflict)

// ErrProfileSave is the generic registration failure after the profile write failed
var ErrProfileSave = goerrors.New("could not save account profile", goerrors.CategoryInternal).
	WithTextCode(TextCodeProfileSaveFailed)

// ErrSelfAction rejects batches that target the calling account
var ErrSelfAction = goerrors.New("operation may not target your own account", goerrors.CategoryValidation).
	WithTextCode(TextCodeSelfAction).
	WithCode(goerrors.CodeBadRequest)

// ErrCallerRequired rejects batches without an authenticated caller id
var ErrCallerRequired = goerrors.New("caller identity is required", goerrors.CategoryValidation).
	WithTextCode(TextCodeCallerRequired).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the opaque bad-credentials error
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmptyPassword rejects empty cleartext passwords before hashing
var ErrEmptyPassword = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// IsNotFound matches missing records from either store
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return repository.IsRecordNotFound(err) || goerrors.IsNotFound(err)
}

// IsUniqueViolation matches a uniqueness constraint error. The repository
// layer classifies duplicates structurally; the driver-message check only
// covers raw errors that never passed through it. Both SQLite and Postgres
// spellings are covered.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Category == repository.CategoryDatabaseDuplicate {
			return true
		}
		if richErr.Code == goerrors.CodeConflict {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
