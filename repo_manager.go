package accounts

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Credentials() Credentials
	Profiles() Profiles
}

type mngr struct {
	db          *bun.DB
	credentials Credentials
	profiles    Profiles
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:          db,
		credentials: NewCredentialsRepository(db),
		profiles:    NewProfilesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.credentials == nil {
		return errors.New("repository credentials should be initialized")
	}

	if m.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Credentials() Credentials {
	return m.credentials
}

func (m mngr) Profiles() Profiles {
	return m.profiles
}
