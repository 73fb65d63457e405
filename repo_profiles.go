package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles is the Bun-backed ProfileStore
type Profiles interface {
	ProfileStore

	CreateTx(ctx context.Context, tx bun.IDB, profile *Profile) (*Profile, error)
	DeleteByIDsTx(ctx context.Context, tx bun.IDB, ids []uuid.UUID) error
}

type profiles struct {
	repo   repository.Repository[*Profile]
	db     *bun.DB
	now    func() time.Time
	logger Logger
}

var _ Profiles = (*profiles)(nil)

// NewProfilesRepository will create a ProfileStore backed by Bun
func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &profiles{
		repo:   repo,
		db:     db,
		now:    time.Now,
		logger: defLogger{},
	}
}

func (r *profiles) Create(ctx context.Context, profile *Profile) (*Profile, error) {
	return r.CreateTx(ctx, r.db, profile)
}

func (r *profiles) CreateTx(ctx context.Context, tx bun.IDB, profile *Profile) (*Profile, error) {
	prepareProfileDefaults(profile, r.now)

	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	created, err := r.repo.CreateTx(ctx, tx, profile)
	if err != nil {
		// Leave uniqueness violations recognizable for the caller's
		// compensation path.
		return nil, err
	}

	return created, nil
}

func (r *profiles) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	record := &Profile{}
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

	record.EnsureStatus()
	return record, nil
}

func (r *profiles) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	record := &Profile{}
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

	record.EnsureStatus()
	return record, nil
}

func (r *profiles) Update(ctx context.Context, profile *Profile) (*Profile, error) {
	if profile == nil || profile.ID == uuid.Nil {
		return nil, goerrors.New("profile id is required for update", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	profile.EnsureStatus()
	return r.repo.UpdateTx(ctx, r.db, profile, repository.UpdateByID(profile.ID.String()))
}

func (r *profiles) UpdateStatus(ctx context.Context, id uuid.UUID, status ProfileStatus) (*Profile, error) {
	res, err := r.db.NewRaw(`
		UPDATE "profiles"
		SET "status" = ?, "updated_at" = ?
		WHERE "id" = ?;
	`, status, r.now(), id).Exec(ctx)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return &Profile{ID: id, Status: status}, nil
}

func (r *profiles) TrackLogin(ctx context.Context, id uuid.UUID) error {
	// NOTE: raw update so a nil last_login_at never round-trips through the ORM
	res, err := r.db.NewRaw(`
		UPDATE "profiles"
		SET "last_login_at" = ?, "updated_at" = ?
		WHERE "id" = ?;
	`, r.now(), r.now(), id).Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (r *profiles) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	return r.DeleteByIDsTx(ctx, r.db, ids)
}

func (r *profiles) DeleteByIDsTx(ctx context.Context, tx bun.IDB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := tx.NewDelete().
		Model((*Profile)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)

	return err
}

func (r *profiles) List(ctx context.Context) ([]*Profile, error) {
	records := []*Profile{}
	err := r.db.NewSelect().
		Model(&records).
		Order("last_login_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		record.EnsureStatus()
	}

	return records, nil
}

func prepareProfileDefaults(record *Profile, now func() time.Time) {
	if record == nil {
		return
	}

	record.EnsureStatus()
	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.RegisteredAt == nil {
		n := now()
		record.RegisteredAt = &n
	}
}

func validateProfile(record *Profile) error {
	err := validation.Errors{
		"name":  validation.Validate(record.Name, validation.Required, validation.Length(1, 100)),
		"email": validation.Validate(record.Email, validation.Required, is.Email),
	}.Filter()

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid profile").
			WithCode(goerrors.CodeBadRequest)
	}

	return nil
}
