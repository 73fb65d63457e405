package accounts_test

import (
	"context"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCredentialStore implements accounts.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Create(ctx context.Context, loginName, email, password string) (*accounts.Credential, error) {
	args := m.Called(ctx, loginName, email, password)
	return credentialArg(args.Get(0)), args.Error(1)
}

func (m *MockCredentialStore) GetByEmail(ctx context.Context, email string) (*accounts.Credential, error) {
	args := m.Called(ctx, email)
	return credentialArg(args.Get(0)), args.Error(1)
}

func (m *MockCredentialStore) GetByID(ctx context.Context, id uuid.UUID) (*accounts.Credential, error) {
	args := m.Called(ctx, id)
	return credentialArg(args.Get(0)), args.Error(1)
}

func (m *MockCredentialStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCredentialStore) VerifyAndSignIn(ctx context.Context, email, password string, persistent bool) (accounts.LoginOutcome, error) {
	args := m.Called(ctx, email, password, persistent)
	return args.Get(0).(accounts.LoginOutcome), args.Error(1)
}

func (m *MockCredentialStore) SetLockout(ctx context.Context, id uuid.UUID, enabled bool, until *time.Time) error {
	args := m.Called(ctx, id, enabled, until)
	return args.Error(0)
}

func (m *MockCredentialStore) ResetFailedAttempts(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCredentialStore) IsLockedOut(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockProfileStore implements accounts.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) Create(ctx context.Context, profile *accounts.Profile) (*accounts.Profile, error) {
	args := m.Called(ctx, profile)
	return profileArg(args.Get(0)), args.Error(1)
}

func (m *MockProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*accounts.Profile, error) {
	args := m.Called(ctx, id)
	return profileArg(args.Get(0)), args.Error(1)
}

func (m *MockProfileStore) GetByEmail(ctx context.Context, email string) (*accounts.Profile, error) {
	args := m.Called(ctx, email)
	return profileArg(args.Get(0)), args.Error(1)
}

func (m *MockProfileStore) Update(ctx context.Context, profile *accounts.Profile) (*accounts.Profile, error) {
	args := m.Called(ctx, profile)
	return profileArg(args.Get(0)), args.Error(1)
}

func (m *MockProfileStore) UpdateStatus(ctx context.Context, id uuid.UUID, status accounts.ProfileStatus) (*accounts.Profile, error) {
	args := m.Called(ctx, id, status)
	return profileArg(args.Get(0)), args.Error(1)
}

func (m *MockProfileStore) TrackLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProfileStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockProfileStore) List(ctx context.Context) ([]*accounts.Profile, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*accounts.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func credentialArg(v any) *accounts.Credential {
	if v == nil {
		return nil
	}
	return v.(*accounts.Credential)
}

func profileArg(v any) *accounts.Profile {
	if v == nil {
		return nil
	}
	return v.(*accounts.Profile)
}

// fakeSession is an in-memory SessionState for gate tests
type fakeSession struct {
	cached     *uuid.UUID
	principal  *uuid.UUID
	cacheCalls int
	clearCalls int
}

func (s *fakeSession) CachedAccountID() (uuid.UUID, bool) {
	if s.cached == nil {
		return uuid.Nil, false
	}
	return *s.cached, true
}

func (s *fakeSession) CacheAccountID(id uuid.UUID) {
	s.cacheCalls++
	s.cached = &id
}

func (s *fakeSession) PrincipalAccountID() (uuid.UUID, bool) {
	if s.principal == nil {
		return uuid.Nil, false
	}
	return *s.principal, true
}

func (s *fakeSession) Clear() {
	s.clearCalls++
	s.cached = nil
	s.principal = nil
}

// fakeGateRequest pairs a path with its session bag
type fakeGateRequest struct {
	path    string
	session accounts.SessionState
}

func (r fakeGateRequest) Path() string { return r.path }
func (r fakeGateRequest) Session() accounts.SessionState { return r.session }

// recordingChecker counts IsBlocked calls and returns a fixed answer
type recordingChecker struct {
	blocked bool
	calls   int
	lastID  uuid.UUID
}

func (c *recordingChecker) IsBlocked(ctx context.Context, id uuid.UUID) bool {
	c.calls++
	c.lastID = id
	return c.blocked
}
