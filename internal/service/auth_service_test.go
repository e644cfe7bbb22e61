package service

import (
	"context"
	"testing"

	"khatapos/internal/config"
	"khatapos/internal/dto"
	"khatapos/internal/model"
	"khatapos/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(_ context.Context, includeInactive bool) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Active || includeInactive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = false
	return nil
}

func newAuthTestService() (AuthService, *stubUserRepo) {
	repo := newStubUserRepo()
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
	return NewAuthService(repo, cfg), repo
}

func TestAuth_CreateUserAndLogin(t *testing.T) {
	svc, _ := newAuthTestService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "cashier1",
		Name:     "Cashier One",
		Password: "secret123",
		Role:     "cashier",
	})
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, "cashier", created.Role)

	resp, err := svc.Login(ctx, dto.LoginRequest{Username: "cashier1", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "cashier1", resp.User.Username)
}

func TestAuth_LoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newAuthTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "owner1", Name: "Owner", Password: "secret123", Role: "owner",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "owner1", Password: "wrong"})
	assert.EqualError(t, err, "invalid credentials")

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "secret123"})
	assert.EqualError(t, err, "invalid credentials")
}

func TestAuth_DeactivatedUserCannotLogin(t *testing.T) {
	svc, repo := newAuthTestService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "cashier2", Name: "C2", Password: "secret123", Role: "cashier",
	})
	require.NoError(t, err)

	id, err := uuid.Parse(created.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateUser(ctx, id))
	assert.False(t, repo.users[id].Active)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "cashier2", Password: "secret123"})
	assert.Error(t, err)
}

func TestAuth_RefreshRoundTrip(t *testing.T) {
	svc, _ := newAuthTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "owner2", Name: "Owner Two", Password: "secret123", Role: "owner",
	})
	require.NoError(t, err)

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "owner2", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "owner2", refreshed.User.Username)

	_, err = svc.Refresh(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestAuth_UpdateUserChangesPassword(t *testing.T) {
	svc, _ := newAuthTestService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "cashier3", Name: "C3", Password: "oldpass99", Role: "cashier",
	})
	require.NoError(t, err)
	id, _ := uuid.Parse(created.ID)

	_, err = svc.UpdateUser(ctx, id, dto.UpdateUserRequest{Password: "newpass99"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "cashier3", Password: "oldpass99"})
	assert.Error(t, err)
	_, err = svc.Login(ctx, dto.LoginRequest{Username: "cashier3", Password: "newpass99"})
	assert.NoError(t, err)
}
