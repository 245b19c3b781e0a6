package user

import (
	"context"
	"errors"
	"testing"

	"cvcraft/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type MockTrialGranter struct {
	mock.Mock
}

func (m *MockTrialGranter) GiveTrialCredits(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func TestService_Register(t *testing.T) {
	req := RegisterRequest{Name: "Test User", Email: "test@example.com", Password: "password123"}

	tests := []struct {
		name          string
		setup         func(*MockRepository, *MockTrialGranter)
		expectedError error
		wantBonus     int
	}{
		{
			name: "grants trial credits",
			setup: func(r *MockRepository, g *MockTrialGranter) {
				r.On("EmailExists", mock.Anything, "test@example.com").Return(false, nil)
				r.On("Create", mock.Anything, "Test User", "test@example.com", mock.Anything, auth.RoleMember).
					Return(&User{ID: 1, Name: "Test User", Email: "test@example.com", Role: auth.RoleMember}, nil)
				g.On("GiveTrialCredits", mock.Anything, 1).Return(10, nil)
			},
			wantBonus: 10,
		},
		{
			name: "trial failure does not block registration",
			setup: func(r *MockRepository, g *MockTrialGranter) {
				r.On("EmailExists", mock.Anything, "test@example.com").Return(false, nil)
				r.On("Create", mock.Anything, "Test User", "test@example.com", mock.Anything, auth.RoleMember).
					Return(&User{ID: 2, Email: "test@example.com", Role: auth.RoleMember}, nil)
				g.On("GiveTrialCredits", mock.Anything, 2).Return(0, errors.New("db down"))
			},
			wantBonus: 0,
		},
		{
			name: "email already exists",
			setup: func(r *MockRepository, g *MockTrialGranter) {
				r.On("EmailExists", mock.Anything, "test@example.com").Return(true, nil)
			},
			expectedError: ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			granter := new(MockTrialGranter)
			tt.setup(repo, granter)

			resp, err := NewService(repo, granter, "test-secret").Register(context.Background(), req)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, resp.AccessToken)
				assert.NotEmpty(t, resp.RefreshToken)
				assert.Equal(t, tt.wantBonus, resp.User.BonusCredits)
			}

			repo.AssertExpectations(t)
			granter.AssertExpectations(t)
		})
	}
}

type recordingWelcomer struct {
	users []int
	err   error
}

func (w *recordingWelcomer) Welcome(ctx context.Context, u *User, trialCredits int) error {
	w.users = append(w.users, u.ID)
	return w.err
}

func TestService_Register_Welcome(t *testing.T) {
	repo := new(MockRepository)
	repo.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)
	repo.On("Create", mock.Anything, "New", "new@example.com", mock.Anything, auth.RoleMember).
		Return(&User{ID: 3, Name: "New", Email: "new@example.com", Role: auth.RoleMember}, nil)
	granter := new(MockTrialGranter)
	granter.On("GiveTrialCredits", mock.Anything, 3).Return(10, nil)
	welcomer := &recordingWelcomer{err: errors.New("redis down")}

	svc := NewService(repo, granter, "test-secret", WithWelcomer(welcomer))
	_, err := svc.Register(context.Background(), RegisterRequest{Name: "New", Email: "new@example.com", Password: "password123"})

	require.NoError(t, err, "a failed welcome email never blocks registration")
	assert.Equal(t, []int{3}, welcomer.users)
}

func TestService_Login(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	tests := []struct {
		name          string
		req           LoginRequest
		setup         func(*MockRepository)
		expectedError error
	}{
		{
			name: "successful login",
			req:  LoginRequest{Email: "test@example.com", Password: "password123"},
			setup: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").
					Return(&User{ID: 1, Email: "test@example.com", PasswordHash: hash, Role: auth.RoleMember}, nil)
			},
		},
		{
			name: "wrong password",
			req:  LoginRequest{Email: "test@example.com", Password: "nope"},
			setup: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").
					Return(&User{ID: 1, Email: "test@example.com", PasswordHash: hash}, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name: "user not found",
			req:  LoginRequest{Email: "notfound@example.com", Password: "password123"},
			setup: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, ErrUserNotFound)
			},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setup(repo)

			resp, err := NewService(repo, nil, "test-secret").Login(context.Background(), tt.req)
			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, resp.AccessToken)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Refresh(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, 5).Return(&User{ID: 5, Email: "r@example.com", Role: auth.RoleMember}, nil)

	refresh, err := auth.GenerateRefreshToken(5, "r@example.com", auth.RoleMember, "test-secret")
	require.NoError(t, err)

	svc := NewService(repo, nil, "test-secret")
	resp, err := svc.Refresh(context.Background(), refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.RefreshToken)
	assert.Equal(t, 5, resp.User.ID)

	access, _ := auth.GenerateAccessToken(5, "r@example.com", auth.RoleMember, "test-secret")
	_, err = svc.Refresh(context.Background(), access)
	assert.ErrorIs(t, err, auth.ErrInvalidTokenType)
}
