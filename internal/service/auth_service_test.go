package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/services-backend/internal/repository"
)

type mockAuthRepo struct {
	mock.Mock
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetByAccountID(ctx context.Context, accountID int64) (*models.User, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockAuthRepo) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockAuthRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockAuthRepo) TouchLastSeen(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func testTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	repo.On("GetByUsername", ctx, "ivan_petrov").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Register(ctx, RegisterInput{
		Username: "Ivan_Petrov",
		Password: "Sup3rSecret",
		Name:     "Иван Петров",
		Role:     models.RoleCustomer,
		CityID:   uuid.New(),
	}, nil)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Nil(t, result.User.AccountID)
	assert.Equal(t, "ivan_petrov", *result.User.Username)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	existing := &models.User{ID: uuid.New()}
	repo.On("GetByUsername", ctx, "ivan_petrov").Return(existing, nil)

	_, err := svc.Register(ctx, RegisterInput{
		Username: "ivan_petrov",
		Password: "Sup3rSecret",
		Name:     "Иван Петров",
		CityID:   uuid.New(),
	}, nil)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	svc := NewAuthService(new(mockAuthRepo), testTokenManager())

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "ivan_petrov",
		Password: "short",
		Name:     "Иван Петров",
		CityID:   uuid.New(),
	}, nil)

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("Sup3rSecret"), bcrypt.DefaultCost)
	hashStr := string(hash)
	user := &models.User{ID: uuid.New(), PasswordHash: &hashStr}

	repo.On("GetByUsername", ctx, "ivan_petrov").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Username: "ivan_petrov", Password: "wrong"}, nil)

	assert.Error(t, err)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
}

func TestAuthService_ExternalLogin_FirstContactCreatesUser(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	accountID := int64(987654321)

	repo.On("GetByAccountID", ctx, accountID).Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.ExternalLogin(ctx, ExternalLoginInput{
		AccountID: accountID,
		Name:      "Иван Петров",
		Role:      models.RoleExecutor,
		CityID:    uuid.New(),
	}, nil)

	assert.NoError(t, err)
	assert.NotNil(t, result.User.AccountID)
	assert.Equal(t, accountID, *result.User.AccountID)
	assert.Equal(t, models.RoleExecutor, result.User.Role)
	repo.AssertCalled(t, "Create", ctx, mock.AnythingOfType("*models.User"))
}

func TestAuthService_ExternalLogin_KnownAccountReused(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	accountID := int64(987654321)
	user := &models.User{ID: uuid.New(), AccountID: &accountID, Role: models.RoleCustomer}

	repo.On("GetByAccountID", ctx, accountID).Return(user, nil)
	repo.On("TouchLastSeen", ctx, user.ID).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.ExternalLogin(ctx, ExternalLoginInput{
		AccountID: accountID,
		Name:      "Иван Петров",
		CityID:    uuid.New(),
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_ExternalLogin_DuplicateRaceFallsBackToFetch(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	accountID := int64(987654321)
	winner := &models.User{ID: uuid.New(), AccountID: &accountID, Role: models.RoleCustomer}

	// Первый поиск пуст, вставка проигрывает гонку, повторный поиск
	// возвращает пользователя, созданного конкурентом.
	repo.On("GetByAccountID", ctx, accountID).Return(nil, repository.ErrUserNotFound).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repository.ErrDuplicateUser)
	repo.On("GetByAccountID", ctx, accountID).Return(winner, nil).Once()
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.ExternalLogin(ctx, ExternalLoginInput{
		AccountID: accountID,
		Name:      "Иван Петров",
		CityID:    uuid.New(),
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, winner.ID, result.User.ID)
}

func TestAuthService_Refresh_UnknownSession(t *testing.T) {
	repo := new(mockAuthRepo)
	manager := testTokenManager()
	svc := NewAuthService(repo, manager)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}
	pair, _, _, err := manager.GeneratePair(user)
	assert.NoError(t, err)

	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(nil, repository.ErrSessionNotFound)

	_, err = svc.Refresh(ctx, pair.RefreshToken, nil)

	assert.Error(t, err)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
}
