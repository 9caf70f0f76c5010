package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/services-backend/internal/authz"
	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/services-backend/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) SetRole(ctx context.Context, userID uuid.UUID, role string) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *mockUserRepo) SetAdmin(ctx context.Context, userID uuid.UUID, isAdmin bool) error {
	args := m.Called(ctx, userID, isAdmin)
	return args.Error(0)
}

func (m *mockUserRepo) SetAdminByAccountID(ctx context.Context, accountID int64) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) SetCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) error {
	args := m.Called(ctx, userID, categoryIDs)
	return args.Error(0)
}

func (m *mockUserRepo) ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *mockUserRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockUserRepo) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockOrderRepoForUsers struct {
	mock.Mock
}

func (m *mockOrderRepoForUsers) CountNonTerminalByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockCatalogRepoForUsers struct {
	mock.Mock
}

func (m *mockCatalogRepoForUsers) GetCityByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.City), args.Error(1)
}

func (m *mockCatalogRepoForUsers) GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func TestUserService_SwitchRole(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewUserService(repo, new(mockOrderRepoForUsers), new(mockCatalogRepoForUsers))
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}

	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	repo.On("SetRole", ctx, user.ID, models.RoleExecutor).Return(nil)

	updated, err := svc.SwitchRole(ctx, user.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.RoleExecutor, updated.Role)
}

func TestUserService_UpdateProfile_DuplicateUsername(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewUserService(repo, new(mockOrderRepoForUsers), new(mockCatalogRepoForUsers))
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer, Name: "Иван"}

	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	repo.On("UpdateProfile", ctx, mock.AnythingOfType("*models.User")).
		Return(repository.ErrDuplicateUsername)

	username := "taken_name"
	_, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Username: &username})

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestUserService_SetCategories_UnknownCategory(t *testing.T) {
	repo := new(mockUserRepo)
	catalog := new(mockCatalogRepoForUsers)
	svc := NewUserService(repo, new(mockOrderRepoForUsers), catalog)
	ctx := context.Background()

	userID := uuid.New()
	categoryID := uuid.New()

	catalog.On("GetCategoryByID", ctx, categoryID).Return(nil, repository.ErrCategoryNotFound)

	err := svc.SetCategories(ctx, userID, []uuid.UUID{categoryID})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "SetCategories", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_DeleteUser_WithActiveOrders(t *testing.T) {
	repo := new(mockUserRepo)
	orders := new(mockOrderRepoForUsers)
	svc := NewUserService(repo, orders, new(mockCatalogRepoForUsers))
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}

	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	orders.On("CountNonTerminalByUser", ctx, user.ID).Return(2, nil)

	actor := authz.Actor{ID: user.ID, Role: models.RoleCustomer}
	err := svc.DeleteUser(ctx, actor, user.ID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUserService_DeleteUser_StrangerForbidden(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewUserService(repo, new(mockOrderRepoForUsers), new(mockCatalogRepoForUsers))
	ctx := context.Background()

	targetID := uuid.New()

	actor := authz.Actor{ID: uuid.New(), Role: models.RoleCustomer}
	err := svc.DeleteUser(ctx, actor, targetID)

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
}

func TestUserService_DeleteUser_AdminRemovesSessionsToo(t *testing.T) {
	repo := new(mockUserRepo)
	orders := new(mockOrderRepoForUsers)
	svc := NewUserService(repo, orders, new(mockCatalogRepoForUsers))
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}

	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	orders.On("CountNonTerminalByUser", ctx, user.ID).Return(0, nil)
	repo.On("DeleteUserSessions", ctx, user.ID).Return(nil)
	repo.On("Delete", ctx, user.ID).Return(nil)

	admin := authz.Actor{ID: uuid.New(), Role: models.RoleCustomer, IsAdmin: true}
	err := svc.DeleteUser(ctx, admin, user.ID)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUserService_AdminSetRole_RequiresAdmin(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewUserService(repo, new(mockOrderRepoForUsers), new(mockCatalogRepoForUsers))
	ctx := context.Background()

	actor := authz.Actor{ID: uuid.New(), Role: models.RoleCustomer}
	err := svc.AdminSetRole(ctx, actor, uuid.New(), models.RoleExecutor)

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
	repo.AssertNotCalled(t, "SetRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_BootstrapAdmin(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewUserService(repo, new(mockOrderRepoForUsers), new(mockCatalogRepoForUsers))
	ctx := context.Background()

	// Нулевой аккаунт означает выключенный bootstrap.
	assert.NoError(t, svc.BootstrapAdmin(ctx, 0))
	repo.AssertNotCalled(t, "SetAdminByAccountID", mock.Anything, mock.Anything)

	repo.On("SetAdminByAccountID", ctx, int64(123)).Return(true, nil)
	assert.NoError(t, svc.BootstrapAdmin(ctx, 123))

	// Незарегистрированный аккаунт не считается ошибкой.
	repo.On("SetAdminByAccountID", ctx, int64(456)).Return(false, nil)
	assert.NoError(t, svc.BootstrapAdmin(ctx, 456))
}
