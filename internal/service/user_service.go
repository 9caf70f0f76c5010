package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/services-backend/internal/authz"
	"github.com/ignatzorin/services-backend/internal/logger"
	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/services-backend/internal/repository"
	"github.com/ignatzorin/services-backend/internal/validation"
)

// UserRepository описывает взаимодействие сервиса с хранилищем пользователей.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, userID uuid.UUID, role string) error
	SetAdmin(ctx context.Context, userID uuid.UUID, isAdmin bool) error
	SetAdminByAccountID(ctx context.Context, accountID int64) (bool, error)
	SetCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) error
	ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
}

// OrderRepoForUsers отвечает на вопрос об активных заказах пользователя.
type OrderRepoForUsers interface {
	CountNonTerminalByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// CatalogRepoForUsers проверяет существование справочных записей.
type CatalogRepoForUsers interface {
	GetCityByID(ctx context.Context, id uuid.UUID) (*models.City, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// UserService содержит бизнес-логику профилей и ролей.
type UserService struct {
	repo    UserRepository
	orders  OrderRepoForUsers
	catalog CatalogRepoForUsers
}

// NewUserService создаёт новый сервис пользователей.
func NewUserService(repo UserRepository, orders OrderRepoForUsers, catalog CatalogRepoForUsers) *UserService {
	return &UserService{repo: repo, orders: orders, catalog: catalog}
}

// Profile объединяет пользователя с его категориями.
type Profile struct {
	User       *models.User      `json:"user"`
	Categories []models.Category `json:"categories"`
}

// UpdateProfileInput описывает редактируемые поля профиля.
type UpdateProfileInput struct {
	Name     *string
	Username *string
	CityID   *uuid.UUID
}

// GetProfile возвращает профиль пользователя с категориями.
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	categories, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	return &Profile{User: user, Categories: categories}, nil
}

// UpdateProfile меняет имя, логин и город пользователя.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*models.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateDisplayName(name); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		user.Name = name
	}
	if in.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*in.Username))
		if err := validation.ValidateUsername(username); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		user.Username = &username
	}
	if in.CityID != nil {
		if _, err := s.catalog.GetCityByID(ctx, *in.CityID); err != nil {
			if errors.Is(err, repository.ErrCityNotFound) {
				return nil, apperror.Validation("город не найден")
			}
			return nil, apperror.Persistence(err)
		}
		user.CityID = *in.CityID
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, apperror.Conflict("имя пользователя уже занято")
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("пользователь не найден")
		}
		return nil, apperror.Persistence(err)
	}
	return user, nil
}

// SwitchRole переключает пользователя на противоположную роль.
func (s *UserService) SwitchRole(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	newRole := user.OppositeRole()
	if err := s.repo.SetRole(ctx, userID, newRole); err != nil {
		return nil, apperror.Persistence(err)
	}
	user.Role = newRole
	return user, nil
}

// SetCategories заменяет набор категорий исполнителя.
func (s *UserService) SetCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) error {
	for _, id := range categoryIDs {
		if _, err := s.catalog.GetCategoryByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return apperror.Validation("категория не найдена: " + id.String())
			}
			return apperror.Persistence(err)
		}
	}

	if err := s.repo.SetCategories(ctx, userID, categoryIDs); err != nil {
		return apperror.Persistence(err)
	}
	return nil
}

// AdminSetRole назначает роль пользователю от имени администратора.
func (s *UserService) AdminSetRole(ctx context.Context, actor authz.Actor, userID uuid.UUID, role string) error {
	if err := authz.Allow(actor, authz.ActionUserManage, authz.Resource{}); err != nil {
		return err
	}
	if role != models.RoleCustomer && role != models.RoleExecutor {
		return apperror.Validation("недопустимая роль: " + role)
	}
	if _, err := s.loadUser(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		return apperror.Persistence(err)
	}
	return nil
}

// AdminSetAdmin выдаёт или снимает признак администратора.
func (s *UserService) AdminSetAdmin(ctx context.Context, actor authz.Actor, userID uuid.UUID, isAdmin bool) error {
	if err := authz.Allow(actor, authz.ActionUserManage, authz.Resource{}); err != nil {
		return err
	}
	if _, err := s.loadUser(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.SetAdmin(ctx, userID, isAdmin); err != nil {
		return apperror.Persistence(err)
	}
	return nil
}

// DeleteUser удаляет аккаунт. Пользователь может удалить только себя,
// администратор — любого. Аккаунт с активными заказами не удаляется.
func (s *UserService) DeleteUser(ctx context.Context, actor authz.Actor, userID uuid.UUID) error {
	if actor.ID != userID {
		if err := authz.Allow(actor, authz.ActionUserManage, authz.Resource{}); err != nil {
			return err
		}
	}

	if _, err := s.loadUser(ctx, userID); err != nil {
		return err
	}

	active, err := s.orders.CountNonTerminalByUser(ctx, userID)
	if err != nil {
		return apperror.Persistence(err)
	}
	if active > 0 {
		return apperror.Conflict("нельзя удалить аккаунт с активными заказами")
	}

	if err := s.repo.DeleteUserSessions(ctx, userID); err != nil {
		return apperror.Persistence(err)
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return apperror.Persistence(err)
	}
	return nil
}

// BootstrapAdmin выдаёт права администратора владельцу указанного внешнего
// аккаунта при старте приложения. Отсутствие пользователя не считается
// ошибкой: он получит права при следующем запуске после первого контакта.
func (s *UserService) BootstrapAdmin(ctx context.Context, accountID int64) error {
	if accountID == 0 {
		return nil
	}

	found, err := s.repo.SetAdminByAccountID(ctx, accountID)
	if err != nil {
		return apperror.Persistence(err)
	}
	if !found && logger.Log != nil {
		logger.Log.WithField("account_id", accountID).
			Warn("user service: пользователь для bootstrap-админа ещё не зарегистрирован")
	}
	return nil
}

// GetByUsername возвращает публичный профиль по логину.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("пользователь не найден")
		}
		return nil, apperror.Persistence(err)
	}
	return user, nil
}

// loadUser загружает пользователя, переводя ошибку отсутствия в таксономию.
func (s *UserService) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("пользователь не найден")
		}
		return nil, apperror.Persistence(err)
	}
	return user, nil
}
