package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/ignatzorin/services-backend/internal/logger"
	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/services-backend/internal/repository"
	"github.com/ignatzorin/services-backend/internal/validation"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByAccountID(ctx context.Context, accountID int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
	TouchLastSeen(ctx context.Context, userID uuid.UUID) error
}

// AuthService инкапсулирует бизнес-логику регистрации и аутентификации.
type AuthService struct {
	repo         AuthRepository
	tokenManager *TokenManager
}

// RegisterInput содержит данные пользователя при веб-регистрации.
type RegisterInput struct {
	Username string
	Password string
	Name     string
	Role     string
	CityID   uuid.UUID
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Username string
	Password string
}

// ExternalLoginInput содержит данные внешнего шлюза (бот, интеграции).
// Пользователь создаётся при первом контакте.
type ExternalLoginInput struct {
	AccountID int64
	Name      string
	Username  *string
	Role      string
	CityID    uuid.UUID
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
	}
}

// Register создаёт нового пользователя по логину и паролю.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta map[string]string) (*AuthResult, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateDisplayName(in.Name); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, apperror.Conflict("имя пользователя уже занято")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Persistence(err)
	}

	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}

	user, err := models.NewUser(nil, strings.TrimSpace(in.Name), &username, role, in.CityID)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}
	hashStr := string(passHash)
	user.PasswordHash = &hashStr

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperror.Conflict("имя пользователя уже занято")
		}
		return nil, apperror.Persistence(err)
	}

	return s.issueTokens(ctx, user, meta)
}

// Login проверяет учётные данные и возвращает токены.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta map[string]string) (*AuthResult, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.New(apperror.KindUnauthorized, "неверный логин или пароль")
	}

	if user.PasswordHash == nil {
		return nil, apperror.New(apperror.KindUnauthorized, "для аккаунта не задан пароль")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.New(apperror.KindUnauthorized, "неверный логин или пароль")
	}

	s.touchLastSeen(ctx, user.ID)

	return s.issueTokens(ctx, user, meta)
}

// ExternalLogin находит пользователя по внешнему аккаунту или создаёт его
// при первом контакте. Проверка секрета шлюза выполняется на транспорте.
func (s *AuthService) ExternalLogin(ctx context.Context, in ExternalLoginInput, meta map[string]string) (*AuthResult, error) {
	user, err := s.repo.GetByAccountID(ctx, in.AccountID)
	switch {
	case err == nil:
		s.touchLastSeen(ctx, user.ID)
		return s.issueTokens(ctx, user, meta)
	case errors.Is(err, repository.ErrUserNotFound):
		// Первый контакт: заводим пользователя.
	default:
		return nil, apperror.Persistence(err)
	}

	if err := validation.ValidateDisplayName(in.Name); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}

	accountID := in.AccountID
	user, err = models.NewUser(&accountID, strings.TrimSpace(in.Name), in.Username, role, in.CityID)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			// Гонка двух первых контактов: второй запрос читает созданного.
			user, err = s.repo.GetByAccountID(ctx, in.AccountID)
			if err != nil {
				return nil, apperror.Persistence(err)
			}
			return s.issueTokens(ctx, user, meta)
		}
		return nil, apperror.Persistence(err)
	}

	return s.issueTokens(ctx, user, meta)
}

// Refresh выпускает новую пару токенов.
func (s *AuthService) Refresh(ctx context.Context, oldToken string, meta map[string]string) (*TokenPair, error) {
	claims, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindUnauthorized, "refresh токен невалиден")
	}

	if _, err := s.repo.GetSessionByToken(ctx, oldToken); err != nil {
		return nil, apperror.New(apperror.KindUnauthorized, "сессия не найдена или истекла")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindUnauthorized, "некорректный subject")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("пользователь не найден")
		}
		return nil, apperror.Persistence(err)
	}

	if err := s.repo.DeleteSession(ctx, oldToken); err != nil {
		return nil, apperror.Persistence(err)
	}

	result, err := s.issueTokens(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	return result.TokenPair, nil
}

// Logout удаляет сессию по refresh токену.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repo.DeleteSession(ctx, refreshToken); err != nil {
		return apperror.Persistence(err)
	}
	return nil
}

// issueTokens выпускает пару токенов и сохраняет сессию.
func (s *AuthService) issueTokens(ctx context.Context, user *models.User, meta map[string]string) (*AuthResult, error) {
	tokenPair, _, refreshExp, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токены: %w", err)
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    refreshExp,
	}

	if meta != nil {
		if ua, ok := meta["user_agent"]; ok {
			session.UserAgent = &ua
		}
		if ip, ok := meta["ip"]; ok {
			session.IPAddress = &ip
		}
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, apperror.Persistence(err)
	}

	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}

// touchLastSeen отмечает активность, не прерывая основной сценарий.
func (s *AuthService) touchLastSeen(ctx context.Context, userID uuid.UUID) {
	if err := s.repo.TouchLastSeen(ctx, userID); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("auth service: не удалось обновить last_seen_at")
		}
	}
}
