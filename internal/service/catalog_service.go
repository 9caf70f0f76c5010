package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/services-backend/internal/authz"
	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/services-backend/internal/repository"
	"github.com/ignatzorin/services-backend/internal/validation"
)

// CatalogRepository описывает взаимодействие сервиса со справочниками.
type CatalogRepository interface {
	ListCities(ctx context.Context) ([]models.City, error)
	GetCityByID(ctx context.Context, id uuid.UUID) (*models.City, error)
	CreateCity(ctx context.Context, city *models.City) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
}

// CatalogService отдаёт справочники городов и категорий.
type CatalogService struct {
	repo CatalogRepository
}

// NewCatalogService создаёт новый сервис справочников.
func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListCities возвращает все города.
func (s *CatalogService) ListCities(ctx context.Context) ([]models.City, error) {
	cities, err := s.repo.ListCities(ctx)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return cities, nil
}

// ListCategories возвращает все категории услуг.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return categories, nil
}

// CreateCity добавляет город. Доступно только администратору.
func (s *CatalogService) CreateCity(ctx context.Context, actor authz.Actor, name string) (*models.City, error) {
	if err := authz.Allow(actor, authz.ActionCatalogManage, authz.Resource{}); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if err := validation.ValidateCatalogName("название города", name); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	city := &models.City{Name: name}
	if err := s.repo.CreateCity(ctx, city); err != nil {
		if errors.Is(err, repository.ErrDuplicateCatalog) {
			return nil, apperror.Conflict("такой город уже есть")
		}
		return nil, apperror.Persistence(err)
	}
	return city, nil
}

// CreateCategory добавляет категорию услуг. Доступно только администратору.
func (s *CatalogService) CreateCategory(ctx context.Context, actor authz.Actor, name string) (*models.Category, error) {
	if err := authz.Allow(actor, authz.ActionCatalogManage, authz.Resource{}); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if err := validation.ValidateCatalogName("название категории", name); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	category := &models.Category{Name: name}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateCatalog) {
			return nil, apperror.Conflict("такая категория уже есть")
		}
		return nil, apperror.Persistence(err)
	}
	return category, nil
}

// SeedDefaults заполняет пустые справочники стартовым набором. Повторный
// запуск ничего не меняет.
func (s *CatalogService) SeedDefaults(ctx context.Context) error {
	cities, err := s.repo.ListCities(ctx)
	if err != nil {
		return apperror.Persistence(err)
	}
	if len(cities) == 0 {
		for _, name := range defaultCities {
			if err := s.repo.CreateCity(ctx, &models.City{Name: name}); err != nil {
				if errors.Is(err, repository.ErrDuplicateCatalog) {
					continue
				}
				return apperror.Persistence(err)
			}
		}
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return apperror.Persistence(err)
	}
	if len(categories) == 0 {
		for _, name := range defaultCategories {
			if err := s.repo.CreateCategory(ctx, &models.Category{Name: name}); err != nil {
				if errors.Is(err, repository.ErrDuplicateCatalog) {
					continue
				}
				return apperror.Persistence(err)
			}
		}
	}
	return nil
}

var defaultCities = []string{
	"Москва", "Санкт-Петербург", "Новосибирск", "Екатеринбург", "Казань",
	"Нижний Новгород", "Челябинск", "Самара", "Омск", "Ростов-на-Дону",
}

var defaultCategories = []string{
	"Ремонт и строительство", "Уборка", "Курьерские услуги", "Репетиторство",
	"Красота и здоровье", "Компьютерная помощь", "Перевозки", "Фото и видео",
	"Юридические услуги", "Мероприятия",
}
