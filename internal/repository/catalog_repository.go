package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/services-backend/internal/models"
)

// CatalogRepository отвечает за справочники городов и категорий.
type CatalogRepository struct {
	db *sqlx.DB
}

// Ошибки уровня репозитория.
var (
	ErrCityNotFound     = errors.New("city not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrDuplicateCatalog = errors.New("catalog entry already exists")
)

// NewCatalogRepository создаёт новый экземпляр.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCities возвращает все города по алфавиту.
func (r *CatalogRepository) ListCities(ctx context.Context) ([]models.City, error) {
	var cities []models.City
	if err := r.db.SelectContext(ctx, &cities, `SELECT * FROM cities ORDER BY name`); err != nil {
		return nil, fmt.Errorf("catalog repository: list cities %w", err)
	}
	return cities, nil
}

// GetCityByID возвращает город по идентификатору.
func (r *CatalogRepository) GetCityByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	var city models.City
	if err := r.db.GetContext(ctx, &city, `SELECT * FROM cities WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("catalog repository: get city %w", err)
	}
	return &city, nil
}

// CreateCity добавляет город.
func (r *CatalogRepository) CreateCity(ctx context.Context, city *models.City) error {
	query := `INSERT INTO cities (name) VALUES ($1) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, city.Name).Scan(&city.ID, &city.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCatalog
		}
		return fmt.Errorf("catalog repository: insert city %w", err)
	}
	return nil
}

// ListCategories возвращает все категории по алфавиту.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, `SELECT * FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("catalog repository: list categories %w", err)
	}
	return categories, nil
}

// GetCategoryByID возвращает категорию по идентификатору.
func (r *CatalogRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.GetContext(ctx, &category, `SELECT * FROM categories WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("catalog repository: get category %w", err)
	}
	return &category, nil
}

// CreateCategory добавляет категорию.
func (r *CatalogRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	query := `INSERT INTO categories (name) VALUES ($1) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, category.Name).Scan(&category.ID, &category.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCatalog
		}
		return fmt.Errorf("catalog repository: insert category %w", err)
	}
	return nil
}
