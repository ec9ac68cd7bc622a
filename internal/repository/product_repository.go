package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kingspos/internal/db"
	apperrors "kingspos/internal/errors"
	"kingspos/internal/model"
)

// ProductRepository defines product persistence operations. Reads carry the
// category projection.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	ListVariants(ctx context.Context, parentID uuid.UUID) ([]model.Product, error)
	CountVariants(ctx context.Context, parentID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a product. A taken code surfaces as a conflict.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
	if db.IsUniqueViolation(err) {
		return apperrors.DuplicateCode(product.Code)
	}
	return err
}

// Update writes every column of an existing product.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error
	if db.IsUniqueViolation(err) {
		return apperrors.DuplicateCode(product.Code)
	}
	return err
}

// FindByID finds a product by ID.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns all products ordered by name.
func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.WithContext(ctx).Preload("Category").Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListVariants returns the products that draw from parentID.
func (r *productRepository) ListVariants(ctx context.Context, parentID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Preload("Category").
		Where("parent_product_id = ?", parentID).
		Order("name").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) CountVariants(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("parent_product_id = ?", parentID).Count(&n).Error
	return n, err
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, err
}

// Delete removes a product.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
