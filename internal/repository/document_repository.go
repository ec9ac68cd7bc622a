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

// DocumentFilter narrows List. Zero values match everything.
type DocumentFilter struct {
	Type   model.DocumentType
	Status model.DocumentStatus
}

// DocumentRepository defines quote/invoice persistence operations. Items are
// always read and written together with their document.
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	Update(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]model.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo DocumentRepository) error) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func itemsInOrder(tx *gorm.DB) *gorm.DB {
	return tx.Order("position")
}

// Create inserts the document and its items atomically.
func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return r.WithTransaction(ctx, func(ctx context.Context, repo DocumentRepository) error {
		tx := repo.(*documentRepository).db.WithContext(ctx)
		if err := tx.Omit(clause.Associations).Create(doc).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperrors.ErrDuplicateDocumentNumber
			}
			return err
		}
		return insertItems(tx, doc)
	})
}

// Update rewrites the document row and replaces its items.
func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	return r.WithTransaction(ctx, func(ctx context.Context, repo DocumentRepository) error {
		tx := repo.(*documentRepository).db.WithContext(ctx)
		if err := tx.Omit(clause.Associations).Save(doc).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperrors.ErrDuplicateDocumentNumber
			}
			return err
		}
		if err := tx.Where("document_id = ?", doc.ID).Delete(&model.DocumentItem{}).Error; err != nil {
			return err
		}
		return insertItems(tx, doc)
	})
}

func insertItems(tx *gorm.DB, doc *model.Document) error {
	if len(doc.Items) == 0 {
		return nil
	}
	for i := range doc.Items {
		doc.Items[i].ID = uuid.Nil
		doc.Items[i].DocumentID = doc.ID
		doc.Items[i].Position = i
	}
	return tx.Create(&doc.Items).Error
}

// FindByID finds a document with its items.
func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns documents newest first.
func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	q := r.db.WithContext(ctx).Preload("Items", itemsInOrder)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var docs []model.Document
	if err := q.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// Delete removes a document and its items.
func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTransaction(ctx, func(ctx context.Context, repo DocumentRepository) error {
		tx := repo.(*documentRepository).db.WithContext(ctx)
		if err := tx.Where("document_id = ?", id).Delete(&model.DocumentItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// WithTransaction executes a function within a database transaction.
func (r *documentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo DocumentRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &documentRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
