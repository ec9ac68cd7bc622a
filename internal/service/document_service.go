package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "kingspos/internal/errors"
	"kingspos/internal/events"
	"kingspos/internal/logger"
	"kingspos/internal/model"
	"kingspos/internal/repository"
)

// DocumentItemInput is one requested line. LineTotal is stored as given; it
// is not recomputed from quantity and unit price.
type DocumentItemInput struct {
	ProductID    *uuid.UUID       `json:"productId"`
	Description  string           `json:"description"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unitPrice"`
	ItemDiscount decimal.Decimal  `json:"itemSpecificDiscount"`
	LineTotal    *decimal.Decimal `json:"totalPrice"`
}

// DocumentInput holds the fields for a new document. Totals are not
// accepted from callers.
type DocumentInput struct {
	Type                   model.DocumentType
	DocumentNumber         string
	CustomerName           string
	CustomerID             *uuid.UUID
	Notes                  string
	Items                  []DocumentItemInput
	OverallDiscountPercent decimal.Decimal
	Status                 model.DocumentStatus
}

// DocumentUpdate is a partial update. A non-nil Items replaces every line.
type DocumentUpdate struct {
	DocumentNumber         *string
	CustomerName           *string
	CustomerID             OptionalID
	Notes                  *string
	Items                  *[]DocumentItemInput
	OverallDiscountPercent *decimal.Decimal
	Status                 *model.DocumentStatus
}

// maxNumberAttempts bounds how many generated numbers Create tries.
const maxNumberAttempts = 20

// DocumentService manages quotes and invoices.
type DocumentService interface {
	Create(ctx context.Context, in DocumentInput) (*model.Document, error)
	Update(ctx context.Context, id uuid.UUID, in DocumentUpdate) (*model.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
	List(ctx context.Context, filter repository.DocumentFilter) ([]model.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	repo     repository.DocumentRepository
	seq      NumberSequence
	notifier events.Notifier
	log      zerolog.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(repo repository.DocumentRepository, seq NumberSequence, notifier events.Notifier, log zerolog.Logger) DocumentService {
	return &documentService{repo: repo, seq: seq, notifier: notifier, log: logger.Component(log, "documents")}
}

func (s *documentService) Create(ctx context.Context, in DocumentInput) (*model.Document, error) {
	if !in.Type.Valid() {
		return nil, apperrors.Validation("INVALID_DOCUMENT_TYPE", "type must be quote or invoice")
	}
	status := in.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !status.Valid() {
		return nil, apperrors.Validation("INVALID_STATUS", "unknown document status")
	}

	items, err := buildItems(in.Items)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		Type:                   in.Type,
		DocumentNumber:         strings.TrimSpace(in.DocumentNumber),
		CustomerName:           strings.TrimSpace(in.CustomerName),
		CustomerID:             in.CustomerID,
		Notes:                  in.Notes,
		Items:                  items,
		OverallDiscountPercent: in.OverallDiscountPercent,
		Status:                 status,
	}
	if err := applyTotals(doc); err != nil {
		return nil, err
	}

	if doc.DocumentNumber != "" {
		if err := s.repo.Create(ctx, doc); err != nil {
			return nil, storeError("create document", err)
		}
	} else if err := s.createNumbered(ctx, doc); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.notifier, s.log, events.DocumentCreated, doc)
	return doc, nil
}

// createNumbered draws numbers from the sequence until one is free. The
// counter does not see numbers that callers chose themselves, and it restarts
// if Redis loses its data.
func (s *documentService) createNumbered(ctx context.Context, doc *model.Document) error {
	for attempt := 1; ; attempt++ {
		number, err := s.seq.Next(ctx, doc.Type)
		if err != nil {
			return apperrors.Internal("generate document number", err)
		}
		doc.DocumentNumber = number

		err = s.repo.Create(ctx, doc)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrDuplicateDocumentNumber) || attempt == maxNumberAttempts {
			return storeError("create document", err)
		}
		s.log.Warn().Str("document_number", number).Int("attempt", attempt).Msg("generated document number taken, retrying")
	}
}

func (s *documentService) Update(ctx context.Context, id uuid.UUID, in DocumentUpdate) (*model.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.DocumentNumber != nil {
		number := strings.TrimSpace(*in.DocumentNumber)
		if number == "" {
			return nil, apperrors.Validation("DOCUMENT_NUMBER_REQUIRED", "document number cannot be empty")
		}
		doc.DocumentNumber = number
	}
	if in.CustomerName != nil {
		doc.CustomerName = strings.TrimSpace(*in.CustomerName)
	}
	if in.CustomerID.Set {
		doc.CustomerID = in.CustomerID.Value
	}
	if in.Notes != nil {
		doc.Notes = *in.Notes
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperrors.Validation("INVALID_STATUS", "unknown document status")
		}
		doc.Status = *in.Status
	}
	if in.OverallDiscountPercent != nil {
		doc.OverallDiscountPercent = *in.OverallDiscountPercent
	}
	if in.Items != nil {
		items, err := buildItems(*in.Items)
		if err != nil {
			return nil, err
		}
		doc.Items = items
	}
	if err := applyTotals(doc); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, storeError("update document", err)
	}

	events.Emit(ctx, s.notifier, s.log, events.DocumentUpdated, doc)
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrDocumentNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("find document", err)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, filter repository.DocumentFilter) ([]model.Document, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperrors.Validation("INVALID_DOCUMENT_TYPE", "type must be quote or invoice")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Validation("INVALID_STATUS", "unknown document status")
	}
	docs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("list documents", err)
	}
	return docs, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrDocumentNotFound
		}
		return apperrors.Internal("delete document", err)
	}

	events.Emit(ctx, s.notifier, s.log, events.DocumentDeleted, doc)
	return nil
}

func buildItems(in []DocumentItemInput) ([]model.DocumentItem, error) {
	items := make([]model.DocumentItem, 0, len(in))
	one := decimal.NewFromInt(1)
	for i, it := range in {
		desc := strings.TrimSpace(it.Description)
		switch {
		case desc == "":
			return nil, apperrors.Validationf("INVALID_ITEM", "item %d: description is required", i+1)
		case it.Quantity.LessThan(one):
			return nil, apperrors.Validationf("INVALID_ITEM", "item %d: quantity must be at least 1", i+1)
		case it.UnitPrice.IsNegative():
			return nil, apperrors.Validationf("INVALID_ITEM", "item %d: unit price cannot be negative", i+1)
		case it.ItemDiscount.IsNegative():
			return nil, apperrors.Validationf("INVALID_ITEM", "item %d: discount cannot be negative", i+1)
		case it.LineTotal == nil:
			return nil, apperrors.Validationf("INVALID_ITEM", "item %d: totalPrice is required", i+1)
		case it.LineTotal.IsNegative():
			return nil, apperrors.Validationf("INVALID_ITEM", "item %d: totalPrice cannot be negative", i+1)
		case !fitsScale(it.Quantity, model.QuantityScale):
			return nil, apperrors.Validationf("INVALID_ITEM", "item %d: quantity allows at most %d decimal places", i+1, model.QuantityScale)
		case !fitsScale(it.UnitPrice, model.AmountScale), !fitsScale(it.ItemDiscount, model.AmountScale), !fitsScale(*it.LineTotal, model.AmountScale):
			return nil, apperrors.Validationf("INVALID_ITEM", "item %d: amounts allow at most %d decimal places", i+1, model.AmountScale)
		}
		items = append(items, model.DocumentItem{
			ProductID:    it.ProductID,
			Description:  desc,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			ItemDiscount: it.ItemDiscount,
			LineTotal:    *it.LineTotal,
		})
	}
	return items, nil
}

func applyTotals(doc *model.Document) error {
	pct := doc.OverallDiscountPercent
	if pct.IsNegative() || pct.GreaterThan(hundred) || !fitsScale(pct, model.PercentScale) {
		return apperrors.ErrInvalidDiscount
	}
	totals := ComputeTotals(doc.Items, pct)
	doc.SubTotal = totals.SubTotal
	doc.Total = totals.Total
	return nil
}

func fitsScale(v decimal.Decimal, places int32) bool {
	return v.Equal(v.Truncate(places))
}
