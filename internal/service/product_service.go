package service

import (
	"context"
	"errors"
	"strings"
	"time"

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

// ProductFields is used for both create and partial update; nil pointers and
// unset optionals leave the stored value alone.
type ProductFields struct {
	Name               *string            `json:"name"`
	Code               *string            `json:"code"`
	Price              *decimal.Decimal   `json:"price"`
	Cost               *decimal.Decimal   `json:"cost"`
	PriceBeforeTax     *decimal.Decimal   `json:"priceBeforeTax"`
	TaxPercent         *decimal.Decimal   `json:"tax"`
	Markup             *decimal.Decimal   `json:"markup"`
	IncludesTax        *bool              `json:"includesTax"`
	Stock              *decimal.Decimal   `json:"stock"`
	Measurement        *string            `json:"measurement"`
	LowStockThreshold  *decimal.Decimal   `json:"lowStockThreshold"`
	Active             *bool              `json:"active"`
	Online             *bool              `json:"online"`
	Image              *string            `json:"image"`
	BatchNumber        *string            `json:"batchNumber"`
	ExpiryDate         *time.Time         `json:"expiryDate"`
	Barcode            *string            `json:"barcode"`
	BarcodeType        *string            `json:"barcodeType"`
	CategoryID         OptionalID         `json:"categoryId"`
	CategoryName       OptionalString     `json:"categoryName"`
	ParentProductID    OptionalID         `json:"parentProductId"`
	IsBulkParent       *bool              `json:"isBulkParent"`
	ConsumesFromParent *model.Consumption `json:"consumesFromParent"`
	BaseUnit           *string            `json:"baseUnit"`
}

// ProductService manages the catalog.
type ProductService interface {
	Create(ctx context.Context, in ProductFields) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductFields) (*model.Product, error)
	// Delete refuses bulk parents that still have variants.
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	ListVariants(ctx context.Context, parentID uuid.UUID) ([]model.Product, error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	notifier   events.Notifier
	log        zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository, notifier events.Notifier, log zerolog.Logger) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		notifier:   notifier,
		log:        logger.Component(log, "products"),
	}
}

func (s *productService) Create(ctx context.Context, in ProductFields) (*model.Product, error) {
	var missing []string
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		missing = append(missing, "name")
	}
	if in.Code == nil || strings.TrimSpace(*in.Code) == "" {
		missing = append(missing, "code")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return nil, apperrors.Validationf("MISSING_REQUIRED_FIELDS", "missing required fields: %s", strings.Join(missing, ", "))
	}

	product := &model.Product{Active: true}
	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, storeError("create product", err)
	}

	created, err := s.Get(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.notifier, s.log, events.ProductCreated, created)
	return created, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, in ProductFields) (*model.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.Validation("NAME_REQUIRED", "product name cannot be empty")
	}
	if in.Code != nil && strings.TrimSpace(*in.Code) == "" {
		return nil, apperrors.Validation("CODE_REQUIRED", "product code cannot be empty")
	}

	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}
	product.Category = nil

	if err := s.products.Update(ctx, product); err != nil {
		return nil, storeError("update product", err)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.notifier, s.log, events.ProductUpdated, updated)
	return updated, nil
}

func (s *productService) apply(ctx context.Context, p *model.Product, in ProductFields) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Code != nil {
		p.Code = strings.TrimSpace(*in.Code)
	}
	for _, f := range []struct {
		src  *decimal.Decimal
		dst  *decimal.Decimal
		name string
	}{
		{in.Price, &p.Price, "price"},
		{in.Cost, &p.Cost, "cost"},
		{in.PriceBeforeTax, &p.PriceBeforeTax, "priceBeforeTax"},
		{in.TaxPercent, &p.TaxPercent, "tax"},
		{in.Markup, &p.Markup, "markup"},
		{in.Stock, &p.Stock, "stock"},
		{in.LowStockThreshold, &p.LowStockThreshold, "lowStockThreshold"},
	} {
		if f.src == nil {
			continue
		}
		if f.src.IsNegative() && f.name != "stock" {
			return apperrors.Validationf("INVALID_AMOUNT", "%s cannot be negative", f.name)
		}
		*f.dst = *f.src
	}
	setString(&p.Measurement, in.Measurement)
	setString(&p.Image, in.Image)
	setString(&p.BatchNumber, in.BatchNumber)
	setString(&p.Barcode, in.Barcode)
	setString(&p.BarcodeType, in.BarcodeType)
	setString(&p.BaseUnit, in.BaseUnit)
	setBool(&p.IncludesTax, in.IncludesTax)
	setBool(&p.Active, in.Active)
	setBool(&p.Online, in.Online)
	setBool(&p.IsBulkParent, in.IsBulkParent)
	if in.ExpiryDate != nil {
		p.ExpiryDate = in.ExpiryDate
	}

	if err := s.applyCategory(ctx, p, in); err != nil {
		return err
	}
	return s.applyParent(ctx, p, in)
}

// applyCategory resolves an explicit id strictly and a category name
// leniently: an unknown name leaves the product uncategorized.
func (s *productService) applyCategory(ctx context.Context, p *model.Product, in ProductFields) error {
	switch {
	case in.CategoryID.Set:
		if in.CategoryID.Value == nil {
			p.CategoryID = nil
			return nil
		}
		if _, err := s.categories.FindByID(ctx, *in.CategoryID.Value); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCategoryNotFound
			}
			return apperrors.Internal("find category", err)
		}
		id := *in.CategoryID.Value
		p.CategoryID = &id
	case in.CategoryName.Set:
		name := strings.TrimSpace(in.CategoryName.Value)
		if name == "" {
			p.CategoryID = nil
			return nil
		}
		category, err := s.categories.FindMainByName(ctx, name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn().Str("category_name", name).Str("code", p.Code).Msg("main category not found, product left uncategorized")
			p.CategoryID = nil
			return nil
		}
		if err != nil {
			return apperrors.Internal("find category by name", err)
		}
		p.CategoryID = &category.ID
	}
	return nil
}

func (s *productService) applyParent(ctx context.Context, p *model.Product, in ProductFields) error {
	if in.ParentProductID.Set {
		if in.ParentProductID.Value == nil {
			p.ParentProductID = nil
			p.ConsumesFromParent = nil
		} else {
			if err := s.checkParent(ctx, p.ID, *in.ParentProductID.Value); err != nil {
				return err
			}
			parent := *in.ParentProductID.Value
			p.ParentProductID = &parent
		}
	}
	if in.ConsumesFromParent != nil {
		c := *in.ConsumesFromParent
		p.ConsumesFromParent = &c
	}

	if p.ConsumesFromParent != nil {
		if p.ParentProductID == nil {
			return apperrors.Validation("PARENT_REQUIRED", "consumesFromParent requires a parent product")
		}
		if !p.ConsumesFromParent.Quantity.IsPositive() {
			return apperrors.Validation("INVALID_QUANTITY", "consumesFromParent quantity must be positive")
		}
	}
	return nil
}

// checkParent rejects a missing parent and any parent chain that leads back
// to id. id is uuid.Nil for products not yet stored.
func (s *productService) checkParent(ctx context.Context, id, parentID uuid.UUID) error {
	if id != uuid.Nil && parentID == id {
		return apperrors.ErrProductCycle
	}
	seen := map[uuid.UUID]struct{}{}
	next := &parentID
	first := true
	for next != nil {
		if _, ok := seen[*next]; ok {
			return nil
		}
		seen[*next] = struct{}{}

		current, err := s.products.FindByID(ctx, *next)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if first {
				return apperrors.ErrParentProductNotFound
			}
			return nil
		}
		if err != nil {
			return apperrors.Internal("find parent product", err)
		}
		first = false
		if id != uuid.Nil && current.ParentProductID != nil && *current.ParentProductID == id {
			return apperrors.ErrProductCycle
		}
		next = current.ParentProductID
	}
	return nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	variants, err := s.products.CountVariants(ctx, id)
	if err != nil {
		return apperrors.Internal("count variants", err)
	}
	if variants > 0 {
		return apperrors.ErrProductInUse
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrProductNotFound
		}
		return apperrors.Internal("delete product", err)
	}

	events.Emit(ctx, s.notifier, s.log, events.ProductDeleted, product)
	return nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrProductNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("find product", err)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("list products", err)
	}
	return products, nil
}

func (s *productService) ListVariants(ctx context.Context, parentID uuid.UUID) ([]model.Product, error) {
	if _, err := s.Get(ctx, parentID); err != nil {
		return nil, err
	}
	variants, err := s.products.ListVariants(ctx, parentID)
	if err != nil {
		return nil, apperrors.Internal("list variants", err)
	}
	return variants, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
