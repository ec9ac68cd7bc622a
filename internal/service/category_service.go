package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	apperrors "kingspos/internal/errors"
	"kingspos/internal/events"
	"kingspos/internal/logger"
	"kingspos/internal/model"
	"kingspos/internal/repository"
)

// CategoryInput holds the fields for a new category.
type CategoryInput struct {
	Name     string
	ParentID *uuid.UUID
	// IsMain forces a child category to be listed as main.
	IsMain bool
}

// CategoryUpdate is a partial update. A present ParentID of null makes the
// category main again.
type CategoryUpdate struct {
	Name     *string
	ParentID OptionalID
	IsMain   *bool
}

// CategoryService manages the category hierarchy.
type CategoryService interface {
	Create(ctx context.Context, in CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id uuid.UUID, in CategoryUpdate) (*model.Category, error)
	// Delete refuses categories that still have subcategories or products.
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Tree(ctx context.Context) ([]*model.CategoryNode, error)
}

type categoryService struct {
	repo     repository.CategoryRepository
	notifier events.Notifier
	log      zerolog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo repository.CategoryRepository, notifier events.Notifier, log zerolog.Logger) CategoryService {
	return &categoryService{repo: repo, notifier: notifier, log: logger.Component(log, "categories")}
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("NAME_REQUIRED", "category name is required")
	}
	if in.ParentID != nil {
		if _, err := s.findParent(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}

	category := &model.Category{
		Name:     name,
		ParentID: in.ParentID,
		IsMain:   in.ParentID == nil || in.IsMain,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, storeError("create category", err)
	}

	events.Emit(ctx, s.notifier, s.log, events.CategoryCreated, category)
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, in CategoryUpdate) (*model.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("NAME_REQUIRED", "category name is required")
		}
		category.Name = name
	}

	if in.ParentID.Set {
		if in.ParentID.Value == nil {
			category.ParentID = nil
		} else {
			if err := s.checkParent(ctx, id, *in.ParentID.Value); err != nil {
				return nil, err
			}
			parent := *in.ParentID.Value
			category.ParentID = &parent
			category.IsMain = false
		}
	}
	if in.IsMain != nil {
		category.IsMain = *in.IsMain
	}
	if category.ParentID == nil {
		category.IsMain = true
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, storeError("update category", err)
	}

	events.Emit(ctx, s.notifier, s.log, events.CategoryUpdated, category)
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return apperrors.Internal("count subcategories", err)
	}
	products, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return apperrors.Internal("count products", err)
	}
	if children > 0 || products > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Internal("delete category", err)
	}

	events.Emit(ctx, s.notifier, s.log, events.CategoryDeleted, category)
	return nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrCategoryNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("find category", err)
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("list categories", err)
	}
	return categories, nil
}

func (s *categoryService) Tree(ctx context.Context) ([]*model.CategoryNode, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(categories), nil
}

func (s *categoryService) findParent(ctx context.Context, parentID uuid.UUID) (*model.Category, error) {
	parent, err := s.repo.FindByID(ctx, parentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrParentCategoryNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("find parent category", err)
	}
	return parent, nil
}

// checkParent rejects a parent that does not exist or that has id among its
// ancestors.
func (s *categoryService) checkParent(ctx context.Context, id, parentID uuid.UUID) error {
	if parentID == id {
		return apperrors.ErrCategoryCycle
	}
	seen := map[uuid.UUID]struct{}{}
	current, err := s.findParent(ctx, parentID)
	if err != nil {
		return err
	}
	for current.ParentID != nil {
		if *current.ParentID == id {
			return apperrors.ErrCategoryCycle
		}
		if _, ok := seen[current.ID]; ok {
			// Pre-existing loop that does not involve id.
			return nil
		}
		seen[current.ID] = struct{}{}

		next, err := s.repo.FindByID(ctx, *current.ParentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return apperrors.Internal("walk category ancestors", err)
		}
		current = next
	}
	return nil
}

// BuildCategoryTree nests categories under their parents. Categories whose
// parent is missing, or that sit on a loop, are returned as roots so that
// every category appears exactly once.
func BuildCategoryTree(categories []model.Category) []*model.CategoryNode {
	nodes := make(map[uuid.UUID]*model.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &model.CategoryNode{Category: c, Children: []*model.CategoryNode{}}
	}

	children := make(map[uuid.UUID][]*model.CategoryNode)
	var roots []*model.CategoryNode
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if _, ok := nodes[*c.ParentID]; ok {
				children[*c.ParentID] = append(children[*c.ParentID], node)
				continue
			}
		}
		roots = append(roots, node)
	}

	visited := make(map[uuid.UUID]struct{}, len(categories))
	var attach func(n *model.CategoryNode)
	attach = func(n *model.CategoryNode) {
		visited[n.ID] = struct{}{}
		for _, child := range children[n.ID] {
			if _, ok := visited[child.ID]; ok {
				continue
			}
			n.Children = append(n.Children, child)
			attach(child)
		}
	}
	for _, r := range roots {
		attach(r)
	}
	for _, c := range categories {
		if _, ok := visited[c.ID]; !ok {
			node := nodes[c.ID]
			roots = append(roots, node)
			attach(node)
		}
	}
	return roots
}

// storeError passes domain errors through and hides everything else.
func storeError(op string, err error) error {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	return apperrors.Internal(op, err)
}
