package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"kingspos/internal/logger"
	"kingspos/internal/service"
)

// CategoryHandler handles category endpoints.
type CategoryHandler struct {
	svc service.CategoryService
	log zerolog.Logger
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(svc service.CategoryService, log zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, log: logger.Component(log, "category_handler")}
}

// CreateCategoryRequest represents a category creation request.
type CreateCategoryRequest struct {
	Name     string             `json:"name" validate:"required"`
	ParentID service.OptionalID `json:"parentId" swaggertype:"string"`
	IsMain   bool               `json:"isMain"`
}

// UpdateCategoryRequest represents a partial category update. Sending
// "parentId": null turns the category into a main category.
type UpdateCategoryRequest struct {
	Name     *string            `json:"name"`
	ParentID service.OptionalID `json:"parentId" swaggertype:"string"`
	IsMain   *bool              `json:"isMain"`
}

// CreateCategory godoc
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "Category"
// @Success 201 {object} model.Category
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req CreateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	category, err := h.svc.Create(c.Request().Context(), service.CategoryInput{
		Name:     req.Name,
		ParentID: req.ParentID.Value,
		IsMain:   req.IsMain,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param request body UpdateCategoryRequest true "Fields to change"
// @Success 200 {object} model.Category
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	category, err := h.svc.Update(c.Request().Context(), id, service.CategoryUpdate{
		Name:     req.Name,
		ParentID: req.ParentID,
		IsMain:   req.IsMain,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary Delete category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "category removed"})
}

// GetCategory godoc
// @Summary Get category by id
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} model.Category
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	category, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, category)
}

// ListCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Category
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.svc.List(c.Request().Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, categories)
}

// CategoryTree godoc
// @Summary Category hierarchy
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.CategoryNode
// @Router /categories/tree [get]
func (h *CategoryHandler) CategoryTree(c echo.Context) error {
	tree, err := h.svc.Tree(c.Request().Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, tree)
}
