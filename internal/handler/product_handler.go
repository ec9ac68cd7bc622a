package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"kingspos/internal/logger"
	"kingspos/internal/service"
)

// ProductHandler handles product endpoints.
type ProductHandler struct {
	svc service.ProductService
	log zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(svc service.ProductService, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, log: logger.Component(log, "product_handler")}
}

// CreateProduct godoc
// @Summary Create product
// @Description name, code and price are required. categoryName links a main category when one matches.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ProductFields true "Product"
// @Success 201 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req service.ProductFields
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	product, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct godoc
// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body service.ProductFields true "Fields to change"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req service.ProductFields
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	product, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary Delete product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "product removed"})
}

// GetProduct godoc
// @Summary Get product by id
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} model.Product
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	product, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, product)
}

// ListProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Product
// @Router /products [get]
func (h *ProductHandler) ListProducts(c echo.Context) error {
	products, err := h.svc.List(c.Request().Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, products)
}

// ListVariants godoc
// @Summary List variants of a bulk parent
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent product ID"
// @Success 200 {array} model.Product
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/variants [get]
func (h *ProductHandler) ListVariants(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	variants, err := h.svc.ListVariants(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, variants)
}
