package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"kingspos/internal/logger"
	"kingspos/internal/model"
	"kingspos/internal/repository"
	"kingspos/internal/service"
)

// DocumentHandler handles quote and invoice endpoints.
type DocumentHandler struct {
	svc service.DocumentService
	log zerolog.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(svc service.DocumentService, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{svc: svc, log: logger.Component(log, "document_handler")}
}

// CreateDocumentRequest represents a new quote or invoice. Totals are always
// computed server-side; documentNumber is generated when omitted.
type CreateDocumentRequest struct {
	Type                   model.DocumentType          `json:"type" validate:"required,oneof=quote invoice"`
	DocumentNumber         string                      `json:"documentNumber"`
	CustomerName           string                      `json:"customerName"`
	CustomerID             *uuid.UUID                  `json:"customerId" swaggertype:"string"`
	Notes                  string                      `json:"notes"`
	Items                  []service.DocumentItemInput `json:"items"`
	OverallDiscountPercent decimal.Decimal             `json:"overallDiscountPercent" swaggertype:"number"`
	Status                 model.DocumentStatus        `json:"status"`
}

// UpdateDocumentRequest represents a partial document update. items, when
// present, replaces every line.
type UpdateDocumentRequest struct {
	DocumentNumber         *string                      `json:"documentNumber"`
	CustomerName           *string                      `json:"customerName"`
	CustomerID             service.OptionalID           `json:"customerId" swaggertype:"string"`
	Notes                  *string                      `json:"notes"`
	Items                  *[]service.DocumentItemInput `json:"items"`
	OverallDiscountPercent *decimal.Decimal             `json:"overallDiscountPercent" swaggertype:"number"`
	Status                 *model.DocumentStatus        `json:"status"`
}

// CreateDocument godoc
// @Summary Create quote or invoice
// @Tags documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateDocumentRequest true "Document"
// @Success 201 {object} model.Document
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /documents [post]
func (h *DocumentHandler) CreateDocument(c echo.Context) error {
	var req CreateDocumentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	doc, err := h.svc.Create(c.Request().Context(), service.DocumentInput{
		Type:                   req.Type,
		DocumentNumber:         req.DocumentNumber,
		CustomerName:           req.CustomerName,
		CustomerID:             req.CustomerID,
		Notes:                  req.Notes,
		Items:                  req.Items,
		OverallDiscountPercent: req.OverallDiscountPercent,
		Status:                 req.Status,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

// UpdateDocument godoc
// @Summary Update quote or invoice
// @Tags documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param request body UpdateDocumentRequest true "Fields to change"
// @Success 200 {object} model.Document
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /documents/{id} [put]
func (h *DocumentHandler) UpdateDocument(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateDocumentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	doc, err := h.svc.Update(c.Request().Context(), id, service.DocumentUpdate{
		DocumentNumber:         req.DocumentNumber,
		CustomerName:           req.CustomerName,
		CustomerID:             req.CustomerID,
		Notes:                  req.Notes,
		Items:                  req.Items,
		OverallDiscountPercent: req.OverallDiscountPercent,
		Status:                 req.Status,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// GetDocument godoc
// @Summary Get document by id
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} model.Document
// @Failure 404 {object} errors.ErrorResponse
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetDocument(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	doc, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// ListDocuments godoc
// @Summary List documents
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param type query string false "quote or invoice"
// @Param status query string false "Document status"
// @Success 200 {array} model.Document
// @Failure 400 {object} errors.ErrorResponse
// @Router /documents [get]
func (h *DocumentHandler) ListDocuments(c echo.Context) error {
	docs, err := h.svc.List(c.Request().Context(), repository.DocumentFilter{
		Type:   model.DocumentType(c.QueryParam("type")),
		Status: model.DocumentStatus(c.QueryParam("status")),
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, docs)
}

// DeleteDocument godoc
// @Summary Delete document
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "document removed"})
}
