package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentType distinguishes quotes from invoices.
type DocumentType string

const (
	DocumentQuote   DocumentType = "quote"
	DocumentInvoice DocumentType = "invoice"
)

// Valid reports whether t is a known type.
func (t DocumentType) Valid() bool {
	return t == DocumentQuote || t == DocumentInvoice
}

// DocumentStatus is the lifecycle state of a document.
type DocumentStatus string

const (
	StatusDraft              DocumentStatus = "draft"
	StatusSent               DocumentStatus = "sent"
	StatusAccepted           DocumentStatus = "accepted"
	StatusDeclined           DocumentStatus = "declined"
	StatusInvoiced           DocumentStatus = "invoiced"
	StatusPaid               DocumentStatus = "paid"
	StatusPendingOnlineOrder DocumentStatus = "pending_online_order"
	StatusCancelled          DocumentStatus = "cancelled"
	StatusConvertedToSale    DocumentStatus = "converted_to_sale"
)

var documentStatuses = map[DocumentStatus]struct{}{
	StatusDraft: {}, StatusSent: {}, StatusAccepted: {}, StatusDeclined: {}, StatusInvoiced: {},
	StatusPaid: {}, StatusPendingOnlineOrder: {}, StatusCancelled: {}, StatusConvertedToSale: {},
}

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	_, ok := documentStatuses[s]
	return ok
}

// Decimal places stored for document amounts. Inputs with more places are
// rejected so that stored totals equal the computed ones: Total carries
// AmountScale+PercentScale+2 places.
const (
	AmountScale   = 4
	PercentScale  = 4
	QuantityScale = 3
)

// Document is a quote or invoice. SubTotal and Total are derived from Items.
type Document struct {
	ID                     uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Type                   DocumentType    `json:"type" gorm:"size:20;not null;index"`
	DocumentNumber         string          `json:"documentNumber" gorm:"uniqueIndex;size:50;not null"`
	CustomerName           string          `json:"customerName" gorm:"size:255"`
	CustomerID             *uuid.UUID      `json:"customerId" gorm:"type:char(36);index"`
	Notes                  string          `json:"notes" gorm:"type:text"`
	Items                  []DocumentItem  `json:"items" gorm:"foreignKey:DocumentID"`
	OverallDiscountPercent decimal.Decimal `json:"overallDiscountPercent" gorm:"type:decimal(7,4);not null;default:0"`
	SubTotal               decimal.Decimal `json:"subTotal" gorm:"type:decimal(24,4);not null;default:0"`
	Total                  decimal.Decimal `json:"total" gorm:"type:decimal(30,10);not null;default:0"`
	Status                 DocumentStatus  `json:"status" gorm:"size:30;not null;default:'draft';index"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DocumentItem is one line of a document.
type DocumentItem struct {
	ID           uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	DocumentID   uuid.UUID       `json:"-" gorm:"type:char(36);not null;index"`
	Position     int             `json:"-" gorm:"not null;default:0"`
	ProductID    *uuid.UUID      `json:"productId" gorm:"type:char(36);index"`
	Description  string          `json:"description" gorm:"size:500;not null"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(20,3);not null"`
	UnitPrice    decimal.Decimal `json:"unitPrice" gorm:"type:decimal(20,4);not null"`
	ItemDiscount decimal.Decimal `json:"itemSpecificDiscount" gorm:"type:decimal(20,4);not null;default:0"`
	LineTotal    decimal.Decimal `json:"totalPrice" gorm:"type:decimal(20,4);not null"`
}

// BeforeCreate sets UUID before creating the record.
func (i *DocumentItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
