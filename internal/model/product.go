package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Consumption describes how much of the bulk parent one unit of a variant uses.
type Consumption struct {
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

// Product is a sellable catalog item. A product may be a bulk parent that
// variants draw stock from.
type Product struct {
	ID                 uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Name               string          `json:"name" gorm:"size:255;not null;index"`
	Code               string          `json:"code" gorm:"uniqueIndex;size:100;not null"`
	CategoryID         *uuid.UUID      `json:"categoryId" gorm:"type:char(36);index"`
	Category           *CategoryRef    `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Barcode            string          `json:"barcode" gorm:"size:100;index"`
	BarcodeType        string          `json:"barcodeType" gorm:"size:30"`
	Price              decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Cost               decimal.Decimal `json:"cost" gorm:"type:decimal(20,2);not null;default:0"`
	PriceBeforeTax     decimal.Decimal `json:"priceBeforeTax" gorm:"type:decimal(20,2);not null;default:0"`
	TaxPercent         decimal.Decimal `json:"tax" gorm:"type:decimal(6,2);not null;default:0"`
	Markup             decimal.Decimal `json:"markup" gorm:"type:decimal(10,2);not null;default:0"`
	IncludesTax        bool            `json:"includesTax" gorm:"not null"`
	Stock              decimal.Decimal `json:"stock" gorm:"type:decimal(20,3);not null;default:0"`
	Measurement        string          `json:"measurement" gorm:"size:30"`
	LowStockThreshold  decimal.Decimal `json:"lowStockThreshold" gorm:"type:decimal(20,3);not null;default:0"`
	Active             bool            `json:"active" gorm:"not null"`
	Online             bool            `json:"online" gorm:"not null"`
	Image              string          `json:"image" gorm:"size:500"`
	BatchNumber        string          `json:"batchNumber" gorm:"size:100"`
	ExpiryDate         *time.Time      `json:"expiryDate"`
	ParentProductID    *uuid.UUID      `json:"parentProductId" gorm:"type:char(36);index"`
	IsBulkParent       bool            `json:"isBulkParent" gorm:"not null"`
	ConsumesFromParent *Consumption    `json:"consumesFromParent" gorm:"serializer:json;type:text"`
	BaseUnit           string          `json:"baseUnit" gorm:"size:30"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
