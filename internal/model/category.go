package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products. A category without a parent is a main category.
type Category struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Name      string     `json:"name" gorm:"uniqueIndex;size:255;not null"`
	ParentID  *uuid.UUID `json:"parentId" gorm:"type:char(36);index"`
	IsMain    bool       `json:"isMain" gorm:"not null"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CategoryRef is the projection embedded in product reads.
type CategoryRef struct {
	ID     uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name   string    `json:"name"`
	IsMain bool      `json:"isMain"`
}

// TableName maps the projection onto the categories table.
func (CategoryRef) TableName() string {
	return "categories"
}

// CategoryNode is a category with its children, used by the tree view.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}
