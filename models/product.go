package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description"`
	Price       float64    `gorm:"not null" json:"price"`
	Image       string     `json:"image"`
	Categories  []Category `gorm:"many2many:product_categories;" json:"categories"`
	Stock       int        `json:"stock"`
	Available   bool       `gorm:"default:true" json:"available"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type Category struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	Image     string    `json:"image"`
	Products  []Product `gorm:"many2many:product_categories;" json:"products,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
