package models

import "time"

// Stock holds the on-hand quantity for a single product.
type Stock struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID int       `json:"product_id" gorm:"uniqueIndex;not null"`
	Quantity  int       `json:"quantity" gorm:"not null;default:0;check:quantity >= 0"`
	UpdatedAt time.Time `json:"updated_at"`
	Product   *Product  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
