package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is the read-only projection of an order created by the checkout
// collaborator. This subsystem never mutates it.
type Order struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID        uuid.UUID `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	TotalPaise      int64     `gorm:"column:total_paise;not null" json:"total_paise"`
	DeliveryPincode string    `gorm:"column:delivery_pincode;not null" json:"delivery_pincode"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
