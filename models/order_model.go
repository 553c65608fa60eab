package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentMethodRazorpay = "razorpay"
	PaymentMethodCOD      = "cod"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusExpired   = "expired"

	OrderStatusPlaced    = "placed"
	OrderStatusCancelled = "cancelled"
)

// Order is a marketplace purchase. TotalAmount and the item unit prices are
// captured at creation and never re-derived.
type Order struct {
	ID               uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	UserID           uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Items            []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount      float64     `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Currency         string      `gorm:"size:3;not null" json:"currency"`
	PaymentMethod    string      `gorm:"size:20;not null" json:"payment_method"`
	PaymentStatus    string      `gorm:"size:20;not null;index" json:"payment_status"`
	Status           string      `gorm:"size:20;not null;default:'placed'" json:"status"`
	GatewayOrderID   *string     `gorm:"size:255;uniqueIndex" json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string     `gorm:"size:255" json:"gateway_payment_id,omitempty"`
	PaidAt           *time.Time  `json:"paid_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"type:numeric(10,2);not null" json:"unit_price"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
