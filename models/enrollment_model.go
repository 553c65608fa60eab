package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
)

type PaymentInfo struct {
	GatewayOrderID   *string `gorm:"size:255;uniqueIndex:idx_enrollment_gateway_order" json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string `gorm:"size:255" json:"gateway_payment_id,omitempty"`
	Status           string  `gorm:"size:20" json:"status,omitempty"`
	Amount           float64 `gorm:"type:numeric(10,2);default:0" json:"amount"`
}

type Enrollment struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	IsPaid      bool        `gorm:"default:false" json:"is_paid"`
	PaymentInfo PaymentInfo `gorm:"embedded;embeddedPrefix:payment_" json:"payment_info"`
	Status      string      `gorm:"size:20;not null;default:'active'" json:"status"`

	Course           *Course            `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	CompletedLessons []EnrollmentLesson `gorm:"foreignKey:EnrollmentID" json:"completed_lessons,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// EnrollmentLesson is one member of an enrollment's completed-lesson set. The
// composite key makes the set add-only.
type EnrollmentLesson struct {
	EnrollmentID uuid.UUID `gorm:"type:uuid;primaryKey" json:"enrollment_id"`
	LessonID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"lesson_id"`
	CompletedAt  time.Time `gorm:"not null" json:"completed_at"`
}

// CoursePayment is the server-side record of a course checkout. It binds the
// gateway order to the buyer, the course and the amount charged, and is
// settled at most once.
type CoursePayment struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	GatewayOrderID   string     `gorm:"size:255;not null;uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID *string    `gorm:"size:255" json:"gateway_payment_id,omitempty"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	CourseID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	Amount           float64    `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency         string     `gorm:"size:3;not null" json:"currency"`
	Status           string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *CoursePayment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
