package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	QuestionTypeSingle   = "single"
	QuestionTypeMultiple = "multiple"
)

type Quiz struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	TotalMarks int       `gorm:"not null;default:0" json:"total_marks"`

	Course    *Course    `gorm:"foreignKey:CourseID" json:"-"`
	Questions []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

type Question struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuizID   uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Position int       `gorm:"not null" json:"position"`
	Type     string    `gorm:"size:20;not null;default:'single'" json:"type"`
	Prompt   string    `gorm:"type:text;not null" json:"prompt"`

	Options []Option `gorm:"foreignKey:QuestionID" json:"options"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

type Option struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct"`
}

func (o *Option) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
