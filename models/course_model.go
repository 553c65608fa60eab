package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Price        float64   `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	ThumbnailURL *string   `gorm:"size:512" json:"thumbnail_url"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructor_id"`
	IsPublished  bool      `gorm:"default:false" json:"is_published"`

	Instructor *User    `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Lessons    []Lesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (c Course) IsFree() bool {
	return c.Price <= 0
}

// CanManage reports whether the user may author content for this course.
func (c Course) CanManage(user User) bool {
	return user.Role == RoleAdmin || c.InstructorID == user.ID
}

type Lesson struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title    string    `gorm:"size:255;not null" json:"title"`
	Content  string    `gorm:"type:text" json:"content"`
	VideoURL *string   `gorm:"size:512" json:"video_url"`
	Position int       `gorm:"not null;default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
