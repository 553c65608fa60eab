package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission is a graded quiz attempt. At most one exists per (quiz, student)
// and it is never updated after insert.
type Submission struct {
	ID          uuid.UUID                         `gorm:"type:uuid;primary_key" json:"id"`
	QuizID      uuid.UUID                         `gorm:"type:uuid;not null;uniqueIndex:idx_submission_quiz_student" json:"quiz_id"`
	StudentID   uuid.UUID                         `gorm:"type:uuid;not null;uniqueIndex:idx_submission_quiz_student" json:"student_id"`
	Answers     datatypes.JSONSlice[AnswerDetail] `json:"answers"`
	Score       int                               `gorm:"not null" json:"score"`
	TotalMarks  int                               `gorm:"not null" json:"total_marks"`
	SubmittedAt time.Time                         `gorm:"not null;index" json:"submitted_at"`

	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Quiz    *Quiz `gorm:"foreignKey:QuizID" json:"-"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// AnswerDetail is the graded outcome for one question, in quiz order.
type AnswerDetail struct {
	QuestionID        uuid.UUID `json:"question_id"`
	SelectedOptionIDs []string  `json:"selected_option_ids"`
	IsCorrect         bool      `json:"is_correct"`
}
