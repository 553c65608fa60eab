package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anjiri1684/learnhub/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type OptionInput struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionInput struct {
	Prompt  string        `json:"prompt" validate:"required"`
	Type    string        `json:"type" validate:"required,oneof=single multiple"`
	Options []OptionInput `json:"options" validate:"required,min=2,dive"`
}

type QuizInput struct {
	Title     string          `json:"title" validate:"required"`
	Questions []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

type SubmitResult struct {
	Score      int                `json:"score"`
	TotalMarks int                `json:"total_marks"`
	Submission *models.Submission `json:"submission"`
}

type QuizResult struct {
	QuizID     uuid.UUID          `json:"quiz_id"`
	QuizTitle  string             `json:"quiz_title"`
	TotalMarks int                `json:"total_marks"`
	Submission *models.Submission `json:"submission"`
}

type QuizService struct {
	DB       *gorm.DB
	Notifier Notifier
}

func NewQuizService(db *gorm.DB, notifier Notifier) *QuizService {
	return &QuizService{DB: db, Notifier: notifierOrNop(notifier)}
}

func withQuestions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// Submit grades a student's answers and records the attempt. Only students
// enrolled in the quiz's course may submit. The insert is the
// only write; a second attempt for the same quiz is rejected by the unique
// index on (quiz_id, student_id).
func (s *QuizService) Submit(ctx context.Context, quizID, studentID uuid.UUID, answers []AnswerInput) (*SubmitResult, error) {
	if len(answers) == 0 {
		return nil, Validation("At least one answer is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(answers))
	for _, a := range answers {
		if a.QuestionID == uuid.Nil {
			return nil, Validation("Each answer needs a question_id")
		}
		if a.SelectedOptionIDs == nil {
			return nil, Validation("Each answer needs selected_option_ids")
		}
		if _, dup := seen[a.QuestionID]; dup {
			return nil, Validation(fmt.Sprintf("Duplicate answer for question %s", a.QuestionID))
		}
		seen[a.QuestionID] = struct{}{}
	}

	var quiz models.Quiz
	if err := withQuestions(s.DB.WithContext(ctx)).First(&quiz, "id = ?", quizID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Quiz not found")
		}
		return nil, errors.Wrap(err, "load quiz")
	}
	if err := s.ensureEnrolled(ctx, quiz.CourseID, studentID); err != nil {
		return nil, err
	}

	inQuiz := make(map[uuid.UUID]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		inQuiz[q.ID] = struct{}{}
	}
	for _, a := range answers {
		if _, ok := inQuiz[a.QuestionID]; !ok {
			return nil, NotFound(fmt.Sprintf("Question %s is not part of this quiz", a.QuestionID))
		}
	}

	score, details := GradeQuiz(quiz, answers)
	submission := models.Submission{
		QuizID:      quiz.ID,
		StudentID:   studentID,
		Answers:     details,
		Score:       score,
		TotalMarks:  len(quiz.Questions),
		SubmittedAt: time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&submission).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrQuizAlreadySubmitted
		}
		return nil, errors.Wrap(err, "save submission")
	}

	s.Notifier.Notify(studentID, EventQuizGraded, map[string]interface{}{
		"quiz_id":     quiz.ID,
		"score":       submission.Score,
		"total_marks": submission.TotalMarks,
	})

	return &SubmitResult{Score: submission.Score, TotalMarks: submission.TotalMarks, Submission: &submission}, nil
}

func (s *QuizService) GetResult(ctx context.Context, quizID, studentID uuid.UUID) (*QuizResult, error) {
	var quiz models.Quiz
	if err := s.DB.WithContext(ctx).First(&quiz, "id = ?", quizID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Quiz not found")
		}
		return nil, errors.Wrap(err, "load quiz")
	}

	var submission models.Submission
	if err := s.DB.WithContext(ctx).First(&submission, "quiz_id = ? AND student_id = ?", quizID, studentID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("No submission found for this quiz")
		}
		return nil, errors.Wrap(err, "load submission")
	}

	return &QuizResult{
		QuizID:     quiz.ID,
		QuizTitle:  quiz.Title,
		TotalMarks: submission.TotalMarks,
		Submission: &submission,
	}, nil
}

// ListSubmissions is restricted to the course instructor and admins.
func (s *QuizService) ListSubmissions(ctx context.Context, quizID uuid.UUID, requester models.User) ([]models.Submission, error) {
	var quiz models.Quiz
	if err := s.DB.WithContext(ctx).Preload("Course").First(&quiz, "id = ?", quizID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Quiz not found")
		}
		return nil, errors.Wrap(err, "load quiz")
	}
	if quiz.Course == nil {
		return nil, NotFound("Course not found")
	}
	if !quiz.Course.CanManage(requester) {
		return nil, Forbidden("Only the course instructor can view submissions")
	}

	var submissions []models.Submission
	err := s.DB.WithContext(ctx).
		Preload("Student", func(db *gorm.DB) *gorm.DB { return db.Select("id", "full_name", "email") }).
		Where("quiz_id = ?", quizID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, errors.Wrap(err, "list submissions")
	}
	return submissions, nil
}

func (s *QuizService) CreateQuiz(ctx context.Context, courseID uuid.UUID, requester models.User, input QuizInput) (*models.Quiz, error) {
	if err := validateQuizInput(input); err != nil {
		return nil, err
	}
	var course models.Course
	if err := s.DB.WithContext(ctx).First(&course, "id = ?", courseID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Course not found")
		}
		return nil, errors.Wrap(err, "load course")
	}
	if !course.CanManage(requester) {
		return nil, Forbidden("Only the course instructor can manage its quizzes")
	}

	quiz := models.Quiz{
		CourseID:   course.ID,
		Title:      input.Title,
		TotalMarks: len(input.Questions),
		Questions:  buildQuestions(input.Questions),
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&quiz).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "create quiz")
	}
	return &quiz, nil
}

// UpdateQuiz replaces the title and the whole question set in one transaction.
func (s *QuizService) UpdateQuiz(ctx context.Context, quizID uuid.UUID, requester models.User, input QuizInput) (*models.Quiz, error) {
	if err := validateQuizInput(input); err != nil {
		return nil, err
	}
	quiz, err := s.managedQuiz(ctx, quizID, requester)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNoSubmissions(tx, quiz.ID); err != nil {
			return err
		}
		if err := deleteQuestions(tx, quiz.ID); err != nil {
			return err
		}
		if err := tx.Model(&models.Quiz{}).Where("id = ?", quiz.ID).Updates(map[string]interface{}{
			"title":       input.Title,
			"total_marks": len(input.Questions),
			"updated_at":  time.Now(),
		}).Error; err != nil {
			return err
		}
		questions := buildQuestions(input.Questions)
		for i := range questions {
			questions[i].QuizID = quiz.ID
		}
		return tx.Create(&questions).Error
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return nil, err
		}
		return nil, errors.Wrap(err, "update quiz")
	}
	return s.GetQuiz(ctx, quiz.ID, requester)
}

func (s *QuizService) DeleteQuiz(ctx context.Context, quizID uuid.UUID, requester models.User) error {
	quiz, err := s.managedQuiz(ctx, quizID, requester)
	if err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNoSubmissions(tx, quiz.ID); err != nil {
			return err
		}
		if err := deleteQuestions(tx, quiz.ID); err != nil {
			return err
		}
		return tx.Delete(&models.Quiz{}, "id = ?", quiz.ID).Error
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return err
		}
		return errors.Wrap(err, "delete quiz")
	}
	return nil
}

// GetQuiz returns the quiz with its answer key and owning course loaded.
// Course managers always see it; anyone else must be enrolled in the
// published course.
func (s *QuizService) GetQuiz(ctx context.Context, quizID uuid.UUID, requester models.User) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := withQuestions(s.DB.WithContext(ctx)).Preload("Course").First(&quiz, "id = ?", quizID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Quiz not found")
		}
		return nil, errors.Wrap(err, "load quiz")
	}
	if quiz.Course == nil {
		return nil, NotFound("Quiz not found")
	}
	if quiz.Course.CanManage(requester) {
		return &quiz, nil
	}
	if !quiz.Course.IsPublished {
		return nil, NotFound("Quiz not found")
	}
	if err := s.ensureEnrolled(ctx, quiz.CourseID, requester.ID); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (s *QuizService) ensureEnrolled(ctx context.Context, courseID, userID uuid.UUID) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error; err != nil {
		return errors.Wrap(err, "check enrollment")
	}
	if count == 0 {
		return Forbidden("You must be enrolled in this course")
	}
	return nil
}

func (s *QuizService) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := s.DB.WithContext(ctx).Where("course_id = ?", courseID).Order("created_at ASC").Find(&quizzes).Error; err != nil {
		return nil, errors.Wrap(err, "list quizzes")
	}
	return quizzes, nil
}

func (s *QuizService) managedQuiz(ctx context.Context, quizID uuid.UUID, requester models.User) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.DB.WithContext(ctx).Preload("Course").First(&quiz, "id = ?", quizID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Quiz not found")
		}
		return nil, errors.Wrap(err, "load quiz")
	}
	if quiz.Course == nil {
		return nil, NotFound("Course not found")
	}
	if !quiz.Course.CanManage(requester) {
		return nil, Forbidden("Only the course instructor can manage its quizzes")
	}
	return &quiz, nil
}

func ensureNoSubmissions(tx *gorm.DB, quizID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Submission{}).Where("quiz_id = ?", quizID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return Conflict("Quiz already has submissions and can no longer be changed")
	}
	return nil
}

func deleteQuestions(tx *gorm.DB, quizID uuid.UUID) error {
	questionIDs := tx.Model(&models.Question{}).Select("id").Where("quiz_id = ?", quizID)
	if err := tx.Where("question_id IN (?)", questionIDs).Delete(&models.Option{}).Error; err != nil {
		return err
	}
	return tx.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error
}

func buildQuestions(inputs []QuestionInput) []models.Question {
	questions := make([]models.Question, len(inputs))
	for i, in := range inputs {
		options := make([]models.Option, len(in.Options))
		for j, o := range in.Options {
			options[j] = models.Option{Position: j + 1, Text: o.Text, IsCorrect: o.IsCorrect}
		}
		questions[i] = models.Question{
			Position: i + 1,
			Type:     in.Type,
			Prompt:   in.Prompt,
			Options:  options,
		}
	}
	return questions
}

// validateQuizInput enforces the answer-key rules: single-choice questions have
// exactly one correct option, multiple-choice at least one, and every question
// offers at least two options.
func validateQuizInput(input QuizInput) error {
	if input.Title == "" {
		return Validation("Quiz title is required")
	}
	if len(input.Questions) == 0 {
		return Validation("A quiz needs at least one question")
	}
	for i, q := range input.Questions {
		n := i + 1
		if q.Prompt == "" {
			return Validation(fmt.Sprintf("Question %d needs a prompt", n))
		}
		if len(q.Options) < 2 {
			return Validation(fmt.Sprintf("Question %d needs at least two options", n))
		}
		correct := 0
		for _, o := range q.Options {
			if o.Text == "" {
				return Validation(fmt.Sprintf("Question %d has an empty option", n))
			}
			if o.IsCorrect {
				correct++
			}
		}
		switch q.Type {
		case models.QuestionTypeSingle:
			if correct != 1 {
				return Validation(fmt.Sprintf("Question %d must have exactly one correct option", n))
			}
		case models.QuestionTypeMultiple:
			if correct < 1 {
				return Validation(fmt.Sprintf("Question %d must have at least one correct option", n))
			}
		default:
			return Validation(fmt.Sprintf("Question %d has an unknown type %q", n, q.Type))
		}
	}
	return nil
}
