package services

import (
	"context"

	"github.com/anjiri1684/learnhub/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CourseInput struct {
	Title        string  `json:"title" validate:"required,min=3"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" validate:"gte=0"`
	ThumbnailURL *string `json:"thumbnail_url" validate:"omitempty,url"`
}

type LessonInput struct {
	Title    string  `json:"title" validate:"required"`
	Content  string  `json:"content"`
	VideoURL *string `json:"video_url" validate:"omitempty,url"`
	Position int     `json:"position" validate:"gte=0"`
}

type CourseService struct {
	DB *gorm.DB
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{DB: db}
}

func withLessons(db *gorm.DB) *gorm.DB {
	return db.Preload("Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, created_at ASC") })
}

// CreateCourse stores a new unpublished course owned by the requester.
func (s *CourseService) CreateCourse(ctx context.Context, requester models.User, input CourseInput) (*models.Course, error) {
	if requester.Role != models.RoleInstructor && requester.Role != models.RoleAdmin {
		return nil, Forbidden("Only instructors can create courses")
	}
	if input.Title == "" {
		return nil, Validation("Course title is required")
	}
	if input.Price < 0 {
		return nil, Validation("Price cannot be negative")
	}

	course := models.Course{
		Title:        input.Title,
		Description:  input.Description,
		Price:        input.Price,
		ThumbnailURL: input.ThumbnailURL,
		InstructorID: requester.ID,
		IsPublished:  false,
	}
	if err := s.DB.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, errors.Wrap(err, "create course")
	}
	return &course, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, courseID uuid.UUID, requester models.User, input CourseInput) (*models.Course, error) {
	if input.Title == "" {
		return nil, Validation("Course title is required")
	}
	if input.Price < 0 {
		return nil, Validation("Price cannot be negative")
	}
	course, err := s.managedCourse(ctx, courseID, requester)
	if err != nil {
		return nil, err
	}

	course.Title = input.Title
	course.Description = input.Description
	course.Price = input.Price
	course.ThumbnailURL = input.ThumbnailURL
	if err := s.DB.WithContext(ctx).Model(course).Select("title", "description", "price", "thumbnail_url").Updates(course).Error; err != nil {
		return nil, errors.Wrap(err, "update course")
	}
	return course, nil
}

// GetCourse hides unpublished courses from everyone but their owner and admins.
func (s *CourseService) GetCourse(ctx context.Context, courseID uuid.UUID, requester *models.User) (*models.Course, error) {
	var course models.Course
	err := withLessons(s.DB.WithContext(ctx)).
		Preload("Instructor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "full_name") }).
		First(&course, "id = ?", courseID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, NotFound("Course not found")
		}
		return nil, errors.Wrap(err, "load course")
	}
	if !course.IsPublished && (requester == nil || !course.CanManage(*requester)) {
		return nil, NotFound("Course not found")
	}
	return &course, nil
}

func (s *CourseService) ListPublished(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.DB.WithContext(ctx).
		Preload("Instructor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "full_name") }).
		Where("is_published = ?", true).
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	return courses, nil
}

func (s *CourseService) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]models.Course, error) {
	var courses []models.Course
	if err := s.DB.WithContext(ctx).Where("instructor_id = ?", instructorID).Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "list instructor courses")
	}
	return courses, nil
}

func (s *CourseService) AddLesson(ctx context.Context, courseID uuid.UUID, requester models.User, input LessonInput) (*models.Lesson, error) {
	if input.Title == "" {
		return nil, Validation("Lesson title is required")
	}
	course, err := s.managedCourse(ctx, courseID, requester)
	if err != nil {
		return nil, err
	}

	position := input.Position
	if position == 0 {
		var last int
		if err := s.DB.WithContext(ctx).Model(&models.Lesson{}).
			Where("course_id = ?", course.ID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&last).Error; err != nil {
			return nil, errors.Wrap(err, "next lesson position")
		}
		position = last + 1
	}

	lesson := models.Lesson{
		CourseID: course.ID,
		Title:    input.Title,
		Content:  input.Content,
		VideoURL: input.VideoURL,
		Position: position,
	}
	if err := s.DB.WithContext(ctx).Create(&lesson).Error; err != nil {
		return nil, errors.Wrap(err, "create lesson")
	}
	return &lesson, nil
}

// SetPublished is the admin approval switch.
func (s *CourseService) SetPublished(ctx context.Context, courseID uuid.UUID, published bool) (*models.Course, error) {
	result := s.DB.WithContext(ctx).Model(&models.Course{}).Where("id = ?", courseID).Update("is_published", published)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "publish course")
	}
	if result.RowsAffected == 0 {
		return nil, NotFound("Course not found")
	}
	var course models.Course
	if err := s.DB.WithContext(ctx).First(&course, "id = ?", courseID).Error; err != nil {
		return nil, errors.Wrap(err, "reload course")
	}
	return &course, nil
}

func (s *CourseService) managedCourse(ctx context.Context, courseID uuid.UUID, requester models.User) (*models.Course, error) {
	var course models.Course
	if err := s.DB.WithContext(ctx).First(&course, "id = ?", courseID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Course not found")
		}
		return nil, errors.Wrap(err, "load course")
	}
	if !course.CanManage(requester) {
		return nil, Forbidden("You do not own this course")
	}
	return &course, nil
}
