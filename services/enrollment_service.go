package services

import (
	"context"
	"time"

	"github.com/anjiri1684/learnhub/models"
	"github.com/anjiri1684/learnhub/notifications"
	"github.com/anjiri1684/learnhub/payments"
	"github.com/anjiri1684/learnhub/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseCheckout struct {
	Course       *models.Course         `json:"course"`
	GatewayOrder *payments.GatewayOrder `json:"gateway_order"`
	KeyID        string                 `json:"key_id"`
}

type Progress struct {
	EnrollmentID       uuid.UUID   `json:"enrollment_id"`
	CourseID           uuid.UUID   `json:"course_id"`
	Status             string      `json:"status"`
	Completed          int         `json:"completed"`
	Total              int         `json:"total"`
	Percent            int         `json:"percent"`
	CompletedLessonIDs []uuid.UUID `json:"completed_lesson_ids"`
}

type nopIssuer struct{}

func (nopIssuer) IssueAsync(uuid.UUID, uuid.UUID) {}

type EnrollmentService struct {
	DB           *gorm.DB
	Payments     PaymentSettings
	Certificates CertificateIssuer
	Mailer       notifications.Mailer
	Notifier     Notifier
}

func NewEnrollmentService(db *gorm.DB, settings PaymentSettings, certificates CertificateIssuer, mailer notifications.Mailer, notifier Notifier) *EnrollmentService {
	if certificates == nil {
		certificates = nopIssuer{}
	}
	if mailer == nil {
		mailer = notifications.LogMailer{}
	}
	return &EnrollmentService{
		DB:           db,
		Payments:     settings,
		Certificates: certificates,
		Mailer:       mailer,
		Notifier:     notifierOrNop(notifier),
	}
}

func (s *EnrollmentService) publishedCourse(ctx context.Context, courseID uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := s.DB.WithContext(ctx).First(&course, "id = ? AND is_published = ?", courseID, true).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Course not found")
		}
		return nil, errors.Wrap(err, "load course")
	}
	return &course, nil
}

// Enroll joins a free course. Paid courses go through checkout.
func (s *EnrollmentService) Enroll(ctx context.Context, user models.User, courseID uuid.UUID) (*models.Enrollment, error) {
	course, err := s.publishedCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsFree() {
		return nil, Validation("This course requires payment")
	}

	enrollment := models.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
		IsPaid:   false,
		Status:   models.EnrollmentStatusActive,
	}
	if err := s.DB.WithContext(ctx).Create(&enrollment).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, errors.Wrap(err, "create enrollment")
	}

	s.afterEnroll(user, course, &enrollment)
	return &enrollment, nil
}

// CreateCourseCheckout opens a gateway order for a paid course.
func (s *EnrollmentService) CreateCourseCheckout(ctx context.Context, user models.User, courseID uuid.UUID) (*CourseCheckout, error) {
	course, err := s.publishedCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.IsFree() {
		return nil, Validation("This course is free, enroll directly")
	}
	enrolled, err := s.isEnrolled(ctx, user.ID, course.ID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	gatewayOrder, err := s.Payments.Gateway.CreateOrder(ctx, payments.OrderRequest{
		Amount:   payments.ToMinorUnits(course.Price),
		Currency: s.Payments.currency(),
		Receipt:  utils.GenerateReceipt("crs"),
		Notes: map[string]string{
			"course_id": course.ID.String(),
			"user_id":   user.ID.String(),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gateway order")
	}

	payment := models.CoursePayment{
		GatewayOrderID: gatewayOrder.ID,
		UserID:         user.ID,
		CourseID:       course.ID,
		Amount:         course.Price,
		Currency:       s.Payments.currency(),
		Status:         models.PaymentStatusPending,
	}
	if err := s.DB.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, errors.Wrap(err, "save course payment")
	}
	return &CourseCheckout{Course: course, GatewayOrder: gatewayOrder, KeyID: s.Payments.KeyID}, nil
}

// ConfirmCoursePayment turns a verified gateway payment into a paid
// enrollment. The gateway order must be one opened by CreateCourseCheckout
// for the same user and course, and each order settles one enrollment.
func (s *EnrollmentService) ConfirmCoursePayment(ctx context.Context, user models.User, courseID uuid.UUID, gatewayOrderID, gatewayPaymentID, signature string) (*models.Enrollment, error) {
	if !s.Payments.Verifier.Verify(gatewayOrderID, gatewayPaymentID, signature) {
		return nil, ErrPaymentVerification
	}

	var course models.Course
	if err := s.DB.WithContext(ctx).First(&course, "id = ?", courseID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Course not found")
		}
		return nil, errors.Wrap(err, "load course")
	}

	var payment models.CoursePayment
	if err := s.DB.WithContext(ctx).First(&payment, "gateway_order_id = ?", gatewayOrderID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Payment not found")
		}
		return nil, errors.Wrap(err, "load course payment")
	}
	if payment.UserID != user.ID {
		return nil, Forbidden("This payment belongs to another user")
	}
	if payment.CourseID != course.ID {
		return nil, Validation("This payment was made for a different course")
	}

	enrolled, err := s.isEnrolled(ctx, user.ID, course.ID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	now := time.Now()
	enrollment := models.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
		IsPaid:   true,
		PaymentInfo: models.PaymentInfo{
			GatewayOrderID:   &gatewayOrderID,
			GatewayPaymentID: &gatewayPaymentID,
			Status:           models.PaymentStatusCompleted,
			Amount:           payment.Amount,
		},
		Status: models.EnrollmentStatusActive,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CoursePayment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":             models.PaymentStatusCompleted,
				"gateway_payment_id": gatewayPaymentID,
				"paid_at":            now,
				"updated_at":         now,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "settle course payment")
		}
		if result.RowsAffected == 0 {
			return Conflict("This payment has already been used")
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyEnrolled
			}
			return errors.Wrap(err, "create paid enrollment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterEnroll(user, &course, &enrollment)
	return &enrollment, nil
}

func (s *EnrollmentService) afterEnroll(user models.User, course *models.Course, enrollment *models.Enrollment) {
	s.Notifier.Notify(user.ID, EventEnrollmentCreated, map[string]interface{}{
		"enrollment_id": enrollment.ID,
		"course_id":     course.ID,
		"course_title":  course.Title,
	})
	s.Mailer.Send(user.FullName, user.Email, "Welcome to "+course.Title, notifications.EnrollmentHTML(notifications.CourseEmail{
		Name:        user.FullName,
		CourseTitle: course.Title,
	}))
}

func (s *EnrollmentService) isEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "check enrollment")
	}
	return count > 0, nil
}

// CompleteLesson adds the lesson to the enrollment's completed set. Repeats
// are no-ops. Completing the last lesson closes the enrollment and triggers the
// certificate.
func (s *EnrollmentService) CompleteLesson(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*Progress, error) {
	enrollment, err := s.findEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	var lesson models.Lesson
	if err := s.DB.WithContext(ctx).First(&lesson, "id = ? AND course_id = ?", lessonID, courseID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Lesson not found in this course")
		}
		return nil, errors.Wrap(err, "load lesson")
	}

	completed := models.EnrollmentLesson{
		EnrollmentID: enrollment.ID,
		LessonID:     lesson.ID,
		CompletedAt:  time.Now(),
	}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&completed).Error; err != nil {
		return nil, errors.Wrap(err, "record lesson completion")
	}

	progress, err := s.progress(ctx, enrollment)
	if err != nil {
		return nil, err
	}

	if progress.Total > 0 && progress.Completed >= progress.Total && enrollment.Status != models.EnrollmentStatusCompleted {
		result := s.DB.WithContext(ctx).Model(&models.Enrollment{}).
			Where("id = ? AND status <> ?", enrollment.ID, models.EnrollmentStatusCompleted).
			Updates(map[string]interface{}{"status": models.EnrollmentStatusCompleted, "updated_at": time.Now()})
		if result.Error != nil {
			return nil, errors.Wrap(result.Error, "complete enrollment")
		}
		progress.Status = models.EnrollmentStatusCompleted
		if result.RowsAffected == 1 {
			s.Certificates.IssueAsync(userID, courseID)
		}
	}
	return progress, nil
}

func (s *EnrollmentService) GetProgress(ctx context.Context, userID, courseID uuid.UUID) (*Progress, error) {
	enrollment, err := s.findEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return s.progress(ctx, enrollment)
}

func (s *EnrollmentService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := s.DB.WithContext(ctx).
		Preload("Course").
		Preload("CompletedLessons").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, errors.Wrap(err, "list enrollments")
	}
	return enrollments, nil
}

func (s *EnrollmentService) findEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := s.DB.WithContext(ctx).First(&enrollment, "user_id = ? AND course_id = ?", userID, courseID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Enrollment not found")
		}
		return nil, errors.Wrap(err, "load enrollment")
	}
	return &enrollment, nil
}

// progress only counts completions of lessons that still belong to the course.
func (s *EnrollmentService) progress(ctx context.Context, enrollment *models.Enrollment) (*Progress, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Lesson{}).Where("course_id = ?", enrollment.CourseID).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count lessons")
	}

	var lessonIDs []uuid.UUID
	err := s.DB.WithContext(ctx).Model(&models.EnrollmentLesson{}).
		Where("enrollment_id = ? AND lesson_id IN (?)", enrollment.ID,
			s.DB.Model(&models.Lesson{}).Select("id").Where("course_id = ?", enrollment.CourseID)).
		Order("completed_at ASC").
		Pluck("lesson_id", &lessonIDs).Error
	if err != nil {
		return nil, errors.Wrap(err, "load completed lessons")
	}
	if lessonIDs == nil {
		lessonIDs = []uuid.UUID{}
	}

	percent := 0
	if total > 0 {
		percent = len(lessonIDs) * 100 / int(total)
	}
	return &Progress{
		EnrollmentID:       enrollment.ID,
		CourseID:           enrollment.CourseID,
		Status:             enrollment.Status,
		Completed:          len(lessonIDs),
		Total:              int(total),
		Percent:            percent,
		CompletedLessonIDs: lessonIDs,
	}, nil
}
