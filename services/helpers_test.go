package services

import (
	"sync"
	"testing"

	"github.com/anjiri1684/learnhub/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentEvent struct {
	UserID  uuid.UUID
	Type    string
	Payload interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (r *recordingNotifier) Notify(userID uuid.UUID, eventType string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{UserID: userID, Type: eventType, Payload: payload})
}

func (r *recordingNotifier) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type sentMail struct {
	ToEmail string
	Subject string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (r *recordingMailer) Send(toName, toEmail, subject, htmlContent string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{ToEmail: toEmail, Subject: subject})
}

func (r *recordingMailer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func seedUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()
	id := uuid.New()
	user := models.User{
		ID:       id,
		FullName: role + " " + id.String()[:4],
		Email:    id.String()[:8] + "@example.com",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCourse(t *testing.T, db *gorm.DB, instructor models.User, price float64, lessons int) models.Course {
	t.Helper()
	course := models.Course{
		Title:        "Go for Teachers",
		Description:  "Intro course",
		Price:        price,
		InstructorID: instructor.ID,
		IsPublished:  true,
	}
	for i := 0; i < lessons; i++ {
		course.Lessons = append(course.Lessons, models.Lesson{Title: "Lesson", Position: i + 1})
	}
	require.NoError(t, db.Create(&course).Error)
	return course
}

// seedTwoQuestionQuiz builds the reference quiz: Q1 single choice with A
// correct, Q2 multiple choice with B and C correct.
func seedTwoQuestionQuiz(t *testing.T, db *gorm.DB, course models.Course) models.Quiz {
	t.Helper()
	quiz := models.Quiz{
		CourseID:   course.ID,
		Title:      "Basics",
		TotalMarks: 2,
		Questions: []models.Question{
			{
				Position: 1,
				Type:     models.QuestionTypeSingle,
				Prompt:   "Q1",
				Options: []models.Option{
					{Position: 1, Text: "A", IsCorrect: true},
					{Position: 2, Text: "B"},
					{Position: 3, Text: "C"},
				},
			},
			{
				Position: 2,
				Type:     models.QuestionTypeMultiple,
				Prompt:   "Q2",
				Options: []models.Option{
					{Position: 1, Text: "A"},
					{Position: 2, Text: "B", IsCorrect: true},
					{Position: 3, Text: "C", IsCorrect: true},
				},
			},
		},
	}
	require.NoError(t, db.Create(&quiz).Error)
	return quiz
}

// optionID finds an option by its text within the question at index q.
func optionID(t *testing.T, quiz models.Quiz, q int, text string) string {
	t.Helper()
	for _, o := range quiz.Questions[q].Options {
		if o.Text == text {
			return o.ID.String()
		}
	}
	t.Fatalf("option %q not found in question %d", text, q)
	return ""
}

// enrolledStudent creates a student enrolled in the quiz's course.
func enrolledStudent(t *testing.T, db *gorm.DB, quiz models.Quiz) models.User {
	t.Helper()
	student := seedUser(t, db, models.RoleStudent)
	require.NoError(t, db.Create(&models.Enrollment{
		UserID:   student.ID,
		CourseID: quiz.CourseID,
		Status:   models.EnrollmentStatusActive,
	}).Error)
	return student
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64) models.Product {
	t.Helper()
	product := models.Product{Name: name, Price: price, IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func ptr(s string) *string { return &s }
