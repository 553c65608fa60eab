package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/anjiri1684/learnhub/models"
	"github.com/anjiri1684/learnhub/notifications"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PDFRenderer turns an HTML document into a PDF.
type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// CertificateStore persists a rendered certificate and returns a public URL.
type CertificateStore interface {
	UploadCertificate(ctx context.Context, pdf []byte, publicID string) (string, error)
}

// CertificateIssuer is what enrollment calls once a course is complete.
type CertificateIssuer interface {
	IssueAsync(userID, courseID uuid.UUID)
}

type CertificateService struct {
	DB       *gorm.DB
	Renderer PDFRenderer
	Store    CertificateStore
	Mailer   notifications.Mailer
	Notifier Notifier
}

func NewCertificateService(db *gorm.DB, renderer PDFRenderer, store CertificateStore, mailer notifications.Mailer, notifier Notifier) *CertificateService {
	if mailer == nil {
		mailer = notifications.LogMailer{}
	}
	return &CertificateService{
		DB:       db,
		Renderer: renderer,
		Store:    store,
		Mailer:   mailer,
		Notifier: notifierOrNop(notifier),
	}
}

func (s *CertificateService) IssueAsync(userID, courseID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.Issue(ctx, userID, courseID); err != nil {
			log.Printf("🔥 Failed to issue certificate for user %s course %s: %v", userID, courseID, err)
		}
	}()
}

// Issue renders, uploads and records the certificate for a completed course.
// It returns the existing certificate when one was already issued.
func (s *CertificateService) Issue(ctx context.Context, userID, courseID uuid.UUID) (*models.Certificate, error) {
	var existing models.Certificate
	err := s.DB.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !isNotFound(err) {
		return nil, errors.Wrap(err, "check certificate")
	}

	var enrollment models.Enrollment
	if err := s.DB.WithContext(ctx).Preload("Course").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Enrollment not found")
		}
		return nil, errors.Wrap(err, "load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusCompleted || enrollment.Course == nil {
		return nil, Conflict("Course is not completed yet")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, errors.Wrap(err, "load user")
	}

	issuedAt := time.Now()
	htmlDoc, err := renderCertificateHTML(user.FullName, enrollment.Course.Title, issuedAt)
	if err != nil {
		return nil, errors.Wrap(err, "render certificate html")
	}
	pdf, err := s.Renderer.Render(ctx, htmlDoc)
	if err != nil {
		return nil, errors.Wrap(err, "render certificate pdf")
	}
	certificateURL, err := s.Store.UploadCertificate(ctx, pdf, fmt.Sprintf("%s_%s", userID, courseID))
	if err != nil {
		return nil, err
	}

	certificate := models.Certificate{
		UserID:         userID,
		CourseID:       courseID,
		CourseTitle:    enrollment.Course.Title,
		CertificateURL: certificateURL,
		IssuedAt:       issuedAt,
	}
	result := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}}, DoNothing: true}).
		Create(&certificate)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "save certificate")
	}
	if result.RowsAffected == 0 {
		// lost a race with a concurrent issue
		if err := s.DB.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error; err != nil {
			return nil, errors.Wrap(err, "reload certificate")
		}
		return &existing, nil
	}

	log.Printf("✅ Issued certificate '%s' for user %s.", certificate.CourseTitle, userID)
	s.Notifier.Notify(userID, EventCertificateIssued, certificate)
	body := notifications.CertificateHTML(notifications.CourseEmail{
		Name:        user.FullName,
		CourseTitle: certificate.CourseTitle,
		URL:         certificate.CertificateURL,
	})
	s.Mailer.Send(user.FullName, user.Email, "Your certificate for "+certificate.CourseTitle, body)
	return &certificate, nil
}

func (s *CertificateService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Certificate, error) {
	var certificates []models.Certificate
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("issued_at DESC").Find(&certificates).Error; err != nil {
		return nil, errors.Wrap(err, "list certificates")
	}
	return certificates, nil
}

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Georgia, serif; text-align: center; padding: 80px; border: 12px solid #1f3a5f; }
  h1 { font-size: 44px; color: #1f3a5f; margin-bottom: 8px; }
  .name { font-size: 34px; margin: 32px 0; }
  .course { font-size: 24px; font-style: italic; }
  .date { margin-top: 48px; color: #555; }
</style>
</head>
<body>
  <h1>Certificate of Completion</h1>
  <p>This certifies that</p>
  <p class="name">{{.StudentName}}</p>
  <p>has successfully completed</p>
  <p class="course">{{.CourseTitle}}</p>
  <p class="date">{{.CompletionDate}}</p>
</body>
</html>`))

func renderCertificateHTML(studentName, courseTitle string, completedAt time.Time) (string, error) {
	data := struct {
		StudentName    string
		CourseTitle    string
		CompletionDate string
	}{
		StudentName:    studentName,
		CourseTitle:    courseTitle,
		CompletionDate: completedAt.Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := certificateTemplate.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

// ChromePDFRenderer prints HTML with a headless Chrome.
type ChromePDFRenderer struct{}

func (ChromePDFRenderer) Render(ctx context.Context, htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).WithLandscape(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}
