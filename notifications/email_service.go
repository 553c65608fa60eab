package notifications

import (
	"log"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// Mailer sends transactional email. Send must not block the request path.
type Mailer interface {
	Send(toName, toEmail, subject, htmlContent string)
}

type SendgridMailer struct {
	apiKey string
	from   *sgmail.Email
}

// NewMailer returns a SendGrid mailer, or a log-only mailer when the service
// is not configured.
func NewMailer(apiKey, senderEmail, senderName string) Mailer {
	if apiKey == "" || senderEmail == "" {
		log.Println("⚠️ Email service not configured. Missing SENDGRID_API_KEY or EMAIL_SENDER.")
		return LogMailer{}
	}
	log.Printf("✅ Email service initialized with sender %s", senderEmail)
	return &SendgridMailer{
		apiKey: apiKey,
		from:   sgmail.NewEmail(senderName, senderEmail),
	}
}

func (s *SendgridMailer) Send(toName, toEmail, subject, htmlContent string) {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		log.Printf("🔥 Skipping email %q: invalid recipient %q", subject, toEmail)
		return
	}
	go s.send(toName, toEmail, subject, htmlContent)
}

func (s *SendgridMailer) send(toName, toEmail, subject, htmlContent string) {
	if toName == "" {
		toName = toEmail[:strings.Index(toEmail, "@")]
	}
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(toName, toEmail))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(s.from)
	msg.Subject = subject
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/html", htmlContent))

	req := sendgrid.GetRequest(s.apiKey, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := sendgrid.API(req)
	if err != nil {
		log.Printf("🔥 Failed to send email to %s: %v", toEmail, err)
		return
	}
	if res.StatusCode >= http.StatusBadRequest {
		log.Printf("🔥 SendGrid rejected email to %s: status %d, body %s", toEmail, res.StatusCode, res.Body)
		return
	}
	log.Printf("✅ Email sent successfully to %s", toEmail)
}

// LogMailer only logs; used when SendGrid is not configured.
type LogMailer struct{}

func (LogMailer) Send(toName, toEmail, subject, htmlContent string) {
	log.Printf("Email client not initialized, skipping email %q to %s", subject, toEmail)
}
