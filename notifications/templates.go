package notifications

import (
	"bytes"
	"html/template"
	"log"
)

var orderPaidTmpl = template.Must(template.New("order_paid").Parse(
	`<h1>Payment received</h1><p>Hi {{.Name}},</p><p>We received your payment of {{.Currency}} {{printf "%.2f" .Amount}} for order <b>{{.OrderID}}</b>. Your items are on their way.</p>`))

var orderPlacedTmpl = template.Must(template.New("order_placed").Parse(
	`<h1>Order placed</h1><p>Hi {{.Name}},</p><p>Your cash-on-delivery order <b>{{.OrderID}}</b> for {{.Currency}} {{printf "%.2f" .Amount}} has been placed.</p>`))

var enrollmentTmpl = template.Must(template.New("enrollment").Parse(
	`<h1>Welcome to {{.CourseTitle}}</h1><p>Hi {{.Name}},</p><p>You are now enrolled. Happy learning!</p>`))

var certificateTmpl = template.Must(template.New("certificate").Parse(
	`<h1>Congratulations!</h1><p>Hi {{.Name}},</p><p>You completed <b>{{.CourseTitle}}</b>. <a href="{{.URL}}">Download your certificate</a>.</p>`))

type OrderEmail struct {
	Name     string
	OrderID  string
	Currency string
	Amount   float64
}

type CourseEmail struct {
	Name        string
	CourseTitle string
	URL         string
}

func OrderPaidHTML(data OrderEmail) string { return render(orderPaidTmpl, data) }
func OrderPlacedHTML(data OrderEmail) string { return render(orderPlacedTmpl, data) }
func EnrollmentHTML(data CourseEmail) string { return render(enrollmentTmpl, data) }
func CertificateHTML(data CourseEmail) string { return render(certificateTmpl, data) }

func render(t *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		log.Printf("🔥 Failed to render email %s: %v", t.Name(), err)
		return ""
	}
	return buf.String()
}
