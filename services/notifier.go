package services

import "github.com/google/uuid"

const (
	EventOrderPaid         = "order.paid"
	EventQuizGraded        = "quiz.graded"
	EventEnrollmentCreated = "enrollment.created"
	EventCertificateIssued = "certificate.issued"
)

// Notifier pushes a realtime event to one user. Implementations must not
// block.
type Notifier interface {
	Notify(userID uuid.UUID, eventType string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(uuid.UUID, string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
