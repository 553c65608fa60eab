package services

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
)

// AppError is a failure whose message is safe to show to the caller.
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func Validation(msg string) error { return &AppError{Kind: KindValidation, Message: msg} }
func NotFound(msg string) error { return &AppError{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error { return &AppError{Kind: KindConflict, Message: msg} }
func Forbidden(msg string) error { return &AppError{Kind: KindForbidden, Message: msg} }
func Unauthorized(msg string) error { return &AppError{Kind: KindUnauthorized, Message: msg} }

// KindOf returns KindInternal for anything that is not an *AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

var (
	ErrQuizAlreadySubmitted = Conflict("Quiz already submitted")
	ErrAlreadyEnrolled      = Conflict("Already enrolled in this course")
	ErrCartEmpty            = Conflict("Cart is empty")
	ErrPaymentVerification  = Unauthorized("Payment verification failed")
)

// isDuplicateKey recognises unique violations from every driver we run on.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
