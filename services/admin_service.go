package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anjiri1684/learnhub/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type UserPage struct {
	Data []models.User `json:"data"`
	Meta PageMeta      `json:"meta"`
}

type PageMeta struct {
	TotalUsers  int64 `json:"total_users"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
}

type DashboardStats struct {
	TotalStudents     int64   `json:"total_students"`
	TotalInstructors  int64   `json:"total_instructors"`
	TotalCourses      int64   `json:"total_courses"`
	PublishedCourses  int64   `json:"published_courses"`
	TotalEnrollments  int64   `json:"total_enrollments"`
	OrderRevenue      float64 `json:"order_revenue"`
	EnrollmentRevenue float64 `json:"enrollment_revenue"`
	PendingOrders     int64   `json:"pending_orders"`
	OrdersLast30Days  int64   `json:"orders_last_30_days"`
}

type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

func (s *AdminService) ListUsers(ctx context.Context, page, limit int, search string) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := s.DB.WithContext(ctx).Model(&models.User{})
	if search = strings.TrimSpace(search); search != "" {
		searchTerm := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var totalUsers int64
	if err := query.Count(&totalUsers).Error; err != nil {
		return nil, errors.Wrap(err, "count users")
	}
	var users []models.User
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "list users")
	}

	return &UserPage{
		Data: users,
		Meta: PageMeta{
			TotalUsers:  totalUsers,
			TotalPages:  int(math.Ceil(float64(totalUsers) / float64(limit))),
			CurrentPage: page,
		},
	}, nil
}

// SetBlocked blocks or unblocks a user. Admins cannot block themselves.
func (s *AdminService) SetBlocked(ctx context.Context, admin models.User, userID uuid.UUID, blocked bool) error {
	if blocked && admin.ID == userID {
		return Validation("You cannot block yourself")
	}
	result := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("is_blocked", blocked)
	if result.Error != nil {
		return errors.Wrap(result.Error, "update user status")
	}
	if result.RowsAffected == 0 {
		return NotFound("User not found")
	}
	return nil
}

// Stats summarises the platform. Order revenue only counts settled orders that
// were not cancelled.
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	db := s.DB.WithContext(ctx)
	var stats DashboardStats

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalStudents, db.Model(&models.User{}).Where("role = ?", models.RoleStudent)},
		{&stats.TotalInstructors, db.Model(&models.User{}).Where("role = ?", models.RoleInstructor)},
		{&stats.TotalCourses, db.Model(&models.Course{})},
		{&stats.PublishedCourses, db.Model(&models.Course{}).Where("is_published = ?", true)},
		{&stats.TotalEnrollments, db.Model(&models.Enrollment{})},
		{&stats.PendingOrders, db.Model(&models.Order{}).Where("payment_status = ?", models.PaymentStatusPending)},
		{&stats.OrdersLast30Days, db.Model(&models.Order{}).Where("created_at > ?", time.Now().AddDate(0, 0, -30))},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, errors.Wrap(err, "dashboard counts")
		}
	}

	if err := db.Model(&models.Order{}).
		Where("payment_status = ? AND status <> ?", models.PaymentStatusCompleted, models.OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.OrderRevenue).Error; err != nil {
		return nil, errors.Wrap(err, "order revenue")
	}
	if err := db.Model(&models.Enrollment{}).
		Where("is_paid = ?", true).
		Select("COALESCE(SUM(payment_amount), 0)").
		Scan(&stats.EnrollmentRevenue).Error; err != nil {
		return nil, errors.Wrap(err, "enrollment revenue")
	}
	stats.OrderRevenue = roundMoney(stats.OrderRevenue)
	stats.EnrollmentRevenue = roundMoney(stats.EnrollmentRevenue)
	return &stats, nil
}

// TransactionReport renders settled orders and paid enrollments in the range
// as CSV.
func (s *AdminService) TransactionReport(ctx context.Context, start, end time.Time) ([]byte, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).
		Preload("User").
		Where("payment_status = ? AND status <> ? AND created_at BETWEEN ? AND ?",
			models.PaymentStatusCompleted, models.OrderStatusCancelled, start, end).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, errors.Wrap(err, "load report orders")
	}

	var enrollments []models.Enrollment
	if err := s.DB.WithContext(ctx).
		Preload("Course").
		Where("is_paid = ? AND created_at BETWEEN ? AND ?", true, start, end).
		Order("created_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, errors.Wrap(err, "load report enrollments")
	}

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)
	if err := w.Write([]string{"Reference ID", "Date", "Customer", "Amount", "Method", "Type", "Gateway Payment ID"}); err != nil {
		return nil, err
	}

	for _, o := range orders {
		customer := ""
		if o.User != nil {
			customer = o.User.FullName
		}
		row := []string{
			o.ID.String(),
			o.CreatedAt.Format("2006-01-02 15:04"),
			customer,
			fmt.Sprintf("%.2f", o.TotalAmount),
			o.PaymentMethod,
			"Order",
			deref(o.GatewayPaymentID),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	for _, e := range enrollments {
		title := ""
		if e.Course != nil {
			title = e.Course.Title
		}
		row := []string{
			e.ID.String(),
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.UserID.String(),
			fmt.Sprintf("%.2f", e.PaymentInfo.Amount),
			models.PaymentMethodRazorpay,
			"Course: " + title,
			deref(e.PaymentInfo.GatewayPaymentID),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
