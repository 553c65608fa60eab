package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/learnhub/models"
	"github.com/anjiri1684/learnhub/notifications"
	"github.com/anjiri1684/learnhub/payments"
	"github.com/anjiri1684/learnhub/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type OrderCheckout struct {
	Order        *models.Order          `json:"order"`
	GatewayOrder *payments.GatewayOrder `json:"gateway_order,omitempty"`
	KeyID        string                 `json:"key_id,omitempty"`
}

type OrderService struct {
	DB       *gorm.DB
	Payments PaymentSettings
	Mailer   notifications.Mailer
	Notifier Notifier
}

func NewOrderService(db *gorm.DB, settings PaymentSettings, mailer notifications.Mailer, notifier Notifier) *OrderService {
	if mailer == nil {
		mailer = notifications.LogMailer{}
	}
	return &OrderService{
		DB:       db,
		Payments: settings,
		Mailer:   mailer,
		Notifier: notifierOrNop(notifier),
	}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items").Preload("Items.Product")
}

// CreateOrder checks out the user's cart. Gateway orders are created remotely
// before anything is stored and stay pending until verified; cash on delivery
// completes at once and empties the cart in the same transaction.
func (s *OrderService) CreateOrder(ctx context.Context, user models.User, paymentMethod string) (*OrderCheckout, error) {
	if paymentMethod != models.PaymentMethodRazorpay && paymentMethod != models.PaymentMethodCOD {
		return nil, Validation("payment_method must be one of: razorpay, cod")
	}

	lines, err := cartItems(s.DB.WithContext(ctx), user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	order := models.Order{
		UserID:        user.ID,
		Currency:      s.Payments.currency(),
		PaymentMethod: paymentMethod,
		Status:        models.OrderStatusPlaced,
	}
	var total float64
	for _, line := range lines {
		if line.Product == nil || !line.Product.IsActive {
			return nil, Conflict("A product in your cart is no longer available")
		}
		total += line.Product.Price * float64(line.Quantity)
		order.Items = append(order.Items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		})
	}
	order.TotalAmount = roundMoney(total)

	if paymentMethod == models.PaymentMethodCOD {
		order.PaymentStatus = models.PaymentStatusCompleted
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			return clearCart(tx, user.ID)
		})
		if err != nil {
			return nil, errors.Wrap(err, "place cash order")
		}
		log.Printf("✅ Cash-on-delivery order %s placed for user %s", order.ID, user.ID)
		s.Mailer.Send(user.FullName, user.Email, "Your order has been placed", notifications.OrderPlacedHTML(orderEmail(user, &order)))
		return &OrderCheckout{Order: &order}, nil
	}

	gatewayOrder, err := s.Payments.Gateway.CreateOrder(ctx, payments.OrderRequest{
		Amount:   payments.ToMinorUnits(order.TotalAmount),
		Currency: order.Currency,
		Receipt:  utils.GenerateReceipt("ord"),
		Notes:    map[string]string{"user_id": user.ID.String()},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gateway order")
	}

	order.PaymentStatus = models.PaymentStatusPending
	order.GatewayOrderID = &gatewayOrder.ID
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "save pending order")
	}
	return &OrderCheckout{Order: &order, GatewayOrder: gatewayOrder, KeyID: s.Payments.KeyID}, nil
}

// VerifyPayment settles a gateway order after checking the payment signature.
// The pending to completed transition happens at most once; a replay of a
// valid confirmation succeeds without side effects.
func (s *OrderService) VerifyPayment(ctx context.Context, user models.User, gatewayOrderID, gatewayPaymentID, signature string) (*models.Order, error) {
	if !s.Payments.Verifier.Verify(gatewayOrderID, gatewayPaymentID, signature) {
		return nil, ErrPaymentVerification
	}

	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, "gateway_order_id = ?", gatewayOrderID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Order not found")
		}
		return nil, errors.Wrap(err, "load order")
	}
	if order.UserID != user.ID {
		return nil, Forbidden("This order belongs to another user")
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, Conflict("Order was cancelled")
	}

	var transitioned bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ? AND payment_status <> ?", order.ID, models.OrderStatusPlaced, models.PaymentStatusCompleted).
			Updates(map[string]interface{}{
				"payment_status":     models.PaymentStatusCompleted,
				"gateway_payment_id": gatewayPaymentID,
				"paid_at":            now,
				"updated_at":         now,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "settle order")
		}
		transitioned = result.RowsAffected == 1
		if !transitioned {
			// either a replay of a settled order or a cancellation that won the race
			var current models.Order
			if err := tx.Select("status", "payment_status").First(&current, "id = ?", order.ID).Error; err != nil {
				return errors.Wrap(err, "reload order status")
			}
			if current.PaymentStatus != models.PaymentStatusCompleted {
				return Conflict("Order was cancelled")
			}
		}
		if err := clearCart(tx, user.ID); err != nil {
			return errors.Wrap(err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := withItems(s.DB.WithContext(ctx)).First(&order, "id = ?", order.ID).Error; err != nil {
		return nil, errors.Wrap(err, "reload order")
	}

	if transitioned {
		log.Printf("✅ Payment %s verified for order %s", gatewayPaymentID, order.ID)
		s.Notifier.Notify(user.ID, EventOrderPaid, map[string]interface{}{
			"order_id":     order.ID,
			"total_amount": order.TotalAmount,
			"currency":     order.Currency,
		})
		s.Mailer.Send(user.FullName, user.Email, "Payment received", notifications.OrderPaidHTML(orderEmail(user, &order)))
	}
	return &order, nil
}

func orderEmail(user models.User, order *models.Order) notifications.OrderEmail {
	return notifications.OrderEmail{
		Name:     user.FullName,
		OrderID:  order.ID.String(),
		Currency: order.Currency,
		Amount:   order.TotalAmount,
	}
}

// CancelOrder cancels a placed order. Orders paid through the gateway cannot
// be cancelled here.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetMine(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, Conflict("Order is already cancelled")
	}
	if order.PaymentStatus == models.PaymentStatusCompleted && order.PaymentMethod != models.PaymentMethodCOD {
		return nil, Conflict("Paid orders cannot be cancelled")
	}

	query := s.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ? AND status = ?", order.ID, models.OrderStatusPlaced)
	if order.PaymentMethod != models.PaymentMethodCOD {
		query = query.Where("payment_status <> ?", models.PaymentStatusCompleted)
	}
	result := query.Updates(map[string]interface{}{"status": models.OrderStatusCancelled, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "cancel order")
	}
	if result.RowsAffected == 0 {
		return nil, Conflict("Order can no longer be cancelled")
	}
	return s.GetMine(ctx, userID, orderID)
}

func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := withItems(s.DB.WithContext(ctx)).Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

func (s *OrderService) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := withItems(s.DB.WithContext(ctx)).First(&order, "id = ? AND user_id = ?", orderID, userID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Order not found")
		}
		return nil, errors.Wrap(err, "load order")
	}
	return &order, nil
}

// AdminList returns every order, optionally filtered by payment status.
func (s *OrderService) AdminList(ctx context.Context, paymentStatus string) ([]models.Order, error) {
	query := withItems(s.DB.WithContext(ctx)).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "full_name", "email") })
	if paymentStatus != "" {
		switch paymentStatus {
		case models.PaymentStatusPending, models.PaymentStatusCompleted, models.PaymentStatusExpired:
		default:
			return nil, Validation(fmt.Sprintf("unknown payment status %q", paymentStatus))
		}
		query = query.Where("payment_status = ?", paymentStatus)
	}
	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, errors.Wrap(err, "list all orders")
	}
	return orders, nil
}

// ExpireStale marks gateway orders that stayed pending longer than ttl as
// expired. A valid verification arriving later still completes them.
func (s *OrderService) ExpireStale(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	result := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("payment_method = ? AND payment_status = ? AND created_at < ?",
			models.PaymentMethodRazorpay, models.PaymentStatusPending, cutoff).
		Updates(map[string]interface{}{"payment_status": models.PaymentStatusExpired, "updated_at": time.Now()})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "expire stale orders")
	}
	return result.RowsAffected, nil
}
