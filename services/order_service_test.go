package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/learnhub/database/dbtest"
	"github.com/anjiri1684/learnhub/models"
	"github.com/anjiri1684/learnhub/payments"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "rzp_test_secret"

type fakeGateway struct {
	fail     bool
	requests []payments.OrderRequest
}

func (g *fakeGateway) CreateOrder(_ context.Context, req payments.OrderRequest) (*payments.GatewayOrder, error) {
	g.requests = append(g.requests, req)
	if g.fail {
		return nil, errors.New("gateway unavailable")
	}
	return &payments.GatewayOrder{
		ID:       "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Entity:   "order",
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

type orderFixture struct {
	db       *gorm.DB
	svc      *OrderService
	carts    *CartService
	gateway  *fakeGateway
	verifier *payments.SignatureVerifier
	mailer   *recordingMailer
	notifier *recordingNotifier
}

func newOrderFixture(t *testing.T) *orderFixture {
	db := dbtest.OpenTestDB(t)
	f := &orderFixture{
		db:       db,
		carts:    NewCartService(db),
		gateway:  &fakeGateway{},
		verifier: payments.NewSignatureVerifier(testSecret),
		mailer:   &recordingMailer{},
		notifier: &recordingNotifier{},
	}
	f.svc = NewOrderService(db, PaymentSettings{
		Gateway:  f.gateway,
		Verifier: f.verifier,
		KeyID:    "rzp_test_key",
		Currency: "INR",
	}, f.mailer, f.notifier)
	return f
}

// fillCart adds two lines: price 10 x 2 and price 5 x 1.
func (f *orderFixture) fillCart(t *testing.T, user models.User) {
	t.Helper()
	ctx := context.Background()
	book := seedProduct(t, f.db, "Notebook", 10)
	pen := seedProduct(t, f.db, "Pen", 5)
	_, err := f.carts.AddItem(ctx, user.ID, book.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, user.ID, pen.ID, 1)
	require.NoError(t, err)
}

func (f *orderFixture) orderCount(t *testing.T) int64 {
	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestOrderService_CashOnDelivery(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, user)

	checkout, err := f.svc.CreateOrder(ctx, user, models.PaymentMethodCOD)
	require.NoError(t, err)
	assert.Equal(t, 25.0, checkout.Order.TotalAmount)
	assert.Equal(t, models.PaymentStatusCompleted, checkout.Order.PaymentStatus)
	assert.Nil(t, checkout.GatewayOrder)
	assert.Len(t, checkout.Order.Items, 2)
	assert.Empty(t, f.gateway.requests)

	cart, err := f.carts.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 1, f.mailer.count())
}

func TestOrderService_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	user := seedUser(t, f.db, models.RoleStudent)

	_, err := f.svc.CreateOrder(context.Background(), user, models.PaymentMethodRazorpay)
	require.Error(t, err)
	assert.Equal(t, "Cart is empty", err.Error())
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Zero(t, f.orderCount(t))
	assert.Empty(t, f.gateway.requests)
}

func TestOrderService_UnknownPaymentMethod(t *testing.T) {
	f := newOrderFixture(t)
	user := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, user)

	_, err := f.svc.CreateOrder(context.Background(), user, "bitcoin")
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Zero(t, f.orderCount(t))
}

func TestOrderService_GatewayFailureWritesNothing(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.fail = true
	user := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, user)

	_, err := f.svc.CreateOrder(context.Background(), user, models.PaymentMethodRazorpay)
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Zero(t, f.orderCount(t))
}

func TestOrderService_GatewayCheckoutAndVerify(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, user)

	checkout, err := f.svc.CreateOrder(ctx, user, models.PaymentMethodRazorpay)
	require.NoError(t, err)
	require.NotNil(t, checkout.GatewayOrder)
	assert.Equal(t, "rzp_test_key", checkout.KeyID)
	assert.Equal(t, models.PaymentStatusPending, checkout.Order.PaymentStatus)
	assert.EqualValues(t, 2500, f.gateway.requests[0].Amount)
	assert.Equal(t, "INR", f.gateway.requests[0].Currency)

	cart, err := f.carts.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2, "cart stays until the payment is verified")

	gatewayOrderID := checkout.GatewayOrder.ID
	paymentID := "pay_29QQoUBi66xm2f"
	signature := f.verifier.Sign(gatewayOrderID, paymentID)

	order, err := f.svc.VerifyPayment(ctx, user, gatewayOrderID, paymentID, signature)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
	require.NotNil(t, order.GatewayPaymentID)
	assert.Equal(t, paymentID, *order.GatewayPaymentID)
	assert.NotNil(t, order.PaidAt)
	assert.Equal(t, 1, f.notifier.count(EventOrderPaid))
	assert.Equal(t, 1, f.mailer.count())

	cart, err = f.carts.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// replay is accepted but changes nothing
	again, err := f.svc.VerifyPayment(ctx, user, gatewayOrderID, paymentID, signature)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, again.PaymentStatus)
	assert.Equal(t, order.PaidAt.Unix(), again.PaidAt.Unix())
	assert.Equal(t, 1, f.notifier.count(EventOrderPaid))
	assert.Equal(t, 1, f.mailer.count())
}

func TestOrderService_MutatedSignatureLeavesOrderPending(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, user)

	checkout, err := f.svc.CreateOrder(ctx, user, models.PaymentMethodRazorpay)
	require.NoError(t, err)
	gatewayOrderID := checkout.GatewayOrder.ID
	paymentID := "pay_mutation"
	signature := f.verifier.Sign(gatewayOrderID, paymentID)

	for i := range signature {
		mutated := []byte(signature)
		if mutated[i] == '0' {
			mutated[i] = '1'
		} else {
			mutated[i] = '0'
		}
		_, err := f.svc.VerifyPayment(ctx, user, gatewayOrderID, paymentID, string(mutated))
		require.Error(t, err)
		require.Equal(t, KindUnauthorized, KindOf(err))
	}

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", checkout.Order.ID).Error)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Nil(t, stored.GatewayPaymentID)
	assert.Zero(t, f.notifier.count(EventOrderPaid))
}

func TestOrderService_VerifyOwnershipAndLookup(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, owner)

	checkout, err := f.svc.CreateOrder(ctx, owner, models.PaymentMethodRazorpay)
	require.NoError(t, err)

	stranger := seedUser(t, f.db, models.RoleStudent)
	sig := f.verifier.Sign(checkout.GatewayOrder.ID, "pay_x")
	_, err = f.svc.VerifyPayment(ctx, stranger, checkout.GatewayOrder.ID, "pay_x", sig)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = f.svc.VerifyPayment(ctx, owner, "order_missing", "pay_x", f.verifier.Sign("order_missing", "pay_x"))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestOrderService_CancelAndList(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, user)

	checkout, err := f.svc.CreateOrder(ctx, user, models.PaymentMethodRazorpay)
	require.NoError(t, err)

	cancelled, err := f.svc.CancelOrder(ctx, user.ID, checkout.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	_, err = f.svc.CancelOrder(ctx, user.ID, checkout.Order.ID)
	assert.Equal(t, KindConflict, KindOf(err))

	sig := f.verifier.Sign(checkout.GatewayOrder.ID, "pay_late")
	_, err = f.svc.VerifyPayment(ctx, user, checkout.GatewayOrder.ID, "pay_late", sig)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = f.svc.CancelOrder(ctx, uuid.New(), checkout.Order.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	mine, err := f.svc.ListMine(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.AdminList(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	_, err = f.svc.AdminList(ctx, "refunded")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestOrderService_PaidGatewayOrderCannotBeCancelled(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, user)

	checkout, err := f.svc.CreateOrder(ctx, user, models.PaymentMethodRazorpay)
	require.NoError(t, err)
	_, err = f.svc.VerifyPayment(ctx, user, checkout.GatewayOrder.ID, "pay_1", f.verifier.Sign(checkout.GatewayOrder.ID, "pay_1"))
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, user.ID, checkout.Order.ID)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestOrderService_CancelledOrderCannotBePaid(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, user)

	checkout, err := f.svc.CreateOrder(ctx, user, models.PaymentMethodRazorpay)
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, user.ID, checkout.Order.ID)
	require.NoError(t, err)

	gatewayOrderID := checkout.GatewayOrder.ID
	_, err = f.svc.VerifyPayment(ctx, user, gatewayOrderID, "pay_1", f.verifier.Sign(gatewayOrderID, "pay_1"))
	assert.Equal(t, KindConflict, KindOf(err))

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", checkout.Order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Nil(t, stored.GatewayPaymentID)
	assert.Zero(t, f.notifier.count(EventOrderPaid))
}

func TestOrderService_CancellationDuringVerifyWins(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, user)

	checkout, err := f.svc.CreateOrder(ctx, user, models.PaymentMethodRazorpay)
	require.NoError(t, err)

	// cancel the order after VerifyPayment has read it but before it settles
	var once sync.Once
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:cancel_order", func(tx *gorm.DB) {
		if tx.Statement.Table != "orders" {
			return
		}
		once.Do(func() {
			require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE orders SET status = ? WHERE id = ?", models.OrderStatusCancelled, checkout.Order.ID).Error)
		})
	}))

	gatewayOrderID := checkout.GatewayOrder.ID
	_, err = f.svc.VerifyPayment(ctx, user, gatewayOrderID, "pay_1", f.verifier.Sign(gatewayOrderID, "pay_1"))
	assert.Equal(t, KindConflict, KindOf(err))

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", checkout.Order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Zero(t, f.notifier.count(EventOrderPaid))
	assert.Zero(t, f.mailer.count())
}

func TestOrderService_ExpireStale(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, models.RoleStudent)
	f.fillCart(t, user)

	stale, err := f.svc.CreateOrder(ctx, user, models.PaymentMethodRazorpay)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", stale.Order.ID).
		UpdateColumn("created_at", time.Now().Add(-48*time.Hour)).Error)
	fresh, err := f.svc.CreateOrder(ctx, user, models.PaymentMethodRazorpay)
	require.NoError(t, err)

	n, err := f.svc.ExpireStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var expired, pending models.Order
	require.NoError(t, f.db.First(&expired, "id = ?", stale.Order.ID).Error)
	require.NoError(t, f.db.First(&pending, "id = ?", fresh.Order.ID).Error)
	assert.Equal(t, models.PaymentStatusExpired, expired.PaymentStatus)
	assert.Equal(t, models.PaymentStatusPending, pending.PaymentStatus)

	// a late but valid confirmation still settles the order
	order, err := f.svc.VerifyPayment(ctx, user, stale.GatewayOrder.ID, "pay_late", f.verifier.Sign(stale.GatewayOrder.ID, "pay_late"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
}

func TestOrderService_PriceSnapshot(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, models.RoleStudent)
	product := seedProduct(t, f.db, "Mug", 12.5)
	_, err := f.carts.AddItem(ctx, user.ID, product.ID, 2)
	require.NoError(t, err)

	checkout, err := f.svc.CreateOrder(ctx, user, models.PaymentMethodCOD)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", product.ID).Update("price", 99).Error)

	order, err := f.svc.GetMine(ctx, user.ID, checkout.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 12.5, order.Items[0].UnitPrice)
}
