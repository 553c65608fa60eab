package services

import (
	"context"
	"math"

	"github.com/anjiri1684/learnhub/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartLine struct {
	models.CartItem
	LineTotal float64 `json:"line_total"`
}

type CartView struct {
	CartID uuid.UUID  `json:"cart_id"`
	Items  []CartLine `json:"items"`
	Total  float64    `json:"total"`
}

type CartService struct {
	DB *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{DB: db}
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// cartFor returns the user's cart, creating it on first use.
func cartFor(tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).Create(&cart).Error; err != nil {
		return nil, err
	}
	var stored models.Cart
	if err := tx.First(&stored, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func cartItems(tx *gorm.DB, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := tx.Preload("Product").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Order("cart_items.created_at ASC").
		Find(&items).Error
	return items, err
}

func clearCart(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Where("cart_id IN (?)", tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{}).Error
}

func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := cartFor(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	items, err := cartItems(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart items")
	}

	view := &CartView{CartID: cart.ID, Items: make([]CartLine, 0, len(items))}
	for _, item := range items {
		line := CartLine{CartItem: item}
		if item.Product != nil {
			line.LineTotal = roundMoney(item.Product.Price * float64(item.Quantity))
		}
		view.Items = append(view.Items, line)
		view.Total += line.LineTotal
	}
	view.Total = roundMoney(view.Total)
	return view, nil
}

// AddItem puts quantity units of a product in the cart, merging with an
// existing line.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, Validation("Quantity must be at least 1")
	}
	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, "id = ? AND is_active = ?", productID, true).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Product not found")
		}
		return nil, errors.Wrap(err, "load product")
	}

	cart, err := cartFor(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	item := models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: quantity}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("cart_items.quantity + ?", quantity)}),
	}).Create(&item).Error
	if err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}
	return s.Get(ctx, userID)
}

// SetQuantity overwrites a line's quantity; zero removes it.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 0 {
		return nil, Validation("Quantity cannot be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	result := s.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("product_id = ? AND cart_id IN (?)", productID,
			s.DB.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Update("quantity", quantity)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "update cart item")
	}
	if result.RowsAffected == 0 {
		return nil, NotFound("Item not in cart")
	}
	return s.Get(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	result := s.DB.WithContext(ctx).
		Where("product_id = ? AND cart_id IN (?)", productID,
			s.DB.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "remove cart item")
	}
	if result.RowsAffected == 0 {
		return nil, NotFound("Item not in cart")
	}
	return s.Get(ctx, userID)
}
