package services

import (
	"context"

	"github.com/anjiri1684/learnhub/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gt=0"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

type ProductService struct {
	DB *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{DB: db}
}

func (s *ProductService) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.DB.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, "id = ? AND is_active = ?", productID, true).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Product not found")
		}
		return nil, errors.Wrap(err, "load product")
	}
	return &product, nil
}

func (s *ProductService) Create(ctx context.Context, input ProductInput) (*models.Product, error) {
	if input.Name == "" || input.Price <= 0 {
		return nil, Validation("Product needs a name and a positive price")
	}
	product := models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		IsActive:    true,
	}
	if err := s.DB.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return &product, nil
}

func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, input ProductInput) (*models.Product, error) {
	if input.Name == "" || input.Price <= 0 {
		return nil, Validation("Product needs a name and a positive price")
	}
	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("Product not found")
		}
		return nil, errors.Wrap(err, "load product")
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.ImageURL = input.ImageURL
	if err := s.DB.WithContext(ctx).Save(&product).Error; err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return &product, nil
}

// Deactivate hides a product from the catalogue. Existing orders keep their
// price snapshot.
func (s *ProductService) Deactivate(ctx context.Context, productID uuid.UUID) error {
	result := s.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Update("is_active", false)
	if result.Error != nil {
		return errors.Wrap(result.Error, "deactivate product")
	}
	if result.RowsAffected == 0 {
		return NotFound("Product not found")
	}
	return nil
}
