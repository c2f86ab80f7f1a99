package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
)

// Service manages the product catalog, including the full lifecycle of
// uploaded product images under the upload directory.
type Service struct {
	db        *gorm.DB
	uploadDir string
}

func NewService(db *gorm.DB, uploadDir string) *Service {
	return &Service{db: db, uploadDir: uploadDir}
}

// ProductData carries create/update fields sourced from the multipart form.
type ProductData struct {
	Name        string
	Description string
	Price       float64
	ImageUrl    string
	StockQty    *int
	Active      *bool
}

// FindAll lists products newest-first. activeOnly=nil returns everything
// (admin view); true/false filters by the active flag.
func (s *Service) FindAll(ctx context.Context, activeOnly *bool) ([]domain.Product, error) {
	db := s.db.WithContext(ctx).Model(&domain.Product{})
	if activeOnly != nil {
		db = db.Where("active = ?", *activeOnly)
	}
	var products []domain.Product
	if err := db.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Create(ctx context.Context, data ProductData) (*domain.Product, error) {
	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if data.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}

	p := domain.Product{
		ID:          common.UUIDint64(),
		Name:        data.Name,
		Description: data.Description,
		Price:       data.Price,
		ImageUrl:    data.ImageUrl,
		Active:      true,
	}
	if data.StockQty != nil {
		if *data.StockQty < 0 {
			return nil, fmt.Errorf("%w: stock quantity must not be negative", domain.ErrValidation)
		}
		p.StockQty = *data.StockQty
	}
	if data.Active != nil {
		p.Active = *data.Active
	}

	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	zap.L().Info("product created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return &p, nil
}

func (s *Service) Update(ctx context.Context, id int64, data ProductData) (*domain.Product, error) {
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(data.Name); name != "" {
		p.Name = name
	}
	if data.Description != "" {
		p.Description = data.Description
	}
	if data.Price >= 0 {
		p.Price = data.Price
	}
	if data.StockQty != nil {
		if *data.StockQty < 0 {
			return nil, fmt.Errorf("%w: stock quantity must not be negative", domain.ErrValidation)
		}
		p.StockQty = *data.StockQty
	}
	if data.Active != nil {
		p.Active = *data.Active
	}
	if data.ImageUrl != "" {
		// A replacement image retires the previous file.
		if p.ImageUrl != "" && p.ImageUrl != data.ImageUrl {
			s.removeImageFile(p.ImageUrl)
		}
		p.ImageUrl = data.ImageUrl
	}
	p.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the product row and its uploaded image file, if any.
func (s *Service) Delete(ctx context.Context, id int64) error {
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if p.ImageUrl != "" {
		s.removeImageFile(p.ImageUrl)
	}

	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{}).Error
}

// SetStock is the admin inventory-correction path; it shares the
// non-negative invariant with the order decrement path.
func (s *Service) SetStock(ctx context.Context, id int64, qty int) (*domain.Product, error) {
	if qty < 0 {
		return nil, fmt.Errorf("%w: stock quantity must not be negative", domain.ErrValidation)
	}
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"stock_qty": qty, "updated_at": time.Now()}).Error; err != nil {
		return nil, err
	}
	p.StockQty = qty
	return p, nil
}

func (s *Service) removeImageFile(imageUrl string) {
	filename := path.Base(imageUrl)
	if filename == "" || filename == "." || filename == "/" {
		return
	}
	fullPath := path.Join(s.uploadDir, filename)
	if !common.FileExists(fullPath) {
		zap.L().Debug("product image file not found", zap.String("path", fullPath))
		return
	}
	if err := os.Remove(fullPath); err != nil {
		zap.L().Warn("failed to remove product image", zap.String("path", fullPath), zap.Error(err))
		return
	}
	zap.L().Info("removed product image", zap.String("path", fullPath))
}
