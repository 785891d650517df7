package service

import (
	"github.com/google/uuid"

	"storefront/pkg/domain/model"
)

type CatalogService interface {
	ListProducts(filter model.ProductFilter) ([]model.Product, error)
	GetProduct(productID uuid.UUID) (*model.Product, error)
}

func NewCatalogService(repo model.ProductRepository) CatalogService {
	return &catalogService{repo: repo}
}

type catalogService struct {
	repo model.ProductRepository
}

func (s *catalogService) ListProducts(filter model.ProductFilter) ([]model.Product, error) {
	return s.repo.List(filter)
}

func (s *catalogService) GetProduct(productID uuid.UUID) (*model.Product, error) {
	return s.repo.Find(productID)
}
