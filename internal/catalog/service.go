package catalog

import (
	"context"
)

const (
	latestLimit      = 15
	bestSellingLimit = 4
)

// Service is the read side of the Catalog Store exposed over HTTP.
type Service interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)
	LatestProducts(ctx context.Context) ([]*Product, error)
	BestSelling(ctx context.Context) ([]*Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListProducts(ctx context.Context) ([]*Product, error) {
	return s.repo.List(ctx, ListOptions{})
}

func (s *service) LatestProducts(ctx context.Context) ([]*Product, error) {
	return s.repo.List(ctx, ListOptions{Sort: SortNewest, Limit: latestLimit})
}

func (s *service) BestSelling(ctx context.Context) ([]*Product, error) {
	return s.repo.List(ctx, ListOptions{Sort: SortBestSeller, Limit: bestSellingLimit})
}
