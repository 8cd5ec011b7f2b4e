package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
)

// ServiceParams groups dependencies for the catalog service. Cache is
// optional; without it every read goes to the database.
type ServiceParams struct {
	Repo  *Repository
	Cache *Cache
	Logg  *logger.Logger
}

// Service exposes catalog reads to controllers.
type Service interface {
	ListProducts(ctx context.Context, filter ListFilter) (ProductPageDTO, error)
	GetProductBySlug(ctx context.Context, slug string) (ProductDetailDTO, error)
	ListFeatured(ctx context.Context) (ProductPageDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	ListBrands(ctx context.Context) ([]BrandDTO, error)
}

type service struct {
	repo  *Repository
	cache *Cache
	logg  *logger.Logger
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{
		repo:  params.Repo,
		cache: params.Cache,
		logg:  params.Logg,
	}, nil
}

// ListProducts returns a cursor-paginated listing, served from cache
// when the same filter was requested recently.
func (s *service) ListProducts(ctx context.Context, filter ListFilter) (ProductPageDTO, error) {
	if cached := s.cache.GetList(ctx, filter); cached != nil {
		return *cached, nil
	}
	page, err := s.repo.List(ctx, filter)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return ProductPageDTO{}, err
		}
		return ProductPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	s.cache.SetList(ctx, filter, page)
	return page, nil
}

// GetProductBySlug returns the full detail page for an active product.
func (s *service) GetProductBySlug(ctx context.Context, slug string) (ProductDetailDTO, error) {
	if slug == "" {
		return ProductDetailDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}
	if cached := s.cache.GetProductDetail(ctx, slug); cached != nil {
		return *cached, nil
	}
	detail, err := s.repo.FindDetailBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDetailDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ProductDetailDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	s.cache.SetProductDetail(ctx, slug, *detail)
	return *detail, nil
}

// ListFeatured returns the featured products shelf.
func (s *service) ListFeatured(ctx context.Context) (ProductPageDTO, error) {
	if cached := s.cache.GetFeatured(ctx); cached != nil {
		return *cached, nil
	}
	page, err := s.repo.List(ctx, ListFilter{FeaturedOnly: true})
	if err != nil {
		return ProductPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	s.cache.SetFeatured(ctx, page)
	return page, nil
}

// ListCategories returns the active taxonomy.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	if cached := s.cache.GetCategories(ctx); cached != nil {
		return cached, nil
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	s.cache.SetCategories(ctx, categories)
	return categories, nil
}

// ListBrands returns the active brands.
func (s *service) ListBrands(ctx context.Context) ([]BrandDTO, error) {
	if cached := s.cache.GetBrands(ctx); cached != nil {
		return cached, nil
	}
	brands, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	s.cache.SetBrands(ctx, brands)
	return brands, nil
}
