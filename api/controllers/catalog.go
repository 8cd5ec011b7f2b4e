package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborline/storefront-backend/api/responses"
	"github.com/harborline/storefront-backend/api/validators"
	"github.com/harborline/storefront-backend/internal/catalog"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
)

func listFilterFromQuery(r *http.Request) (catalog.ListFilter, error) {
	query := r.URL.Query()
	filter := catalog.ListFilter{
		CategorySlug: query.Get("category"),
		BrandSlug:    query.Get("brand"),
		Search:       query.Get("search"),
		Sort:         query.Get("sort"),
		Cursor:       query.Get("cursor"),
	}

	var err error
	if filter.MinPrice, err = validators.QueryDecimal(r, "min_price"); err != nil {
		return catalog.ListFilter{}, err
	}
	if filter.MaxPrice, err = validators.QueryDecimal(r, "max_price"); err != nil {
		return catalog.ListFilter{}, err
	}
	if filter.InStockOnly, err = validators.QueryBool(r, "in_stock"); err != nil {
		return catalog.ListFilter{}, err
	}
	if filter.OnSaleOnly, err = validators.QueryBool(r, "on_sale"); err != nil {
		return catalog.ListFilter{}, err
	}
	if filter.FeaturedOnly, err = validators.QueryBool(r, "featured"); err != nil {
		return catalog.ListFilter{}, err
	}
	if filter.Limit, err = validators.QueryInt(r, "limit"); err != nil {
		return catalog.ListFilter{}, err
	}
	if filter.Offset, err = validators.QueryInt(r, "offset"); err != nil {
		return catalog.ListFilter{}, err
	}
	return filter, nil
}

func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter, err := listFilterFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListProducts(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required"))
			return
		}

		detail, err := svc.GetProductBySlug(ctx, slug)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func ListFeaturedProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		page, err := svc.ListFeatured(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		categories, err := svc.ListCategories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func ListBrands(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		brands, err := svc.ListBrands(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, brands)
	}
}
