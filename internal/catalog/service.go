package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/repo"
)

type queryProvider interface {
	ListServices(ctx context.Context, params repo.CatalogListParams) ([]repo.ServiceRecord, error)
	CountServices(ctx context.Context, params repo.CatalogListParams) (int64, error)
	GetService(ctx context.Context, id uuid.UUID) (repo.ServiceRecord, error)
	ListProducts(ctx context.Context, params repo.CatalogListParams) ([]repo.ProductRecord, error)
	CountProducts(ctx context.Context, params repo.CatalogListParams) (int64, error)
	GetProduct(ctx context.Context, id uuid.UUID) (repo.ProductRecord, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries      queryProvider
	cache        *Cache
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for catalog listings.
type ListParams struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

// ServiceItem is the public salon service payload.
type ServiceItem struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category,omitempty"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
}

// ProductItem is the public retail product payload.
type ProductItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category,omitempty"`
	Price    decimal.Decimal `json:"price"`
	InStock  bool            `json:"in_stock"`
}

// ListResult contains list data and pagination metadata.
type ListResult[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Query = strings.TrimSpace(values.Get("q"))
	params.Category = strings.TrimSpace(values.Get("category"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}

	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit
	return params, nil
}

// ListServices returns filtered salon services with pagination metadata.
func (s *Service) ListServices(ctx context.Context, params ListParams) (ListResult[ServiceItem], error) {
	key := s.cacheKey("services", params)
	if key != "" && s.cache != nil {
		var cached cachedList[ServiceItem]
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			return ListResult[ServiceItem]{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}

	repoParams := s.repoParams(params)
	total, err := s.queries.CountServices(ctx, repoParams)
	if err != nil {
		return ListResult[ServiceItem]{}, fmt.Errorf("count services: %w", err)
	}
	rows, err := s.queries.ListServices(ctx, repoParams)
	if err != nil {
		return ListResult[ServiceItem]{}, fmt.Errorf("list services: %w", err)
	}
	items := make([]ServiceItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ServiceItem{
			ID:              row.ID.String(),
			Name:            row.Name,
			Category:        row.Category,
			Price:           row.Price,
			DurationMinutes: row.DurationMinutes,
		})
	}
	if key != "" && s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cachedList[ServiceItem]{Items: items, Total: total})
	}
	return ListResult[ServiceItem]{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// ListProducts returns filtered retail products with pagination metadata.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ListResult[ProductItem], error) {
	key := s.cacheKey("products", params)
	if key != "" && s.cache != nil {
		var cached cachedList[ProductItem]
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			return ListResult[ProductItem]{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}

	repoParams := s.repoParams(params)
	total, err := s.queries.CountProducts(ctx, repoParams)
	if err != nil {
		return ListResult[ProductItem]{}, fmt.Errorf("count products: %w", err)
	}
	rows, err := s.queries.ListProducts(ctx, repoParams)
	if err != nil {
		return ListResult[ProductItem]{}, fmt.Errorf("list products: %w", err)
	}
	items := make([]ProductItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ProductItem{
			ID:       row.ID.String(),
			Name:     row.Name,
			Category: row.Category,
			Price:    row.Price,
			InStock:  row.Stock > 0,
		})
	}
	if key != "" && s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cachedList[ProductItem]{Items: items, Total: total})
	}
	return ListResult[ProductItem]{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// GetService returns a single salon service by id.
func (s *Service) GetService(ctx context.Context, rawID string) (ServiceItem, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return ServiceItem{}, badRequest("id", "id must be a valid UUID", err)
	}
	row, err := s.queries.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ServiceItem{}, notFound("service not found")
		}
		return ServiceItem{}, fmt.Errorf("get service: %w", err)
	}
	return ServiceItem{
		ID:              row.ID.String(),
		Name:            row.Name,
		Category:        row.Category,
		Price:           row.Price,
		DurationMinutes: row.DurationMinutes,
	}, nil
}

// GetProduct returns a single retail product by id.
func (s *Service) GetProduct(ctx context.Context, rawID string) (ProductItem, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return ProductItem{}, badRequest("id", "id must be a valid UUID", err)
	}
	row, err := s.queries.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ProductItem{}, notFound("product not found")
		}
		return ProductItem{}, fmt.Errorf("get product: %w", err)
	}
	return ProductItem{
		ID:       row.ID.String(),
		Name:     row.Name,
		Category: row.Category,
		Price:    row.Price,
		InStock:  row.Stock > 0,
	}, nil
}

type cachedList[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

func (s *Service) repoParams(params ListParams) repo.CatalogListParams {
	offset := (params.Page - 1) * params.Limit
	if offset < 0 {
		offset = 0
	}
	return repo.CatalogListParams{
		Category: params.Category,
		Search:   params.Query,
		Limit:    params.Limit,
		Offset:   offset,
	}
}

// cacheKey returns "" for filtered queries so only plain first pages are cached.
func (s *Service) cacheKey(kind string, params ListParams) string {
	if params.Query != "" || params.Category != "" {
		return ""
	}
	return fmt.Sprintf("catalog:%s:p%d:l%d", kind, params.Page, params.Limit)
}

func badRequest(field, message string, err error) error {
	return &common.AppError{
		Code:       common.CodeValidation,
		Message:    message,
		HTTPStatus: 400,
		Err:        err,
		Details:    map[string]any{"field": field},
	}
}

func notFound(message string) error {
	return &common.AppError{
		Code:       common.CodeNotFound,
		Message:    message,
		HTTPStatus: 404,
	}
}
