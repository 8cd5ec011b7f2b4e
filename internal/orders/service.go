package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/internal/cart"
	"github.com/harborline/storefront-backend/internal/catalog"
	"github.com/harborline/storefront-backend/internal/coupons"
	"github.com/harborline/storefront-backend/internal/notifications"
	"github.com/harborline/storefront-backend/pkg/db"
	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/metrics"
	"github.com/harborline/storefront-backend/pkg/outbox"
	"github.com/harborline/storefront-backend/pkg/pagination"
	"github.com/harborline/storefront-backend/pkg/types"
)

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	DB         *db.Client
	Repo       *Repository
	CartRepo   *cart.Repository
	CouponRepo *coupons.Repository
	Outbox     *outbox.Service
	Cache      *catalog.Cache
	Metrics    *metrics.OrderMetrics
	Logg       *logger.Logger
}

// Service exposes the order workflow to controllers.
type Service interface {
	CreateOrder(ctx context.Context, actor types.Actor, input CreateOrderInput) (DTO, error)
	GetOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (DTO, error)
	ListOrders(ctx context.Context, actor types.Actor, params pagination.Params) (PageDTO, error)
	CancelOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (DTO, error)
	UpdateStatus(ctx context.Context, actor types.Actor, orderID uuid.UUID, input UpdateStatusInput) (DTO, error)
}

type service struct {
	db         *db.Client
	repo       *Repository
	cartRepo   *cart.Repository
	couponRepo *coupons.Repository
	outbox     *outbox.Service
	cache      *catalog.Cache
	metrics    *metrics.OrderMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order repo is required")
	}
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.CouponRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	return &service{
		db:         params.DB,
		repo:       params.Repo,
		cartRepo:   params.CartRepo,
		couponRepo: params.CouponRepo,
		outbox:     params.Outbox,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logg:       params.Logg,
		now:        time.Now,
	}, nil
}

type orderCreatedPayload struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
	PlacedAt    time.Time       `json:"placed_at"`
}

// CreateOrder turns the customer's basket into an order. Pricing,
// coupon consumption, stock adjustment, cart clearing and the outbox
// event all commit in one transaction or not at all.
func (s *service) CreateOrder(ctx context.Context, actor types.Actor, input CreateOrderInput) (DTO, error) {
	start := s.now()
	created, slugs, err := s.createOrderTx(ctx, actor, input)
	s.observePlacement(err, s.now().Sub(start))
	if err != nil {
		return DTO{}, err
	}

	for _, slug := range slugs {
		s.cache.InvalidateProduct(ctx, slug)
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(s.logg.WithCustomerID(ctx, actor.CustomerID.String()), created.ID.String())
		s.logg.Info(logCtx, "order placed")
	}
	return toDTO(*created), nil
}

func (s *service) createOrderTx(ctx context.Context, actor types.Actor, input CreateOrderInput) (*models.Order, []string, error) {
	if actor.CustomerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if len(input.BillingAddress) == 0 || len(input.ShippingAddress) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "billing and shipping addresses are required")
	}
	paymentMethod := enums.PaymentMethodCard
	if input.PaymentMethod != "" {
		parsed, err := enums.ParsePaymentMethod(input.PaymentMethod)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
		}
		paymentMethod = parsed
	}

	var created *models.Order
	var slugs []string

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		basket, err := s.resolveBasketTx(tx, actor, input)
		if err != nil {
			return err
		}
		if basket == nil || len(basket.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		subtotal := Subtotal(basket.Items)

		discount := decimal.Zero
		var couponID *uuid.UUID
		couponCode := ""
		if input.CouponCode != "" {
			coupon, err := s.couponRepo.FindByCodeTx(tx, input.CouponCode)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "coupon not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
			}
			// Minimum order amount is advisory and enforced by the
			// validate endpoint only.
			if ok, reason := coupons.IsValid(*coupon, s.now()); !ok {
				return pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon cannot be applied").
					WithDetails(map[string]any{"reason": string(reason)})
			}
			affected, err := s.couponRepo.ConsumeTx(tx, coupon.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume coupon")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon cannot be applied").
					WithDetails(map[string]any{"reason": string(coupons.ReasonUsageExhausted)})
			}
			discount = coupons.ComputeDiscount(*coupon, subtotal)
			couponID = &coupon.ID
			couponCode = coupon.Code
		}

		pricing := ComputePricing(subtotal, discount)

		orderNumber, err := s.reserveOrderNumberTx(tx)
		if err != nil {
			return err
		}

		order := models.Order{
			OrderNumber:     orderNumber,
			CustomerID:      actor.CustomerID,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			PaymentMethod:   paymentMethod,
			Subtotal:        pricing.Subtotal,
			TaxAmount:       pricing.Tax,
			ShippingAmount:  pricing.Shipping,
			DiscountAmount:  pricing.Discount,
			TotalAmount:     pricing.Total,
			CouponID:        couponID,
			CouponCode:      couponCode,
			BillingAddress:  input.BillingAddress,
			ShippingAddress: input.ShippingAddress,
			Notes:           input.Notes,
		}

		itemCount := 0
		productIDs := make([]uuid.UUID, 0, len(basket.Items))
		for _, line := range basket.Items {
			snapshot := models.OrderItem{
				ProductID:  line.ProductID,
				VariantID:  line.VariantID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				TotalPrice: line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
			}
			if line.Product != nil {
				snapshot.ProductName = line.Product.Name
				snapshot.ProductSKU = line.Product.SKU
			}
			if line.Variant != nil {
				snapshot.VariantName = line.Variant.Name
			}
			order.Items = append(order.Items, snapshot)
			itemCount += line.Quantity
			productIDs = append(productIDs, line.ProductID)
		}

		if err := s.repo.CreateTx(tx, &order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		// Stock is checked when items enter the cart, not here. The
		// decrements have no floor, so a concurrent checkout drives
		// stock negative instead of failing the placement.
		for _, line := range basket.Items {
			if line.VariantID != nil {
				if err := s.repo.DecrementVariantStockTx(tx, *line.VariantID, line.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust variant stock")
				}
				continue
			}
			tracks := line.Product != nil && line.Product.TrackInventory
			if line.Product == nil {
				tracks, err = s.repo.ProductTracksInventoryTx(tx, line.ProductID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
				}
			}
			if !tracks {
				continue
			}
			if err := s.repo.DecrementProductStockTx(tx, line.ProductID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust product stock")
			}
		}

		if err := s.cartRepo.ClearItemsTx(tx, basket.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		slugs, err = s.repo.SlugsForProductsTx(tx, productIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve product slugs")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Topic:         notifications.OrderChannel(actor.CustomerID),
			Actor:         &outbox.ActorRef{CustomerID: actor.CustomerID, Role: string(actor.Role)},
			Data: orderCreatedPayload{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Status:      order.Status.String(),
				TotalAmount: order.TotalAmount,
				ItemCount:   itemCount,
				PlacedAt:    s.now(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order event")
		}

		created = &order
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, slugs, nil
}

// GetOrder returns one order. Customers only see their own.
func (s *service) GetOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (DTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.IsStaff() && order.CustomerID != actor.CustomerID {
		return DTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return toDTO(*order), nil
}

// ListOrders returns the actor's order history, newest first.
func (s *service) ListOrders(ctx context.Context, actor types.Actor, params pagination.Params) (PageDTO, error) {
	if actor.CustomerID == uuid.Nil {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, nextCursor, err := s.repo.ListByCustomer(ctx, actor.CustomerID, params)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return PageDTO{}, err
		}
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := PageDTO{Items: make([]DTO, 0, len(rows)), NextCursor: nextCursor}
	for _, row := range rows {
		page.Items = append(page.Items, toDTO(row))
	}
	return page, nil
}

// CancelOrder cancels the customer's own order and restores stock.
// Consumed coupon budget is deliberately not returned.
func (s *service) CancelOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (DTO, error) {
	var cancelled *models.Order
	var slugs []string

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDTx(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !actor.IsStaff() && order.CustomerID != actor.CustomerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !CanCancel(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		oldStatus := order.Status
		if err := s.repo.UpdateFieldsTx(tx, order.ID, map[string]any{
			"status": enums.OrderStatusCancelled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if err := s.restoreStockTx(tx, order.Items); err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, 0, len(order.Items))
		for _, item := range order.Items {
			productIDs = append(productIDs, item.ProductID)
		}
		slugs, err = s.repo.SlugsForProductsTx(tx, productIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve product slugs")
		}

		order.Status = enums.OrderStatusCancelled
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Topic:         notifications.OrderChannel(order.CustomerID),
			Actor:         &outbox.ActorRef{CustomerID: actor.CustomerID, Role: string(actor.Role)},
			Data:          notifications.NewStatusUpdate(*order, oldStatus, enums.OrderStatusCancelled, s.now()),
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order event")
		}

		cancelled = order
		return nil
	})
	if err != nil {
		return DTO{}, err
	}

	s.metrics.IncStatusChange(enums.OrderStatusCancelled.String())
	for _, slug := range slugs {
		s.cache.InvalidateProduct(ctx, slug)
	}
	return toDTO(*cancelled), nil
}

// UpdateStatus is the back-office transition endpoint.
func (s *service) UpdateStatus(ctx context.Context, actor types.Actor, orderID uuid.UUID, input UpdateStatusInput) (DTO, error) {
	if !actor.IsStaff() {
		return DTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}
	target, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}

	var updated *models.Order
	var slugs []string

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDTx(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !CanTransition(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{
					"from": order.Status.String(),
					"to":   target.String(),
				})
		}

		oldStatus := order.Status
		now := s.now()
		fields := map[string]any{"status": target}
		switch target {
		case enums.OrderStatusShipped:
			fields["shipped_at"] = now
			if input.TrackingNumber != "" {
				fields["tracking_number"] = input.TrackingNumber
			}
		case enums.OrderStatusDelivered:
			fields["delivered_at"] = now
		}
		if err := s.repo.UpdateFieldsTx(tx, order.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if target == enums.OrderStatusCancelled {
			if err := s.restoreStockTx(tx, order.Items); err != nil {
				return err
			}
			productIDs := make([]uuid.UUID, 0, len(order.Items))
			for _, item := range order.Items {
				productIDs = append(productIDs, item.ProductID)
			}
			slugs, err = s.repo.SlugsForProductsTx(tx, productIDs)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve product slugs")
			}
		}

		order.Status = target
		if target == enums.OrderStatusShipped {
			order.ShippedAt = &now
			if input.TrackingNumber != "" {
				order.TrackingNumber = input.TrackingNumber
			}
		}
		if target == enums.OrderStatusDelivered {
			order.DeliveredAt = &now
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Topic:         notifications.OrderChannel(order.CustomerID),
			Actor:         &outbox.ActorRef{CustomerID: actor.CustomerID, Role: string(actor.Role)},
			Data:          notifications.NewStatusUpdate(*order, oldStatus, target, now),
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order event")
		}

		updated = order
		return nil
	})
	if err != nil {
		return DTO{}, err
	}

	s.metrics.IncStatusChange(target.String())
	for _, slug := range slugs {
		s.cache.InvalidateProduct(ctx, slug)
	}
	return toDTO(*updated), nil
}

func (s *service) resolveBasketTx(tx *gorm.DB, actor types.Actor, input CreateOrderInput) (*models.Cart, error) {
	if input.CartID == nil {
		basket, err := s.cartRepo.FindByOwnerTx(tx, cart.Owner{CustomerID: &actor.CustomerID})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		return basket, nil
	}

	basket, err := s.cartRepo.FindByIDTx(tx, *input.CartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if basket == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	switch {
	case basket.CustomerID != nil:
		if *basket.CustomerID != actor.CustomerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another customer")
		}
	case input.SessionKey == "" || basket.SessionKey != input.SessionKey:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another session")
	}
	return basket, nil
}

// reserveOrderNumberTx generates a candidate and regenerates on the
// vanishingly rare collision. The unique index remains the backstop.
func (s *service) reserveOrderNumberTx(tx *gorm.DB) (string, error) {
	const attempts = 3
	for i := 0; i < attempts; i++ {
		candidate, err := GenerateOrderNumber()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		var count int64
		if err := tx.Model(&models.Order{}).Where("order_number = ?", candidate).Count(&count).Error; err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order number")
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not reserve an order number")
}

func (s *service) restoreStockTx(tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		if item.VariantID != nil {
			if err := s.repo.RestoreVariantStockTx(tx, *item.VariantID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore variant stock")
			}
			continue
		}
		if err := s.repo.RestoreProductStockTx(tx, item.ProductID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore product stock")
		}
	}
	return nil
}

func (s *service) observePlacement(err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		if typed := pkgerrors.As(err); typed != nil {
			switch typed.Code() {
			case pkgerrors.CodeCouponInvalid:
				outcome = "coupon_invalid"
			case pkgerrors.CodeValidation, pkgerrors.CodeNotFound, pkgerrors.CodeUnauthorized:
				outcome = "rejected"
			}
		}
	}
	s.metrics.ObservePlacement(outcome, duration)
}
