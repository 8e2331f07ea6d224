package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/entity"
	repo "github.com/bakery-bliss/bakery/internal/repository/order"
	"github.com/bakery-bliss/bakery/internal/service/catalog"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

// CheckoutItem is one cart line. Exactly one of ProductID and Cake is set.
type CheckoutItem struct {
	ProductID int64
	Cake      *catalog.CakeSpec
	Quantity  int
}

// CheckoutInput is a customer's cart.
type CheckoutInput struct {
	Items    []CheckoutItem
	Shipping entity.ShippingInfo
	IsRush   bool
	Deadline *time.Time
}

// Checkout turns a cart into a pending order priced from the catalog.
func (s *Service) Checkout(ctx context.Context, actor workflow.Actor, in CheckoutInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Checkout", trace.WithAttributes(
		attribute.Int64("order.customer_id", actor.UserID),
		attribute.Int("order.lines", len(in.Items)),
	))
	defer span.End()

	if actor.Role != workflow.RoleCustomer {
		return nil, errorbank.Forbidden("only customers can place orders", errorbank.WithCode(CodeUnauthorized))
	}
	if len(in.Items) == 0 {
		return nil, errorbank.BadRequest("cart is empty", errorbank.WithCode("empty_cart"))
	}
	shipping, err := validateShipping(in.Shipping)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if in.Deadline != nil && !in.Deadline.After(now) {
		return nil, errorbank.BadRequest("deadline must be in the future")
	}

	products, err := s.resolveProducts(ctx, in.Items)
	if err != nil {
		return nil, s.fail(span, err)
	}

	lines := make([]repo.NewLine, 0, len(in.Items))
	total := decimal.Zero
	owners := make(map[int64]struct{})
	for i, item := range in.Items {
		line, err := s.buildLine(i, item, products, actor.UserID, now)
		if err != nil {
			return nil, err
		}
		if item.Cake == nil {
			owners[products[item.ProductID].MainBakerID] = struct{}{}
		}
		total = total.Add(line.Item.Subtotal())
		lines = append(lines, line)
	}

	order := &entity.Order{
		Number:      newOrderNumber(),
		CustomerID:  actor.UserID,
		Status:      workflow.StatusPending.String(),
		TotalAmount: total,
		IsRush:      in.IsRush,
		Deadline:    in.Deadline,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(owners) == 1 {
		for id := range owners {
			main := id
			order.MainBakerID = &main
		}
	}

	if err := s.store.Create(ctx, order, lines, shipping); err != nil {
		return nil, s.fail(span, err)
	}

	s.storeInCache(ctx, order)
	s.publish(ctx, EventOrderCreated, order, newOrderEvent(order, "", now))
	s.logger.Info("order placed",
		zap.Int64("id", order.ID),
		zap.String("number", order.Number),
		zap.String("total", total.StringFixed(2)),
	)
	return order, nil
}

func (s *Service) resolveProducts(ctx context.Context, items []CheckoutItem) (map[int64]*entity.Product, error) {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, item := range items {
		if item.Cake != nil || item.ProductID <= 0 {
			continue
		}
		if _, ok := seen[item.ProductID]; !ok {
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}
	if len(ids) == 0 {
		return map[int64]*entity.Product{}, nil
	}
	return s.products.GetMany(ctx, ids)
}

func (s *Service) buildLine(idx int, item CheckoutItem, products map[int64]*entity.Product, customerID int64, now time.Time) (repo.NewLine, error) {
	if item.Quantity <= 0 {
		return repo.NewLine{}, errorbank.BadRequest(fmt.Sprintf("item %d: quantity must be greater than zero", idx))
	}
	if (item.Cake == nil) == (item.ProductID <= 0) {
		return repo.NewLine{}, errorbank.BadRequest(fmt.Sprintf("item %d: exactly one of product_id and custom_cake is required", idx))
	}

	if item.Cake != nil {
		spec := item.Cake.Normalize()
		price, err := catalog.PriceCustomCake(spec)
		if err != nil {
			return repo.NewLine{}, errorbank.BadRequest(fmt.Sprintf("item %d: invalid custom cake", idx),
				errorbank.WithCode("invalid_cake"),
				errorbank.WithDetail("reason", err.Error()),
				errorbank.WithCause(err),
			)
		}
		return repo.NewLine{
			Cake: &entity.CustomCake{
				CustomerID: customerID,
				Size:       spec.Size,
				Flavor:     spec.Flavor,
				Frosting:   spec.Frosting,
				Layers:     spec.Layers,
				Message:    spec.Message,
				Price:      price,
				CreatedAt:  now,
			},
			Item: &entity.OrderItem{
				Name:      fmt.Sprintf("Custom %s %s cake", spec.Size, spec.Flavor),
				Quantity:  item.Quantity,
				UnitPrice: price,
				CreatedAt: now,
			},
		}, nil
	}

	p, ok := products[item.ProductID]
	if !ok {
		return repo.NewLine{}, errorbank.BadRequest(fmt.Sprintf("item %d: product %d does not exist", idx, item.ProductID),
			errorbank.WithCode("unknown_product"))
	}
	if !p.IsAvailable {
		return repo.NewLine{}, errorbank.BadRequest(fmt.Sprintf("item %d: %s is not available", idx, p.Name),
			errorbank.WithCode("product_unavailable"))
	}
	productID := p.ID
	return repo.NewLine{
		Item: &entity.OrderItem{
			ProductID: &productID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
			CreatedAt: now,
		},
	}, nil
}

func validateShipping(in entity.ShippingInfo) (*entity.ShippingInfo, error) {
	out := &entity.ShippingInfo{
		RecipientName: strings.TrimSpace(in.RecipientName),
		Phone:         strings.TrimSpace(in.Phone),
		AddressLine:   strings.TrimSpace(in.AddressLine),
		City:          strings.TrimSpace(in.City),
		PostalCode:    strings.TrimSpace(in.PostalCode),
		Notes:         strings.TrimSpace(in.Notes),
	}
	if out.RecipientName == "" || out.AddressLine == "" || out.City == "" {
		return nil, errorbank.BadRequest("shipping recipient, address and city are required", errorbank.WithCode("invalid_shipping"))
	}
	return out, nil
}
