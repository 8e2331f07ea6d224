package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/database"
	"github.com/bakery-bliss/bakery/internal/entity"
	"github.com/bakery-bliss/bakery/internal/service/catalog"
	ordersvc "github.com/bakery-bliss/bakery/internal/service/order"
	"github.com/bakery-bliss/bakery/internal/workflow"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	orders *ordersvc.Service
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, orders *ordersvc.Service, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, orders: orders, logger: logger}
}

type userFixture struct {
	name  string
	email string
	role  workflow.Role
}

type productFixture struct {
	owner    string
	name     string
	category string
	price    string
}

var (
	users = []userFixture{
		{"Ada Admin", "admin@bakerybliss.test", workflow.RoleAdmin},
		{"Marie Croissant", "marie@bakerybliss.test", workflow.RoleMainBaker},
		{"Paul Levain", "paul@bakerybliss.test", workflow.RoleMainBaker},
		{"Jules Brioche", "jules@bakerybliss.test", workflow.RoleJuniorBaker},
		{"Lea Fougasse", "lea@bakerybliss.test", workflow.RoleJuniorBaker},
		{"Tom Eclair", "tom@bakerybliss.test", workflow.RoleJuniorBaker},
		{"Ana Customer", "ana@example.test", workflow.RoleCustomer},
		{"Ben Customer", "ben@example.test", workflow.RoleCustomer},
	}

	// teams maps a main baker's email to the juniors they supervise.
	teams = map[string][]string{
		"marie@bakerybliss.test": {"jules@bakerybliss.test", "lea@bakerybliss.test"},
		"paul@bakerybliss.test":  {"tom@bakerybliss.test"},
	}

	products = []productFixture{
		{"marie@bakerybliss.test", "Butter Croissant", "viennoiserie", "2.40"},
		{"marie@bakerybliss.test", "Pain au Chocolat", "viennoiserie", "2.80"},
		{"marie@bakerybliss.test", "Strawberry Tart", "pastry", "24.00"},
		{"paul@bakerybliss.test", "Sourdough Loaf", "bread", "6.50"},
		{"paul@bakerybliss.test", "Rye Boule", "bread", "5.90"},
	}
)

// Run seeds users, teams, products and a couple of demo orders.
func (s *Seeder) Run(ctx context.Context) error {
	ids, err := s.Users(ctx)
	if err != nil {
		return err
	}
	if err := s.Teams(ctx, ids); err != nil {
		return err
	}
	productIDs, err := s.Products(ctx, ids)
	if err != nil {
		return err
	}
	return s.Orders(ctx, ids, productIDs)
}

// Users inserts the fixture accounts and returns their ids by email.
func (s *Seeder) Users(ctx context.Context) (map[string]int64, error) {
	emails := make([]string, 0, len(users))
	for _, f := range users {
		u := &entity.User{Name: f.name, Email: f.email, Role: f.role.String(), CreatedAt: time.Now().UTC()}
		if _, err := s.db.NewInsert().Model(u).On("CONFLICT (email) DO NOTHING").Exec(ctx); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", f.email, err)
		}
		emails = append(emails, f.email)
	}

	var rows []entity.User
	if err := s.db.NewSelect().Model(&rows).Where("email IN (?)", bun.In(emails)).Scan(ctx); err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(rows))
	for _, u := range rows {
		ids[u.Email] = u.ID
	}
	s.log("seeded users", len(ids))
	return ids, nil
}

// Teams links the fixture juniors to their main bakers.
func (s *Seeder) Teams(ctx context.Context, ids map[string]int64) error {
	count := 0
	for lead, juniors := range teams {
		for _, junior := range juniors {
			row := &entity.BakerTeam{MainBakerID: ids[lead], JuniorBakerID: ids[junior], CreatedAt: time.Now().UTC()}
			if _, err := s.db.NewInsert().Model(row).On("CONFLICT (main_baker_id, junior_baker_id) DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("seed team of %s: %w", lead, err)
			}
			count++
		}
	}
	s.log("seeded teams", count)
	return nil
}

// Products creates the fixture catalog once per name and owner.
func (s *Seeder) Products(ctx context.Context, ids map[string]int64) (map[string]int64, error) {
	out := make(map[string]int64, len(products))
	for _, f := range products {
		owner := ids[f.owner]
		existing := new(entity.Product)
		err := s.db.NewSelect().Model(existing).
			Where("name = ?", f.name).
			Where("main_baker_id = ?", owner).
			Limit(1).
			Scan(ctx)
		if err == nil {
			out[f.name] = existing.ID
			continue
		}

		p := &entity.Product{
			MainBakerID: owner,
			Name:        f.name,
			Category:    f.category,
			Price:       decimal.RequireFromString(f.price),
			IsAvailable: true,
			CreatedAt:   time.Now().UTC(),
		}
		if _, err := s.db.NewInsert().Model(p).Returning("id").Exec(ctx); err != nil {
			return nil, fmt.Errorf("seed product %s: %w", f.name, err)
		}
		out[f.name] = p.ID
	}
	s.log("seeded products", len(out))
	return out, nil
}

// Orders places demo orders through the order service when the demo customer has none:
// one left pending and one walked through the whole workflow to delivered.
func (s *Seeder) Orders(ctx context.Context, ids map[string]int64, productIDs map[string]int64) error {
	customer := workflow.Actor{UserID: ids["ana@example.test"], Role: workflow.RoleCustomer}
	existing, err := s.db.NewSelect().Model((*entity.Order)(nil)).Where("customer_id = ?", customer.UserID).Count(ctx)
	if err != nil {
		return err
	}
	if existing > 0 {
		s.log("seeded orders", 0)
		return nil
	}

	shipping := entity.ShippingInfo{RecipientName: "Ana Customer", AddressLine: "12 Rue des Fleurs", City: "Lyon", PostalCode: "69001"}
	if _, err := s.orders.Checkout(ctx, customer, ordersvc.CheckoutInput{
		Items: []ordersvc.CheckoutItem{
			{ProductID: productIDs["Sourdough Loaf"], Quantity: 2},
			{Cake: &catalog.CakeSpec{Size: "medium", Flavor: "lemon", Layers: 2, Message: "Happy birthday"}, Quantity: 1},
		},
		Shipping: shipping,
	}); err != nil {
		return fmt.Errorf("seed pending order: %w", err)
	}

	order, err := s.orders.Checkout(ctx, customer, ordersvc.CheckoutInput{
		Items:    []ordersvc.CheckoutItem{{ProductID: productIDs["Strawberry Tart"], Quantity: 1}},
		Shipping: shipping,
		IsRush:   true,
	})
	if err != nil {
		return fmt.Errorf("seed rush order: %w", err)
	}

	head := workflow.Actor{UserID: ids["marie@bakerybliss.test"], Role: workflow.RoleMainBaker}
	junior := workflow.Actor{UserID: ids["jules@bakerybliss.test"], Role: workflow.RoleJuniorBaker}
	steps := []func() (*entity.Order, error){
		func() (*entity.Order, error) { return s.orders.Assign(ctx, head, order.Number, junior.UserID) },
		func() (*entity.Order, error) {
			return s.orders.Transition(ctx, junior, order.Number, workflow.StatusProcessing.String(), "")
		},
		func() (*entity.Order, error) {
			return s.orders.Transition(ctx, junior, order.Number, workflow.StatusQualityCheck.String(), "")
		},
		func() (*entity.Order, error) { return s.orders.Approve(ctx, head, order.Number, "looks great") },
		func() (*entity.Order, error) { return s.orders.Deliver(ctx, order.Number) },
	}
	for i, step := range steps {
		if _, err := step(); err != nil {
			return fmt.Errorf("seed order workflow step %d: %w", i+1, err)
		}
	}

	s.log("seeded orders", 2)
	return nil
}

func (s *Seeder) log(msg string, count int) {
	if s.logger != nil {
		s.logger.Info(msg, zap.Int("count", count))
	}
}
