package order

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/config"
	"github.com/bakery-bliss/bakery/internal/database"
	"github.com/bakery-bliss/bakery/internal/entity"
)

// newSQLiteRepository opens a private in-memory database holding the order tables.
func newSQLiteRepository(t *testing.T) (*Repository, *database.Connections) {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	cfg := config.Config{Database: config.Database{Driver: "sqlite", WriterDSN: dsn, ReaderDSN: dsn, MaxOpenConns: 1}}

	lc := fxtest.NewLifecycle(t)
	conns, err := database.New(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	lc.RequireStart()
	t.Cleanup(lc.RequireStop)

	for _, model := range []any{
		(*entity.Order)(nil),
		(*entity.OrderItem)(nil),
		(*entity.ShippingInfo)(nil),
		(*entity.CustomCake)(nil),
		(*entity.OrderStatusHistory)(nil),
		(*entity.BakerEarning)(nil),
	} {
		_, err := conns.Writer.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	return NewRepository(conns), conns
}

func createOrder(t *testing.T, r *Repository, number string, deadline *time.Time) *entity.Order {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	head := int64(10)
	order := &entity.Order{
		Number:      number,
		CustomerID:  1,
		MainBakerID: &head,
		Status:      "pending",
		TotalAmount: decimal.RequireFromString("30.00"),
		IsRush:      true,
		Deadline:    deadline,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	lines := []NewLine{{Item: &entity.OrderItem{ProductID: int64Ptr(3), Name: "Sourdough", Quantity: 2, UnitPrice: decimal.RequireFromString("15.00")}}}
	shipping := &entity.ShippingInfo{RecipientName: "Ana", AddressLine: "1 Main St", City: "Lyon"}
	require.NoError(t, r.Create(context.Background(), order, lines, shipping))
	return order
}

func int64Ptr(v int64) *int64 { return &v }

func TestApplyChange_PersistsWorkflowColumns(t *testing.T) {
	ctx := context.Background()
	r, _ := newSQLiteRepository(t)
	order := createOrder(t, r, "BB-00000010", nil)

	assigned := *order
	assigned.JuniorBakerID = int64Ptr(7)
	assigned.UpdatedAt = order.UpdatedAt.Add(time.Minute)
	require.NoError(t, r.ApplyChange(ctx, Change{Order: &assigned, ExpectedVersion: 1}))

	started := assigned
	started.Status = "processing"
	require.NoError(t, r.ApplyChange(ctx, Change{
		Order:           &started,
		ExpectedVersion: 2,
		History:         &entity.OrderStatusHistory{FromStatus: "pending", ToStatus: "processing", ActorID: int64Ptr(7), ActorRole: "junior_baker"},
	}))

	got, err := r.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "processing", got.Status)
	require.NotNil(t, got.JuniorBakerID)
	assert.Equal(t, int64(7), *got.JuniorBakerID)
	require.NotNil(t, got.MainBakerID)
	assert.Equal(t, int64(10), *got.MainBakerID)
	assert.Equal(t, int64(3), got.Version)
	assert.True(t, assigned.UpdatedAt.Equal(got.UpdatedAt))
	require.NotNil(t, got.Shipping)
	assert.Len(t, got.Items, 1)

	history, err := r.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "processing", history[1].ToStatus)
}

func TestApplyChange_StoresAndClearsFeedback(t *testing.T) {
	ctx := context.Background()
	r, _ := newSQLiteRepository(t)
	order := createOrder(t, r, "BB-00000011", nil)

	rejected := *order
	rejected.Status = "processing"
	rejected.QualityFeedback = "too dry"
	require.NoError(t, r.ApplyChange(ctx, Change{Order: &rejected, ExpectedVersion: 1}))

	got, err := r.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "too dry", got.QualityFeedback)

	cleared := *got
	cleared.QualityFeedback = ""
	require.NoError(t, r.ApplyChange(ctx, Change{Order: &cleared, ExpectedVersion: got.Version}))

	got, err = r.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, got.QualityFeedback)
}

func TestApplyChange_StaleVersion(t *testing.T) {
	ctx := context.Background()
	r, conns := newSQLiteRepository(t)
	order := createOrder(t, r, "BB-00000012", nil)

	cancelled := *order
	cancelled.Status = "cancelled"
	require.NoError(t, r.ApplyChange(ctx, Change{Order: &cancelled, ExpectedVersion: 1}))
	assert.Equal(t, int64(2), cancelled.Version)

	stale := *order
	stale.Status = "processing"
	err := r.ApplyChange(ctx, Change{
		Order:           &stale,
		ExpectedVersion: 1,
		History:         &entity.OrderStatusHistory{FromStatus: "pending", ToStatus: "processing", ActorRole: "junior_baker"},
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.Equal(t, int64(1), stale.Version)

	got, err := r.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)
	assert.Equal(t, int64(2), got.Version)

	rows, err := conns.Reader.NewSelect().Model((*entity.OrderStatusHistory)(nil)).Where("order_id = ?", order.ID).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
}

func TestApplyChange_InsertsEarnings(t *testing.T) {
	ctx := context.Background()
	r, conns := newSQLiteRepository(t)
	order := createOrder(t, r, "BB-00000013", nil)

	delivered := *order
	delivered.Status = "delivered"
	delivered.JuniorBakerID = int64Ptr(7)
	require.NoError(t, r.ApplyChange(ctx, Change{
		Order:           &delivered,
		ExpectedVersion: 1,
		Earnings: []*entity.BakerEarning{
			{BakerID: 10, RoleInOrder: "main_baker", Percentage: decimal.RequireFromString("20"), BaseAmount: decimal.RequireFromString("6.00"), BonusAmount: decimal.RequireFromString("0.60"), Amount: decimal.RequireFromString("6.60")},
			{BakerID: 7, RoleInOrder: "junior_baker", Percentage: decimal.RequireFromString("15"), BaseAmount: decimal.RequireFromString("4.50"), BonusAmount: decimal.RequireFromString("0.45"), Amount: decimal.RequireFromString("4.95")},
		},
	}))

	var earnings []*entity.BakerEarning
	require.NoError(t, conns.Reader.NewSelect().Model(&earnings).Where("order_id = ?", order.ID).Order("baker_id ASC").Scan(ctx))
	require.Len(t, earnings, 2)
	assert.True(t, decimal.RequireFromString("4.95").Equal(earnings[0].Amount))
	assert.True(t, decimal.RequireFromString("6.60").Equal(earnings[1].Amount))

	got, err := r.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "delivered", got.Status)
}

func TestListOverdue_SkipsFlaggedOrders(t *testing.T) {
	ctx := context.Background()
	r, _ := newSQLiteRepository(t)
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)
	late := createOrder(t, r, "BB-00000014", &past)
	createOrder(t, r, "BB-00000015", &future)
	done := createOrder(t, r, "BB-00000016", &past)

	finished := *done
	finished.Status = "cancelled"
	require.NoError(t, r.ApplyChange(ctx, Change{Order: &finished, ExpectedVersion: 1}))

	overdue, err := r.ListOverdue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	require.NoError(t, r.MarkOverdueNotified(ctx, []int64{late.ID}, now))

	overdue, err = r.ListOverdue(ctx, now.Add(5*time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	got, err := r.GetByID(ctx, late.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OverdueNotified)
	assert.Equal(t, int64(1), got.Version)
}
