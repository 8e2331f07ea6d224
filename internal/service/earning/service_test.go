package earning

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakery-bliss/bakery/internal/entity"
	earningrepo "github.com/bakery-bliss/bakery/internal/repository/earning"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

type recordingStore struct {
	bakerID int64
	limit   int
	offset  int
}

func (r *recordingStore) ListByBaker(_ context.Context, bakerID int64, limit, offset int) ([]*entity.BakerEarning, int, error) {
	r.bakerID, r.limit, r.offset = bakerID, limit, offset
	return []*entity.BakerEarning{{BakerID: bakerID}}, 1, nil
}

func (r *recordingStore) Summary(_ context.Context, bakerID int64) (earningrepo.Summary, error) {
	r.bakerID = bakerID
	return earningrepo.Summary{BakerID: bakerID, Count: 2, Amount: decimal.RequireFromString("11.55")}, nil
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	junior := workflow.Actor{UserID: 20, Role: workflow.RoleJuniorBaker}

	t.Run("baker reads own earnings", func(t *testing.T) {
		store := &recordingStore{}
		svc := &Service{store: store}

		page, err := svc.List(ctx, junior, 0, 3, 10)

		require.NoError(t, err)
		assert.Equal(t, int64(20), store.bakerID)
		assert.Equal(t, 20, store.offset)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("baker cannot read a colleague", func(t *testing.T) {
		svc := &Service{store: &recordingStore{}}

		_, err := svc.List(ctx, junior, 21, 1, 10)

		assert.Equal(t, errorbank.KindForbidden, errorbank.From(err).Kind())
	})

	t.Run("customer has no earnings", func(t *testing.T) {
		svc := &Service{store: &recordingStore{}}

		_, err := svc.List(ctx, workflow.Actor{UserID: 1, Role: workflow.RoleCustomer}, 0, 1, 10)

		assert.Equal(t, errorbank.KindForbidden, errorbank.From(err).Kind())
	})

	t.Run("admin must name a baker", func(t *testing.T) {
		store := &recordingStore{}
		svc := &Service{store: store}
		admin := workflow.Actor{UserID: 99, Role: workflow.RoleAdmin}

		_, err := svc.List(ctx, admin, 0, 1, 10)
		assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())

		page, err := svc.List(ctx, admin, 20, 0, 1000)
		require.NoError(t, err)
		assert.Equal(t, maxPageSize, page.Limit)
		assert.Equal(t, 1, page.Page)
	})
}

func TestService_Summary(t *testing.T) {
	store := &recordingStore{}
	svc := &Service{store: store}

	sum, err := svc.Summary(context.Background(), workflow.Actor{UserID: 10, Role: workflow.RoleMainBaker}, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(10), store.bakerID)
	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, "11.55", sum.Amount.String())
}

var _ Store = (*earningrepo.Repository)(nil)
