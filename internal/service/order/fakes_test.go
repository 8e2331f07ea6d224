package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bakery-bliss/bakery/internal/cache"
	"github.com/bakery-bliss/bakery/internal/entity"
	"github.com/bakery-bliss/bakery/internal/messaging"
	repo "github.com/bakery-bliss/bakery/internal/repository/order"
)

type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	orders   map[int64]*entity.Order
	history  map[int64][]*entity.OrderStatusHistory
	earnings []*entity.BakerEarning
	gets     int
	lastList repo.ListFilter

	// beforeApply runs inside ApplyChange before the version check.
	beforeApply func(o *entity.Order)
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		orders:  make(map[int64]*entity.Order),
		history: make(map[int64][]*entity.OrderStatusHistory),
	}
}

func (m *memoryStore) put(o *entity.Order) *entity.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o.ID = m.nextID
	if o.Version == 0 {
		o.Version = 1
	}
	cp := *o
	m.orders[o.ID] = &cp
	return o
}

func (m *memoryStore) Create(_ context.Context, o *entity.Order, lines []repo.NewLine, shipping *entity.ShippingInfo) error {
	m.put(o)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range lines {
		l.Item.OrderID = o.ID
		o.Items = append(o.Items, l.Item)
	}
	o.Shipping = shipping
	cp := *o
	m.orders[o.ID] = &cp
	m.history[o.ID] = append(m.history[o.ID], &entity.OrderStatusHistory{OrderID: o.ID, ToStatus: o.Status, ActorRole: "customer"})
	return nil
}

func (m *memoryStore) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	o, ok := m.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memoryStore) GetByNumber(_ context.Context, number string) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	for _, o := range m.orders {
		if o.Number == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memoryStore) List(_ context.Context, f repo.ListFilter) ([]*entity.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = f
	var out []*entity.Order
	for _, o := range m.orders {
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.MainBakerID != nil && (o.MainBakerID == nil || *o.MainBakerID != *f.MainBakerID) {
			continue
		}
		if f.JuniorBakerID != nil && (o.JuniorBakerID == nil || *o.JuniorBakerID != *f.JuniorBakerID) {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memoryStore) ApplyChange(_ context.Context, c repo.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.orders[c.Order.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if m.beforeApply != nil {
		m.beforeApply(cur)
	}
	if cur.Version != c.ExpectedVersion {
		return repo.ErrConcurrentModification
	}
	cp := *c.Order
	cp.Version = c.ExpectedVersion + 1
	m.orders[cp.ID] = &cp
	if c.History != nil {
		m.history[cp.ID] = append(m.history[cp.ID], c.History)
	}
	m.earnings = append(m.earnings, c.Earnings...)
	c.Order.Version = cp.Version
	return nil
}

func (m *memoryStore) History(_ context.Context, id int64) ([]*entity.OrderStatusHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[id], nil
}

func (m *memoryStore) ListOverdue(_ context.Context, now time.Time, _ int) ([]*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Order
	for _, o := range m.orders {
		switch o.Status {
		case "pending", "processing", "quality_check":
		default:
			continue
		}
		if o.Deadline != nil && o.Deadline.Before(now) && o.OverdueNotified == nil {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memoryStore) MarkOverdueNotified(_ context.Context, ids []int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if o, ok := m.orders[id]; ok && o.OverdueNotified == nil {
			stamp := at
			o.OverdueNotified = &stamp
		}
	}
	return nil
}

type staticProducts map[int64]*entity.Product

func (p staticProducts) GetMany(_ context.Context, ids []int64) (map[int64]*entity.Product, error) {
	out := make(map[int64]*entity.Product)
	for _, id := range ids {
		if prod, ok := p[id]; ok {
			out[id] = prod
		}
	}
	return out, nil
}

// teams maps main baker id to junior baker ids.
type teams map[int64][]int64

func (t teams) IsTeamMember(_ context.Context, mainID, juniorID int64) (bool, error) {
	for _, id := range t[mainID] {
		if id == juniorID {
			return true, nil
		}
	}
	return false, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Add(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, key []byte, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockPublisher) Consume(ctx context.Context, handler messaging.Handler) error {
	return m.Called(ctx, handler).Error(0)
}

func (m *mockPublisher) Topic() string {
	return "bakery.orders.events"
}

// eventTypes decodes the envelope type of every published message.
func (m *mockPublisher) eventTypes() []string {
	var out []string
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		env, err := messaging.DecodeEnvelope(call.Arguments.Get(2).([]byte))
		if err != nil {
			continue
		}
		out = append(out, env.Type)
	}
	return out
}
