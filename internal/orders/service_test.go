package orders

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/gescom-app/gescom/internal/catalog"
	"github.com/gescom-app/gescom/internal/clients"
	"github.com/gescom-app/gescom/internal/masterdata/channels"
	"github.com/gescom-app/gescom/internal/numbering"
	"github.com/gescom-app/gescom/internal/shared"
)

// mockRepository keeps orders in memory. WithTx holds a mutex for the whole
// closure, which mirrors the row lock the real repository takes on the
// newest code of the counter scope.
type mockRepository struct {
	mu       sync.Mutex
	orders   map[int64]*Order
	lines    map[int64][]Line
	nextID   int64
	nextLine int64

	// failCreates makes the first N Create calls fail with a unique
	// violation, to exercise the retry path.
	failCreates int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders:   make(map[int64]*Order),
		lines:    make(map[int64][]Line),
		nextID:   1,
		nextLine: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, (*lockedRepo)(m))
}

// lockedRepo is the mock seen inside WithTx: same storage, lock already held.
type lockedRepo mockRepository

func (m *lockedRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *lockedRepo) Get(ctx context.Context, id int64) (*Order, error) {
	return (*mockRepository)(m).getLocked(id)
}

func (m *lockedRepo) LastProformaInScope(ctx context.Context, scope string) (string, error) {
	last, lastSeq := "", 0
	for _, o := range m.orders {
		if !strings.HasPrefix(o.ProformaNumber, scope) {
			continue
		}
		seq, err := numbering.Sequence(o.ProformaNumber)
		if err != nil {
			return "", err
		}
		if seq > lastSeq {
			last, lastSeq = o.ProformaNumber, seq
		}
	}
	return last, nil
}

func (m *lockedRepo) Create(ctx context.Context, o Order) (int64, error) {
	if m.failCreates > 0 {
		m.failCreates--
		return 0, &pgconn.PgError{Code: "23505", ConstraintName: "orders_proforma_number_key"}
	}
	for _, existing := range m.orders {
		if existing.ProformaNumber == o.ProformaNumber {
			return 0, &pgconn.PgError{Code: "23505", ConstraintName: "orders_proforma_number_key"}
		}
	}
	o.ID = m.nextID
	m.nextID++
	m.orders[o.ID] = &o
	return o.ID, nil
}

func (m *lockedRepo) UpdateFields(ctx context.Context, o Order) error {
	existing, ok := m.orders[o.ID]
	if !ok {
		return shared.ErrNotFound
	}
	o.ProformaNumber = existing.ProformaNumber
	o.Status = existing.Status
	m.orders[o.ID] = &o
	return nil
}

func (m *lockedRepo) InsertLine(ctx context.Context, line Line) (int64, error) {
	line.ID = m.nextLine
	m.nextLine++
	m.lines[line.OrderID] = append(m.lines[line.OrderID], line)
	return line.ID, nil
}

func (m *lockedRepo) DeleteLines(ctx context.Context, orderID int64) error {
	delete(m.lines, orderID)
	return nil
}

func (m *lockedRepo) UpdateStatus(ctx context.Context, id int64, status Status, audit shared.Audit) error {
	o, ok := m.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = status
	o.Audit = audit
	return nil
}

func (m *lockedRepo) List(ctx context.Context, req ListOrdersRequest) ([]OrderWithDetails, int, int64, error) {
	var out []OrderWithDetails
	var runningTotal int64
	for _, o := range m.orders {
		if req.Status != nil && o.Status != *req.Status {
			continue
		}
		copied := *o
		copied.Lines = m.lines[o.ID]
		d := OrderWithDetails{Order: copied, Total: copied.Total()}
		if o.Status != StatusCancelled && o.Status != StatusDeleted {
			runningTotal += d.Total
		}
		out = append(out, d)
	}
	return out, len(out), runningTotal, nil
}

func (m *mockRepository) getLocked(id int64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *o
	copied.Lines = m.lines[id]
	return &copied, nil
}

// Outside a transaction the mock still has to lock around its maps.

func (m *mockRepository) Get(ctx context.Context, id int64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id)
}

func (m *mockRepository) LastProformaInScope(ctx context.Context, scope string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedRepo)(m).LastProformaInScope(ctx, scope)
}

func (m *mockRepository) Create(ctx context.Context, o Order) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedRepo)(m).Create(ctx, o)
}

func (m *mockRepository) UpdateFields(ctx context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedRepo)(m).UpdateFields(ctx, o)
}

func (m *mockRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedRepo)(m).InsertLine(ctx, line)
}

func (m *mockRepository) DeleteLines(ctx context.Context, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedRepo)(m).DeleteLines(ctx, orderID)
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status Status, audit shared.Audit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedRepo)(m).UpdateStatus(ctx, id, status, audit)
}

func (m *mockRepository) List(ctx context.Context, req ListOrdersRequest) ([]OrderWithDetails, int, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedRepo)(m).List(ctx, req)
}

type stubClientRepo struct {
	client *clients.Client
}

func (s *stubClientRepo) Get(ctx context.Context, id int64) (*clients.Client, error) {
	if s.client == nil || s.client.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.client, nil
}

func (s *stubClientRepo) List(ctx context.Context, activeOnly bool, page shared.Page) ([]clients.Client, int, error) {
	return nil, 0, nil
}

func (s *stubClientRepo) Create(ctx context.Context, c clients.Client) (int64, error) { return 0, nil }
func (s *stubClientRepo) Update(ctx context.Context, c clients.Client) error          { return nil }
func (s *stubClientRepo) SetActive(ctx context.Context, id int64, active bool) error  { return nil }

type stubCatalogRepo struct {
	items map[int64]*catalog.Item
}

func (s *stubCatalogRepo) Get(ctx context.Context, id int64) (*catalog.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func (s *stubCatalogRepo) List(ctx context.Context, activeOnly bool) ([]catalog.Item, error) {
	return nil, nil
}

func (s *stubCatalogRepo) Create(ctx context.Context, item catalog.Item) (int64, error) {
	return 0, nil
}

func (s *stubCatalogRepo) Update(ctx context.Context, item catalog.Item) error { return nil }

type stubChannelRepo struct {
	channel *channels.Channel
}

func (s *stubChannelRepo) Get(ctx context.Context, id int64) (*channels.Channel, error) {
	if s.channel == nil || s.channel.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.channel, nil
}

func (s *stubChannelRepo) ListActive(ctx context.Context, channelType channels.Type) ([]channels.Channel, error) {
	return nil, nil
}

func (s *stubChannelRepo) Create(ctx context.Context, ch channels.Channel) (int64, error) {
	return 0, nil
}

func (s *stubChannelRepo) Update(ctx context.Context, ch channels.Channel) error        { return nil }
func (s *stubChannelRepo) SoftDelete(ctx context.Context, id int64, actorID int64) error { return nil }

func newTestService(repo Repository) *Service {
	svc := NewService(repo,
		&stubClientRepo{client: &clients.Client{ID: 7, CompanyName: "Garage Rakoto"}},
		&stubCatalogRepo{items: map[int64]*catalog.Item{
			1: {ID: 1, Name: "Visite technique", Reference: "VT-STD", Tariff: 500},
			2: {ID: 2, Name: "Diagnostic moteur", Reference: "DIAG-M", Tariff: 750},
		}},
		&stubChannelRepo{channel: &channels.Channel{ID: 3, Name: "Agence"}},
	)
	svc.now = func() time.Time { return time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateAssignsFirstProformaOfTheDay(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines: []CreateLineReq{
			{ItemID: 1, Quantity: 2},  // snapshots catalog tariff 500
			{ItemID: 2, Quantity: 2},  // snapshots catalog tariff 750
		},
	}, 42)
	require.NoError(t, err)

	assert.Equal(t, "P240601-001", order.ProformaNumber)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, int64(2500), order.Total())
	require.NotNil(t, order.CreatedBy)
	assert.Equal(t, int64(42), *order.CreatedBy)
	assert.Equal(t, shared.RecordPublished, order.RecordStatus)
}

func TestCreateSequencesWithinTheSameDay(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 7, OrderDate: day,
		Lines: []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 7, OrderDate: day,
		Lines: []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	require.NoError(t, err)

	assert.Equal(t, "P240601-001", first.ProformaNumber)
	assert.Equal(t, "P240601-002", second.ProformaNumber)
}

func TestCreateNextDayStartsFreshScope(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines:     []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	require.NoError(t, err)

	nextDay, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC),
		Lines:     []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	require.NoError(t, err)

	assert.Equal(t, "P240602-001", nextDay.ProformaNumber)
}

func TestCreateSequenceContinuesPastThreeDigits(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	// A busy day already past the zero-padded range. Lexicographically
	// "P240601-999" sorts above "P240601-1000"; the allocator must still
	// pick the numerically highest code and continue from there.
	for i, code := range []string{"P240601-999", "P240601-1000"} {
		id := int64(100 + i)
		repo.orders[id] = &Order{ID: id, ProformaNumber: code, OrderDate: day, ClientID: 7, Status: StatusPending}
	}

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 7, OrderDate: day,
		Lines: []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	require.NoError(t, err)
	assert.Equal(t, "P240601-1001", order.ProformaNumber)
}

func TestCreateRetriesOnUniqueViolation(t *testing.T) {
	repo := newMockRepository()
	repo.failCreates = 2
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines:     []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	require.NoError(t, err)
	assert.Equal(t, "P240601-001", order.ProformaNumber)
}

func TestCreatePersistentCollisionExhaustsSequence(t *testing.T) {
	repo := newMockRepository()
	repo.failCreates = 100
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines:     []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	assert.ErrorIs(t, err, shared.ErrSequenceExhausted)
}

func TestCreateRejectsUnknownClient(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 999,
		Lines:    []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateRejectsEmptyLines(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, err := svc.Create(context.Background(), CreateOrderRequest{ClientID: 7}, 42)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateTariffOverrideKept(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines:     []CreateLineReq{{ItemID: 1, Tariff: 300, Quantity: 4}},
	}, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), order.Total())
}

func TestConcurrentCreatesAllocateDistinctCodes(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	const n = 20
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := svc.Create(context.Background(), CreateOrderRequest{
				ClientID: 7, OrderDate: day,
				Lines: []CreateLineReq{{ItemID: 1, Quantity: 1}},
			}, 42)
			return err
		})
	}
	require.NoError(t, g.Wait())

	codes := make(map[string]bool)
	for _, o := range repo.orders {
		require.False(t, codes[o.ProformaNumber], "duplicate code %s", o.ProformaNumber)
		codes[o.ProformaNumber] = true
	}
	assert.Len(t, codes, n)
}

func TestUpdateReplacesLinesWholesale(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines:     []CreateLineReq{{ItemID: 1, Quantity: 2}},
	}, 42)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), order.ID, UpdateOrderRequest{
		Lines: []CreateLineReq{{ItemID: 2, Quantity: 3}},
	}, 43)
	require.NoError(t, err)

	require.Len(t, updated.Lines, 1)
	assert.Equal(t, int64(2), updated.Lines[0].ItemID)
	assert.Equal(t, int64(2250), updated.Total())
	assert.Equal(t, order.ProformaNumber, updated.ProformaNumber)
	assert.Equal(t, shared.RecordModified, updated.RecordStatus)
}

func TestUpdateLockedOrderRejected(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines:     []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	require.NoError(t, err)

	for _, status := range []Status{StatusPaid, StatusCancelled, StatusDeleted} {
		repo.orders[order.ID].Status = status
		_, err := svc.Update(context.Background(), order.ID, UpdateOrderRequest{
			Lines: []CreateLineReq{{ItemID: 1, Quantity: 2}},
		}, 43)
		assert.ErrorIs(t, err, shared.ErrLocked, "status %s", status)
	}
}

func TestCancelOnlyFromPending(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines:     []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), order.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Cancelled is terminal: a second cancel is rejected.
	_, err = svc.Cancel(context.Background(), order.ID, 42)
	assert.ErrorIs(t, err, shared.ErrLocked)
}

func TestSoftDeleteStampsActor(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID:  7,
		OrderDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines:     []CreateLineReq{{ItemID: 1, Quantity: 1}},
	}, 42)
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), order.ID, 99))

	deleted, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeleted, deleted.Status)
	assert.True(t, deleted.Deleted())
	require.NotNil(t, deleted.DeletedBy)
	assert.Equal(t, int64(99), *deleted.DeletedBy)

	// Soft-deleted rows are locked against further mutation.
	err = svc.SoftDelete(context.Background(), order.ID, 99)
	assert.ErrorIs(t, err, shared.ErrLocked)
}
