package billing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gescom-app/gescom/internal/catalog"
	"github.com/gescom-app/gescom/internal/clients"
	"github.com/gescom-app/gescom/internal/orders"
	"github.com/gescom-app/gescom/internal/settlement"
	"github.com/gescom-app/gescom/internal/shared"
)

type stubOrderReader struct{ order *orders.Order }

func (s *stubOrderReader) Get(ctx context.Context, id int64) (*orders.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.order, nil
}

type stubSaleReader struct{ sale *settlement.Sale }

func (s *stubSaleReader) GetSaleByOrder(ctx context.Context, orderID int64) (*settlement.Sale, error) {
	if s.sale == nil || s.sale.OrderID != orderID {
		return nil, shared.ErrNotFound
	}
	return s.sale, nil
}

type stubClientReader struct{ client *clients.Client }

func (s *stubClientReader) Get(ctx context.Context, id int64) (*clients.Client, error) {
	if s.client == nil || s.client.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.client, nil
}

type stubItemReader struct{ items map[int64]*catalog.Item }

func (s *stubItemReader) Get(ctx context.Context, id int64) (*catalog.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func fixtureOrder(status orders.Status) *orders.Order {
	o := &orders.Order{
		ID:             1,
		ProformaNumber: "P240601-001",
		OrderDate:      time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		ClientID:       7,
		Status:         status,
		Lines: []orders.Line{
			{ItemID: 1, Tariff: 1500000, Quantity: 1},
			{ItemID: 2, Tariff: 500, Quantity: 2},
		},
	}
	o.RecordStatus = shared.RecordPublished
	return o
}

func newTestService(order *orders.Order, sale *settlement.Sale) *Service {
	address := "Lot II Antananarivo"
	return NewService(
		&stubOrderReader{order: order},
		&stubSaleReader{sale: sale},
		&stubClientReader{client: &clients.Client{ID: 7, CompanyName: "Garage Rakoto", Address: &address}},
		&stubItemReader{items: map[int64]*catalog.Item{
			1: {ID: 1, Name: "Visite technique", Reference: "VT-STD"},
			2: {ID: 2, Name: "Diagnostic moteur", Reference: "DIAG-M"},
		}},
	)
}

func TestDocumentDefaultsToProformaWhilePending(t *testing.T) {
	svc := newTestService(fixtureOrder(orders.StatusPending), nil)

	doc, err := svc.Document(context.Background(), 1, "")
	require.NoError(t, err)

	assert.Equal(t, KindProforma, doc.Kind)
	assert.Equal(t, "P240601-001", doc.Number)
	assert.Equal(t, "Garage Rakoto", doc.ClientName)
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, "Visite technique", doc.Lines[0].Label)
	assert.Equal(t, int64(1501000), doc.Total)
}

func TestDocumentDefaultsToInvoiceOncePaid(t *testing.T) {
	sale := &settlement.Sale{
		ID:            9,
		OrderID:       1,
		InvoiceNumber: "F240602-001",
		SettledOn:     time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC),
		Amount:        1501000,
	}
	svc := newTestService(fixtureOrder(orders.StatusPaid), sale)

	doc, err := svc.Document(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, KindInvoice, doc.Kind)
	assert.Equal(t, "F240602-001", doc.Number)

	// A proforma can still be requested explicitly for a paid order.
	doc, err = svc.Document(context.Background(), 1, KindProforma)
	require.NoError(t, err)
	assert.Equal(t, KindProforma, doc.Kind)
	assert.Equal(t, "P240601-001", doc.Number)
}

func TestInvoiceRequiresPaidOrder(t *testing.T) {
	for _, status := range []orders.Status{orders.StatusPending, orders.StatusCancelled} {
		svc := newTestService(fixtureOrder(status), nil)
		_, err := svc.Document(context.Background(), 1, KindInvoice)
		assert.ErrorIs(t, err, shared.ErrValidation, "status %s", status)
	}
}

func TestInvoiceUsesSaleNumberAndDate(t *testing.T) {
	sale := &settlement.Sale{
		ID:            9,
		OrderID:       1,
		InvoiceNumber: "F240602-001",
		SettledOn:     time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC),
		Amount:        1501000,
	}
	svc := newTestService(fixtureOrder(orders.StatusPaid), sale)

	doc, err := svc.Document(context.Background(), 1, KindInvoice)
	require.NoError(t, err)

	assert.Equal(t, KindInvoice, doc.Kind)
	assert.Equal(t, "F240602-001", doc.Number)
	assert.Equal(t, sale.SettledOn, doc.IssuedOn)
}

func TestDocumentRejectsDeletedOrder(t *testing.T) {
	order := fixtureOrder(orders.StatusDeleted)
	order.RecordStatus = shared.RecordDeleted
	svc := newTestService(order, nil)

	_, err := svc.Document(context.Background(), 1, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDocumentRejectsUnknownKind(t *testing.T) {
	svc := newTestService(fixtureOrder(orders.StatusPending), nil)

	_, err := svc.Document(context.Background(), 1, Kind("RECU"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

// stripSeparators removes the no-break space variants CLDR uses for French
// digit grouping, so the assertions do not pin a specific Unicode revision.
func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
}

func TestFormatAmountFrenchGrouping(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "500", FormatAmount(500))

	grouped := FormatAmount(2500)
	assert.Equal(t, "2500", stripSeparators(grouped))
	assert.NotEqual(t, "2500", grouped, "thousands separator expected")

	grouped = FormatAmount(1501000)
	assert.Equal(t, "1501000", stripSeparators(grouped))
}
