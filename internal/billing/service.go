package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/gescom-app/gescom/internal/catalog"
	"github.com/gescom-app/gescom/internal/clients"
	"github.com/gescom-app/gescom/internal/orders"
	"github.com/gescom-app/gescom/internal/settlement"
	"github.com/gescom-app/gescom/internal/shared"
)

// The document projection only reads, so it depends on the narrow slices
// of the repositories it needs.
type orderReader interface {
	Get(ctx context.Context, id int64) (*orders.Order, error)
}

type saleReader interface {
	GetSaleByOrder(ctx context.Context, orderID int64) (*settlement.Sale, error)
}

type clientReader interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

type itemReader interface {
	Get(ctx context.Context, id int64) (*catalog.Item, error)
}

// Service builds documents from order state.
type Service struct {
	orderRepo   orderReader
	saleRepo    saleReader
	clientRepo  clientReader
	catalogRepo itemReader
}

// NewService constructs a new Service.
func NewService(orderRepo orderReader, saleRepo saleReader, clientRepo clientReader, catalogRepo itemReader) *Service {
	return &Service{
		orderRepo:   orderRepo,
		saleRepo:    saleRepo,
		clientRepo:  clientRepo,
		catalogRepo: catalogRepo,
	}
}

// Document projects the order into a printable document. Every order can
// render a proforma; the invoice variant is only available once the order
// has been paid, since only then does an invoice number exist. An empty
// kind defaults to the invoice for paid orders and the proforma otherwise.
func (s *Service) Document(ctx context.Context, orderID int64, kind Kind) (*Document, error) {
	if kind != "" && kind != KindProforma && kind != KindInvoice {
		return nil, fmt.Errorf("%w: unknown document kind %q", shared.ErrValidation, kind)
	}

	order, err := s.orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status == orders.StatusDeleted || order.Deleted() {
		return nil, shared.ErrNotFound
	}
	if kind == "" {
		if order.Status == orders.StatusPaid {
			kind = KindInvoice
		} else {
			kind = KindProforma
		}
	}
	if kind == KindInvoice && order.Status != orders.StatusPaid {
		return nil, fmt.Errorf("%w: invoice requires a paid order", shared.ErrValidation)
	}

	client, err := s.clientRepo.Get(ctx, order.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	doc := Document{
		Kind:          kind,
		Number:        order.ProformaNumber,
		IssuedOn:      order.OrderDate,
		ClientName:    client.CompanyName,
		ClientAddress: client.Address,
		ClientTaxID:   client.TaxID,
	}

	if kind == KindInvoice {
		sale, err := s.saleRepo.GetSaleByOrder(ctx, order.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("%w: invoice requires a paid order", shared.ErrValidation)
			}
			return nil, fmt.Errorf("get sale: %w", err)
		}
		doc.Number = sale.InvoiceNumber
		doc.InvoiceNumber = sale.InvoiceNumber
		doc.IssuedOn = sale.SettledOn
	}

	for _, line := range order.Lines {
		item, err := s.catalogRepo.Get(ctx, line.ItemID)
		if err != nil {
			return nil, fmt.Errorf("get catalog item %d: %w", line.ItemID, err)
		}
		doc.Lines = append(doc.Lines, DocumentLine{
			Label:         item.Name,
			Reference:     item.Reference,
			Tariff:        line.Tariff,
			TariffDisplay: FormatAmount(line.Tariff),
			Quantity:      line.Quantity,
			Amount:        line.Amount(),
			AmountDisplay: FormatAmount(line.Amount()),
		})
	}

	doc.Total = order.Total()
	doc.TotalDisplay = FormatAmount(doc.Total)
	doc.TotalInWords = AmountInWords(doc.Total)
	return &doc, nil
}
