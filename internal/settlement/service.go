package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gescom-app/gescom/internal/numbering"
	"github.com/gescom-app/gescom/internal/orders"
	"github.com/gescom-app/gescom/internal/platform/db"
	"github.com/gescom-app/gescom/internal/shared"
)

// Recorder receives settlement metrics. A nil Recorder disables recording.
type Recorder interface {
	CountSettlement(outcome string)
	CountNumberingRetry()
}

// Service owns the settlement operation and sale queries.
type Service struct {
	repo    Repository
	metrics Recorder
	now     func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, metrics Recorder) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Settle pays a pending order. Inside one transaction it locks the order
// row, verifies it is still pending and has no sale yet, checks the cash
// register is active, allocates the invoice number under the scope lock,
// writes the sale with the order total frozen as its amount, and flips the
// order to paid. Settlement is not idempotent: a second call on the same
// order fails with shared.ErrAlreadySettled.
func (s *Service) Settle(ctx context.Context, req SettleRequest, actorID int64) (*Sale, error) {
	if req.OrderID == 0 {
		return nil, fmt.Errorf("%w: order is required", shared.ErrValidation)
	}
	if req.RegisterID == 0 {
		return nil, fmt.Errorf("%w: register is required", shared.ErrValidation)
	}

	settledOn := req.SettledOn
	if settledOn.IsZero() {
		settledOn = s.now()
	}

	var saleID int64
	attempt := 0
	err := numbering.WithRetry(ctx, numbering.DefaultMaxAttempts, db.IsUniqueViolation, func(ctx context.Context) error {
		attempt++
		if attempt > 1 && s.metrics != nil {
			s.metrics.CountNumberingRetry()
		}
		return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			order, err := repo.GetOrderForUpdate(ctx, req.OrderID)
			if err != nil {
				return fmt.Errorf("lock order: %w", err)
			}

			settled, err := repo.HasSaleForOrder(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("check existing sale: %w", err)
			}
			if settled {
				return fmt.Errorf("%w: order %s", shared.ErrAlreadySettled, order.ProformaNumber)
			}
			if order.Status != orders.StatusPending || order.Deleted() {
				return fmt.Errorf("%w: order %s is not pending", shared.ErrLocked, order.ProformaNumber)
			}

			register, err := repo.GetRegister(ctx, req.RegisterID)
			if err != nil {
				return fmt.Errorf("verify register: %w", err)
			}
			if register.Deleted() {
				return fmt.Errorf("%w: register %d", shared.ErrNotFound, register.ID)
			}

			scope := numbering.Scope(numbering.PrefixInvoice, settledOn)
			last, err := repo.LastInvoiceInScope(ctx, scope)
			if err != nil {
				return fmt.Errorf("read invoice scope: %w", err)
			}
			code, err := numbering.Next(last, numbering.PrefixInvoice, settledOn)
			if err != nil {
				return err
			}

			sale := Sale{
				OrderID:       order.ID,
				InvoiceNumber: code,
				SettledOn:     settledOn,
				RegisterID:    register.ID,
				Reference:     req.Reference,
				Amount:        order.Total(),
			}
			sale.StampCreate(actorID, s.now())

			id, err := repo.CreateSale(ctx, sale)
			if err != nil {
				return fmt.Errorf("create sale: %w", err)
			}
			saleID = id

			audit := order.Audit
			audit.StampUpdate(actorID, s.now())
			if err := repo.MarkOrderPaid(ctx, order.ID, audit); err != nil {
				return fmt.Errorf("mark order paid: %w", err)
			}
			return nil
		})
	})
	s.countOutcome(err)
	if err != nil {
		return nil, err
	}

	return s.repo.GetSale(ctx, saleID)
}

func (s *Service) countOutcome(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.CountSettlement("settled")
	case errors.Is(err, shared.ErrAlreadySettled):
		s.metrics.CountSettlement("already_settled")
	case errors.Is(err, shared.ErrLocked):
		s.metrics.CountSettlement("locked")
	default:
		s.metrics.CountSettlement("failed")
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.GetSale(ctx, id)
}

func (s *Service) GetByOrder(ctx context.Context, orderID int64) (*Sale, error) {
	return s.repo.GetSaleByOrder(ctx, orderID)
}

func (s *Service) List(ctx context.Context, req ListSalesRequest) ([]SaleWithDetails, int, int64, error) {
	return s.repo.List(ctx, req)
}
