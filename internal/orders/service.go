package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/gescom-app/gescom/internal/catalog"
	"github.com/gescom-app/gescom/internal/clients"
	"github.com/gescom-app/gescom/internal/masterdata/channels"
	"github.com/gescom-app/gescom/internal/numbering"
	"github.com/gescom-app/gescom/internal/platform/db"
	"github.com/gescom-app/gescom/internal/shared"
)

// Service owns the order lifecycle: creation with proforma numbering,
// wholesale line replacement while unlocked, cancellation and soft delete.
type Service struct {
	repo        Repository
	clientRepo  clients.Repository
	catalogRepo catalog.Repository
	channelRepo channels.Repository
	now         func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, clientRepo clients.Repository, catalogRepo catalog.Repository, channelRepo channels.Repository) *Service {
	return &Service{
		repo:        repo,
		clientRepo:  clientRepo,
		catalogRepo: catalogRepo,
		channelRepo: channelRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the request, snapshots tariffs from the catalog,
// allocates the proforma number and persists order plus lines as one
// transaction. The allocation read and the insert share the transaction,
// so the scope lock is held from read to write; a unique violation on the
// generated code is retried with the numbering backoff contract.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, actorID int64) (*Order, error) {
	if req.ClientID == 0 {
		return nil, fmt.Errorf("%w: client is required", shared.ErrValidation)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", shared.ErrValidation)
	}

	if _, err := s.clientRepo.Get(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}
	if req.ChannelID != nil {
		if _, err := s.channelRepo.Get(ctx, *req.ChannelID); err != nil {
			return nil, fmt.Errorf("verify channel: %w", err)
		}
	}

	lines, err := s.snapshotLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	orderDate := req.OrderDate
	if orderDate.IsZero() {
		orderDate = s.now()
	}

	order := Order{
		OrderDate: orderDate,
		ClientID:  req.ClientID,
		ChannelID: req.ChannelID,
		Note:      req.Note,
		Status:    StatusPending,
	}
	order.StampCreate(actorID, s.now())

	var orderID int64
	err = numbering.WithRetry(ctx, numbering.DefaultMaxAttempts, db.IsUniqueViolation, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			scope := numbering.Scope(numbering.PrefixProforma, order.OrderDate)
			last, err := repo.LastProformaInScope(ctx, scope)
			if err != nil {
				return fmt.Errorf("read proforma scope: %w", err)
			}
			code, err := numbering.Next(last, numbering.PrefixProforma, order.OrderDate)
			if err != nil {
				return err
			}
			order.ProformaNumber = code

			id, err := repo.Create(ctx, order)
			if err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			orderID = id

			for _, line := range lines {
				line.OrderID = id
				if _, err := repo.InsertLine(ctx, line); err != nil {
					return fmt.Errorf("insert order line: %w", err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, orderID)
}

// Update replaces the whole line set and the editable fields. Locked
// orders (paid, cancelled, deleted or soft-deleted) reject the edit.
func (s *Service) Update(ctx context.Context, id int64, req UpdateOrderRequest, actorID int64) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing.Locked() {
		return nil, fmt.Errorf("%w: order %s cannot be edited", shared.ErrLocked, existing.ProformaNumber)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", shared.ErrValidation)
	}

	if req.ChannelID != nil {
		if _, err := s.channelRepo.Get(ctx, *req.ChannelID); err != nil {
			return nil, fmt.Errorf("verify channel: %w", err)
		}
	}

	lines, err := s.snapshotLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.OrderDate != nil {
		updated.OrderDate = *req.OrderDate
	}
	if req.ChannelID != nil {
		updated.ChannelID = req.ChannelID
	}
	if req.Note != nil {
		updated.Note = req.Note
	}
	updated.StampUpdate(actorID, s.now())

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateFields(ctx, updated); err != nil {
			return err
		}
		// Lines are replaced wholesale, not merged.
		if err := repo.DeleteLines(ctx, id); err != nil {
			return err
		}
		for _, line := range lines {
			line.OrderID = id
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	return s.repo.Get(ctx, id)
}

// Cancel moves a pending order to the terminal cancelled state.
func (s *Service) Cancel(ctx context.Context, id int64, actorID int64) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing.Status != StatusPending {
		return nil, fmt.Errorf("%w: order %s is not pending", shared.ErrLocked, existing.ProformaNumber)
	}

	audit := existing.Audit
	audit.StampUpdate(actorID, s.now())
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled, audit); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// SoftDelete marks the order deleted while keeping the row for history.
func (s *Service) SoftDelete(ctx context.Context, id int64, actorID int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if existing.Locked() {
		return fmt.Errorf("%w: order %s cannot be deleted", shared.ErrLocked, existing.ProformaNumber)
	}

	audit := existing.Audit
	audit.StampDelete(actorID, s.now())
	if err := s.repo.UpdateStatus(ctx, id, StatusDeleted, audit); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]OrderWithDetails, int, int64, error) {
	return s.repo.List(ctx, req)
}

// snapshotLines resolves each requested line against the catalog and
// captures the tariff. A zero tariff in the request means "use the current
// catalog price"; a non-zero tariff is an explicit override kept as-is.
func (s *Service) snapshotLines(ctx context.Context, reqs []CreateLineReq) ([]Line, error) {
	lines := make([]Line, 0, len(reqs))
	for _, lr := range reqs {
		item, err := s.catalogRepo.Get(ctx, lr.ItemID)
		if err != nil {
			return nil, fmt.Errorf("verify catalog item %d: %w", lr.ItemID, err)
		}
		if lr.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
		}
		tariff := lr.Tariff
		if tariff == 0 {
			tariff = item.Tariff
		}
		lines = append(lines, Line{ItemID: item.ID, Tariff: tariff, Quantity: lr.Quantity})
	}
	return lines, nil
}
