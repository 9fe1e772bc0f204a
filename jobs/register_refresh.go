package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gescom-app/gescom/internal/masterdata/registers"
	"github.com/gescom-app/gescom/internal/settlement"
)

// NewRegisterRefreshHandler rebuilds the denormalised inflow and balance of
// every active cash register from the settled sales. The settlement path
// never touches those totals, so the numbers can lag until this runs.
func NewRegisterRefreshHandler(regRepo registers.Repository, saleRepo settlement.Repository, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RegisterRefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		regs, err := regRepo.ListActive(ctx)
		if err != nil {
			return err
		}
		for _, reg := range regs {
			inflow, err := saleRepo.SumByRegister(ctx, reg.ID)
			if err != nil {
				return err
			}
			balance := reg.OpeningBalance + inflow - reg.Outflow
			if err := regRepo.UpdateTotals(ctx, reg.ID, inflow, balance); err != nil {
				return err
			}
			if logger != nil {
				logger.Info("register totals refreshed",
					slog.Int64("register_id", reg.ID),
					slog.Int64("inflow", inflow),
					slog.Int64("balance", balance))
			}
		}
		return nil
	}
}
