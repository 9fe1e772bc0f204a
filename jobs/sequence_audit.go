package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gescom-app/gescom/internal/numbering"
)

// NewSequenceAuditHandler scans the day's proforma and invoice scopes for
// duplicate or out-of-order codes. Gaps can appear legitimately when an
// allocation rolled back, so they are reported as observations, not errors.
func NewSequenceAuditHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SequenceAuditPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		day := payload.Day
		if day.IsZero() {
			day = time.Now().UTC()
		}

		checks := []struct {
			label  string
			query  string
			prefix string
		}{
			{"proforma", `SELECT proforma_number FROM orders WHERE proforma_number LIKE $1 || '%' ORDER BY proforma_number`, numbering.PrefixProforma},
			{"invoice", `SELECT invoice_number FROM sales WHERE invoice_number LIKE $1 || '%' ORDER BY invoice_number`, numbering.PrefixInvoice},
		}

		for _, check := range checks {
			scope := numbering.Scope(check.prefix, day)
			codes, err := fetchCodes(ctx, pool, check.query, scope)
			if err != nil {
				return err
			}
			auditScope(logger, check.label, scope, codes)
		}
		return nil
	}
}

func fetchCodes(ctx context.Context, pool *pgxpool.Pool, query, scope string) ([]string, error) {
	rows, err := pool.Query(ctx, query, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func auditScope(logger *slog.Logger, label, scope string, codes []string) {
	if logger == nil {
		return
	}
	seen := make(map[int]string, len(codes))
	prev := 0
	for _, code := range codes {
		seq, err := numbering.Sequence(code)
		if err != nil {
			logger.Warn("malformed document number",
				slog.String("kind", label), slog.String("code", code))
			continue
		}
		if dup, ok := seen[seq]; ok {
			logger.Error("duplicate document number",
				slog.String("kind", label), slog.String("code", code), slog.String("first", dup))
			continue
		}
		seen[seq] = code
		if prev > 0 && seq > prev+1 {
			logger.Info("gap in document numbers",
				slog.String("kind", label), slog.String("scope", scope),
				slog.Int("after", prev), slog.Int("next", seq))
		}
		prev = seq
	}
	logger.Info("sequence audit complete",
		slog.String("kind", label), slog.String("scope", scope), slog.Int("count", len(codes)))
}
