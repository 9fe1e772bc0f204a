package settlement

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gescom-app/gescom/internal/platform/httpx"
	"github.com/gescom-app/gescom/internal/shared"
)

// Handler exposes settlement over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers settlement routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/settlements", h.settle)
	r.Get("/settlements", h.list)
	r.Get("/settlements/{id}", h.show)
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	sale, err := h.service.Settle(r.Context(), req, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("settle order", slog.Int64("order_id", req.OrderID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"sale": sale})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListSalesRequest{}
	q := r.URL.Query()

	if v := q.Get("settled_on"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.SettledOn = &t
		}
	}
	if v := q.Get("register_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.RegisterID = &id
		}
	}
	if v := q.Get("client_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	req.Page.Limit, _ = strconv.Atoi(q.Get("limit"))
	req.Page.Offset, _ = strconv.Atoi(q.Get("offset"))

	sales, total, sum, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"sales":        sales,
		"total":        total,
		"total_amount": sum,
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sale": sale})
}
