package registers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gescom-app/gescom/internal/platform/httpx"
	"github.com/gescom-app/gescom/internal/shared"
)

// Handler exposes cash register administration over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers cash register routes on the provided router.
// Mutations run behind the manage middleware when one is given.
func (h *Handler) MountRoutes(r chi.Router, manage func(http.Handler) http.Handler) {
	r.Get("/registers", h.list)
	r.Get("/registers/{id}", h.show)
	r.Group(func(r chi.Router) {
		if manage != nil {
			r.Use(manage)
		}
		r.Post("/registers", h.create)
		r.Put("/registers/{id}", h.update)
		r.Delete("/registers/{id}", h.softDelete)
	})
}

type registerRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Manager        string `json:"manager" validate:"max=100"`
	OpeningBalance int64  `json:"opening_balance" validate:"gte=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListActive(r.Context())
	if err != nil {
		h.logger.Error("list registers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"registers": items})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	reg, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	reg, err := h.service.Create(r.Context(),
		Register{Name: req.Name, Manager: req.Manager, OpeningBalance: req.OpeningBalance},
		shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create register", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reg)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	reg, err := h.service.Update(r.Context(),
		Register{ID: id, Name: req.Name, Manager: req.Manager, OpeningBalance: req.OpeningBalance},
		shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("update register", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	if err := h.service.SoftDelete(r.Context(), id, shared.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
