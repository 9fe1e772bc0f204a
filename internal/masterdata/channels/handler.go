package channels

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

func nowUTC() time.Time {
	return time.Now().UTC()
}

// Handler exposes channel administration over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers channel routes on the provided router. Mutations
// run behind the manage middleware when one is given.
func (h *Handler) MountRoutes(r chi.Router, manage func(http.Handler) http.Handler) {
	r.Get("/channels", h.list)
	r.Group(func(r chi.Router) {
		if manage != nil {
			r.Use(manage)
		}
		r.Post("/channels", h.create)
		r.Put("/channels/{id}", h.update)
		r.Delete("/channels/{id}", h.softDelete)
	})
}

type channelRequest struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Contact string  `json:"contact" validate:"max=100"`
	Link    *string `json:"link,omitempty" validate:"omitempty,url"`
	Type    Type    `json:"type" validate:"required,oneof=VENTE SERVICE"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListActive(r.Context(), Type(r.URL.Query().Get("type")))
	if err != nil {
		h.logger.Error("list channels", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"channels": items})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ch, err := h.service.Create(r.Context(),
		Channel{Name: req.Name, Contact: req.Contact, Link: req.Link, Type: req.Type},
		shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create channel", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ch)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	var req channelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ch, err := h.service.Update(r.Context(),
		Channel{ID: id, Name: req.Name, Contact: req.Contact, Link: req.Link, Type: req.Type},
		shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("update channel", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ch)
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
