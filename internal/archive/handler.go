package archive

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// Request names one record to archive or restore.
type Request struct {
	Entity string `json:"entity" validate:"required"`
	ID     int64  `json:"id" validate:"required,gt=0"`
}

// Handler exposes the admin archive endpoints.
type Handler struct {
	logger   *slog.Logger
	registry *Registry
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, registry *Registry) *Handler {
	return &Handler{logger: logger, registry: registry, validate: validator.New()}
}

// MountRoutes registers the archive routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/admin/archive", h.archive)
	r.Post("/admin/restore", h.restore)
	r.Get("/admin/archive/entities", h.entities)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "archived", h.registry.Archive)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "restored", h.registry.Restore)
}

func (h *Handler) entities(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, map[string]any{"entities": h.registry.Kinds()})
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, verb string, op func(ctx context.Context, kind string, tenantID, id int64) error) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed")
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	if err := op(r.Context(), req.Entity, identity.TenantID, req.ID); err != nil {
		h.logger.Error("archive dispatch",
			slog.String("entity", req.Entity),
			slog.Int64("id", req.ID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, req.Entity+" "+verb)
}
