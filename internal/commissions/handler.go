package commissions

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
)

// Handler manages commission and payout HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers commission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/commissions", h.calculate)
	r.Get("/commissions", h.list)
	r.Get("/commissions/{id}", h.get)
	r.Post("/commission-payouts", h.createPayout)
	r.Get("/commission-payouts/{id}", h.getPayout)
	r.Put("/commission-payouts/{id}/status", h.setPayoutStatus)
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed")
		return
	}
	commission, err := h.service.Calculate(r.Context(), req)
	if err != nil {
		h.logger.Error("calculate commission", slog.Int64("booking_id", req.BookingID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, commission)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	agentID, err := strconv.ParseInt(r.URL.Query().Get("agent_id"), 10, 64)
	if err != nil || agentID <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "agent_id query parameter is required")
		return
	}
	commissions, err := h.service.ListByAgent(r.Context(), agentID)
	if err != nil {
		h.logger.Error("list commissions", slog.Int64("agent_id", agentID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"commissions": commissions})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid commission id")
		return
	}
	commission, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, commission)
}

func (h *Handler) createPayout(w http.ResponseWriter, r *http.Request) {
	var req CreatePayoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed")
		return
	}
	payout, err := h.service.CreatePayout(r.Context(), req)
	if err != nil {
		h.logger.Error("create payout", slog.Int64("agent_id", req.AgentID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, payout)
}

func (h *Handler) getPayout(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payout id")
		return
	}
	detail, err := h.service.GetPayout(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, detail)
}

func (h *Handler) setPayoutStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payout id")
		return
	}
	var req SetPayoutStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed")
		return
	}
	payout, err := h.service.SetPayoutStatus(r.Context(), id, req)
	if err != nil {
		h.logger.Error("set payout status", slog.Int64("payout_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, payout)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
