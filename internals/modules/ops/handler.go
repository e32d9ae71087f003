package ops

import (
	"net/http"

	"github.com/darwin-luque/uptime-monitor/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	utils.WriteJSON(w, http.StatusOK, reqID, "ok", map[string]string{"status": "up"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	if err := h.service.Ready(ctx); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "ready", map[string]string{"status": "ready"})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	utils.WriteJSON(w, http.StatusOK, reqID, "engine status", h.service.Status())
}

func (h *Handler) GetAllChecks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	resp, err := h.service.ListChecks(ctx)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "checks fetched", resp)
}

func (h *Handler) GetCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	resp, err := h.service.GetCheck(ctx, chi.URLParam(r, "checkID"))
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "check fetched", resp)
}

func (h *Handler) GetArchives(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	resp, err := h.service.ListArchives(ctx, chi.URLParam(r, "checkID"))
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "archives fetched", resp)
}

// GetArchive streams the archived log lines as newline-delimited JSON.
func (h *Handler) GetArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	data, err := h.service.ReadArchive(ctx, chi.URLParam(r, "checkID"), chi.URLParam(r, "archive"))
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
