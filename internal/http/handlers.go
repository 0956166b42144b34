package http

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/booking"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/models"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/obs"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/provider"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/search"
)

type Handler struct {
	svc      *search.Service
	workflow *booking.Workflow
	metrics  *obs.Metrics
}

func NewHandler(svc *search.Service, workflow *booking.Workflow, m *obs.Metrics) *Handler {
	return &Handler{svc: svc, workflow: workflow, metrics: m}
}

func (h *Handler) requestID(r *http.Request) string {
	// chi's middleware.RequestID sets X-Request-Id header
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		return rid
	}
	return uuid.New().String()
}

func (h *Handler) ipFromRequest(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// writeProviderError maps the error taxonomy onto HTTP statuses with
// enough structure for the caller to decide retry vs abort.
func (h *Handler) writeProviderError(w http.ResponseWriter, err error, reqID string) {
	meta := map[string]string{
		"request_id": reqID,
		"kind":       string(provider.KindOf(err)),
	}
	if provider.Retryable(err) {
		meta["retryable"] = "true"
	}
	switch provider.KindOf(err) {
	case provider.KindValidation:
		BadRequest(w, err.Error(), meta)
	case provider.KindNotFound:
		NotFound(w, err.Error(), meta)
	case provider.KindRateLimited:
		TooManyRequests(w, err.Error(), meta)
	case provider.KindUnavailable, provider.KindTransient:
		WriteError(w, http.StatusServiceUnavailable, err.Error(), meta)
	default:
		InternalError(w, err.Error(), meta)
	}
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	reqID := h.requestID(r)
	query := r.URL.Query().Get("query")
	if query == "" {
		BadRequest(w, "query is required", map[string]string{"request_id": reqID})
		return
	}
	lang := r.URL.Query().Get("language")
	if lang == "" {
		lang = "en"
	}
	res, err := h.svc.Suggest(r.Context(), query, lang)
	if err != nil {
		h.writeProviderError(w, err, reqID)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	reqID := h.requestID(r)
	q := r.URL.Query()
	query, err := models.NewSearchQuery(
		q.Get("region_id"),
		q.Get("checkin"),
		q.Get("checkout"),
		q.Get("adults"),
		q.Get("children_ages"),
		q.Get("rooms"),
		q.Get("residency"),
		q.Get("language"),
		q.Get("currency"),
	)
	if err != nil {
		BadRequest(w, err.Error(), map[string]string{"request_id": reqID})
		return
	}
	if err := query.Validate(); err != nil {
		BadRequest(w, err.Error(), map[string]string{"request_id": reqID})
		return
	}

	res, err := h.svc.Search(r.Context(), query)
	if err != nil {
		h.writeProviderError(w, err, reqID)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HotelDetails(w http.ResponseWriter, r *http.Request) {
	reqID := h.requestID(r)
	hotelID := chi.URLParam(r, "id")
	q := r.URL.Query()
	query, err := models.NewSearchQuery(
		"0",
		q.Get("checkin"),
		q.Get("checkout"),
		q.Get("adults"),
		q.Get("children_ages"),
		q.Get("rooms"),
		q.Get("residency"),
		q.Get("language"),
		q.Get("currency"),
	)
	if err != nil {
		BadRequest(w, err.Error(), map[string]string{"request_id": reqID})
		return
	}
	if err := query.Validate(); err != nil {
		BadRequest(w, err.Error(), map[string]string{"request_id": reqID})
		return
	}

	res, err := h.svc.GetDetails(r.Context(), hotelID, query)
	if err != nil {
		h.writeProviderError(w, err, reqID)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Prebook(w http.ResponseWriter, r *http.Request) {
	reqID := h.requestID(r)
	var body struct {
		MatchHash string `json:"match_hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		BadRequest(w, "invalid JSON body", map[string]string{"request_id": reqID})
		return
	}
	res, err := h.workflow.Prebook(r.Context(), body.MatchHash)
	if err != nil {
		h.writeProviderError(w, err, reqID)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	reqID := h.requestID(r)
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body", map[string]string{"request_id": reqID})
		return
	}
	order, err := h.workflow.Create(r.Context(), &req, h.ipFromRequest(r))
	if err != nil {
		h.writeProviderError(w, err, reqID)
		return
	}
	WriteJSON(w, http.StatusCreated, order)
}

func (h *Handler) FinishBooking(w http.ResponseWriter, r *http.Request) {
	reqID := h.requestID(r)
	orderID := chi.URLParam(r, "id")
	var req models.FinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body", map[string]string{"request_id": reqID})
		return
	}
	order, err := h.workflow.Finish(r.Context(), orderID, &req)
	if err != nil {
		h.writeProviderError(w, err, reqID)
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) BookingStatus(w http.ResponseWriter, r *http.Request) {
	reqID := h.requestID(r)
	order, err := h.workflow.CheckStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeProviderError(w, err, reqID)
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) CancellationInfo(w http.ResponseWriter, r *http.Request) {
	reqID := h.requestID(r)
	info, err := h.workflow.CancellationInfo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeProviderError(w, err, reqID)
		return
	}
	WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	reqID := h.requestID(r)
	order, err := h.workflow.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeProviderError(w, err, reqID)
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

// RefreshRules clears the margin rule cache so edits upstream take
// effect immediately.
func (h *Handler) RefreshRules(w http.ResponseWriter, r *http.Request) {
	h.svc.InvalidateRules()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "rules cache cleared"})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
