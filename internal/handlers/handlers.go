package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tenderwatch/db"
	"tenderwatch/models"
)

// Handler exposes the read-only operator surface over the persisted state.
type Handler struct {
	Store StorageInterface
}

func NewHandler(store StorageInterface) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// GetStatsHandler serves GET /api/stats: aggregate counts, the per-category
// breakdown and the last collection timestamp.
func (h *Handler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.GetStats(r.Context())
	if err != nil {
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetTendersHandler serves GET /api/tenders with status/category filters.
func (h *Handler) GetTendersHandler(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	tenders, err := h.Store.ListTenders(r.Context(), params.Status, params.CategoryID, params.Limit, params.Offset)
	if err != nil {
		http.Error(w, "Failed to get tenders", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tenders)
}

// GetTenderHandler serves GET /api/tenders/{tenderNo}.
func (h *Handler) GetTenderHandler(w http.ResponseWriter, r *http.Request) {
	tenderNo := chi.URLParam(r, "tenderNo")
	if tenderNo == "" {
		http.Error(w, "Missing tenderNo", http.StatusBadRequest)
		return
	}

	tender, err := h.Store.GetTenderByNo(r.Context(), tenderNo)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Tender not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to get tender", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tender)
}

// Routes mounts the operator surface under /api.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/ping", h.PingHandler)
	r.Get("/stats", h.GetStatsHandler)
	r.Get("/tenders", h.GetTendersHandler)
	r.Get("/tenders/{tenderNo}", h.GetTenderHandler)
	return r
}

var allowedStatuses = map[models.TenderStatus]bool{
	models.StatusActive: true,
	models.StatusClosed: true,
}
