package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tenderwatch/db"
	"tenderwatch/internal/handlers"
	"tenderwatch/internal/handlers/testutils"
	"tenderwatch/models"

	"github.com/stretchr/testify/require"
)

// MockStorage implements StorageInterface.
type MockStorage struct {
	GetStatsFunc      func(ctx context.Context) (*db.Stats, error)
	ListTendersFunc   func(ctx context.Context, status models.TenderStatus, categoryID, limit, offset int) ([]models.Tender, error)
	GetTenderByNoFunc func(ctx context.Context, tenderNo string) (*models.Tender, error)
}

func (m *MockStorage) GetStats(ctx context.Context) (*db.Stats, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx)
	}
	return &db.Stats{Total: 3, Active: 2, Closed: 1}, nil
}

func (m *MockStorage) ListTenders(ctx context.Context, status models.TenderStatus, categoryID, limit, offset int) ([]models.Tender, error) {
	if m.ListTendersFunc != nil {
		return m.ListTendersFunc(ctx, status, categoryID, limit, offset)
	}
	return []models.Tender{{ID: 1, TenderNo: "20260831001-00", Title: "Sample Tender"}}, nil
}

func (m *MockStorage) GetTenderByNo(ctx context.Context, tenderNo string) (*models.Tender, error) {
	if m.GetTenderByNoFunc != nil {
		return m.GetTenderByNoFunc(ctx, tenderNo)
	}
	return &models.Tender{ID: 1, TenderNo: tenderNo, Title: "Sample Tender"}, nil
}

func TestPingHandler(t *testing.T) {
	h := handlers.NewHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	w := httptest.NewRecorder()

	h.PingHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, "ok", string(body))
}

func TestGetStatsHandler(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	mock := &MockStorage{
		GetStatsFunc: func(ctx context.Context) (*db.Stats, error) {
			return &db.Stats{
				Total:           10,
				Active:          7,
				Closed:          3,
				Today:           2,
				LastCollectedAt: &now,
			}, nil
		},
	}
	h := handlers.NewHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()

	h.GetStatsHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats db.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Equal(t, 10, stats.Total)
	require.Equal(t, 7, stats.Active)
	require.Equal(t, 2, stats.Today)
}

func TestGetTendersHandler(t *testing.T) {
	var gotStatus models.TenderStatus
	var gotCategory, gotLimit, gotOffset int
	mock := &MockStorage{
		ListTendersFunc: func(ctx context.Context, status models.TenderStatus, categoryID, limit, offset int) ([]models.Tender, error) {
			gotStatus, gotCategory, gotLimit, gotOffset = status, categoryID, limit, offset
			return []models.Tender{
				{ID: 1, TenderNo: "20260831001-00", Title: "First"},
				{ID: 2, TenderNo: "20260831002-00", Title: "Second"},
			}, nil
		},
	}
	h := handlers.NewHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/tenders?status=active&category=2&limit=10&offset=5", nil)
	w := httptest.NewRecorder()

	h.GetTendersHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, models.StatusActive, gotStatus)
	require.Equal(t, 2, gotCategory)
	require.Equal(t, 10, gotLimit)
	require.Equal(t, 5, gotOffset)

	var tenders []models.Tender
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tenders))
	require.Len(t, tenders, 2)
	require.Equal(t, "20260831001-00", tenders[0].TenderNo)
}

func TestGetTendersHandlerClampsLimit(t *testing.T) {
	var gotLimit int
	mock := &MockStorage{
		ListTendersFunc: func(ctx context.Context, status models.TenderStatus, categoryID, limit, offset int) ([]models.Tender, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	h := handlers.NewHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/tenders?limit=500", nil)
	w := httptest.NewRecorder()

	h.GetTendersHandler(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)
	require.Equal(t, 50, gotLimit)
}

func TestGetTendersHandlerIgnoresUnknownStatus(t *testing.T) {
	var gotStatus models.TenderStatus
	mock := &MockStorage{
		ListTendersFunc: func(ctx context.Context, status models.TenderStatus, categoryID, limit, offset int) ([]models.Tender, error) {
			gotStatus = status
			return nil, nil
		},
	}
	h := handlers.NewHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/tenders?status=bogus", nil)
	w := httptest.NewRecorder()

	h.GetTendersHandler(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)
	require.Equal(t, models.TenderStatus(""), gotStatus)
}

func TestGetTenderHandler(t *testing.T) {
	h := handlers.NewHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/tenders/20260831001-00", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"tenderNo": "20260831001-00"})
	w := httptest.NewRecorder()

	h.GetTenderHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tender models.Tender
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tender))
	require.Equal(t, "20260831001-00", tender.TenderNo)
}

func TestGetTenderHandlerNotFound(t *testing.T) {
	mock := &MockStorage{
		GetTenderByNoFunc: func(ctx context.Context, tenderNo string) (*models.Tender, error) {
			return nil, db.ErrNotFound
		},
	}
	h := handlers.NewHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/tenders/none", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"tenderNo": "none"})
	w := httptest.NewRecorder()

	h.GetTenderHandler(w, req)

	require.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestGetTenderHandlerMissingParam(t *testing.T) {
	h := handlers.NewHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/tenders/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{})
	w := httptest.NewRecorder()

	h.GetTenderHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}
