package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tenderwatch/models"
)

type mockStore struct {
	candidates []models.Tender
	deleted    []int64
	paths      map[int64][]string
	deleteErr  map[int64]error
}

func (m *mockStore) ExpiryCandidates(ctx context.Context, cutoff time.Time) ([]models.Tender, error) {
	return m.candidates, nil
}

func (m *mockStore) DeleteTenderCascade(ctx context.Context, id int64) ([]string, error) {
	if err := m.deleteErr[id]; err != nil {
		return nil, err
	}
	m.deleted = append(m.deleted, id)
	return m.paths[id], nil
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 11, 0, 0, 0, time.UTC)
	return &d
}

func TestSweepDeletesExpiredTenders(t *testing.T) {
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	store := &mockStore{
		candidates: []models.Tender{
			// Opening 10 days gone, grace 7: out.
			{ID: 1, TenderNo: "C-1", Status: models.StatusActive, OpeningDate: datePtr(2026, 8, 21)},
			// End date only 3 days gone: inside the grace window, kept.
			{ID: 2, TenderNo: "C-2", Status: models.StatusActive, EndDate: datePtr(2026, 8, 28)},
		},
	}

	stats, err := NewSweeper(store, nil).Sweep(context.Background(), 7, false, now)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Scanned)
	require.Equal(t, 1, stats.Deleted)
	require.Equal(t, 0, stats.Errors)
	require.Equal(t, []int64{1}, store.deleted)
}

func TestSweepAnyExpiredDateQualifies(t *testing.T) {
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	store := &mockStore{
		candidates: []models.Tender{
			// Bid close long gone even though the end date is in the future.
			{ID: 1, TenderNo: "C-1", Status: models.StatusActive,
				BidCloseDate: datePtr(2026, 8, 10), EndDate: datePtr(2026, 12, 1)},
		},
	}

	stats, err := NewSweeper(store, nil).Sweep(context.Background(), 7, false, now)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Deleted)
}

func TestSweepClosedTenderSkipsReVerification(t *testing.T) {
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	store := &mockStore{
		candidates: []models.Tender{
			{ID: 1, TenderNo: "C-1", Status: models.StatusClosed},
		},
	}

	stats, err := NewSweeper(store, nil).Sweep(context.Background(), 7, false, now)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Deleted)
}

func TestSweepDryRunDeletesNothing(t *testing.T) {
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	store := &mockStore{
		candidates: []models.Tender{
			{ID: 1, TenderNo: "C-1", Status: models.StatusActive, OpeningDate: datePtr(2026, 8, 1)},
			{ID: 2, TenderNo: "C-2", Status: models.StatusActive, OpeningDate: datePtr(2026, 8, 2)},
		},
	}

	stats, err := NewSweeper(store, nil).Sweep(context.Background(), 7, true, now)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Scanned)
	require.Equal(t, 2, stats.Deleted)
	require.Empty(t, store.deleted)
}

func TestSweepFailedDeleteIsCountedAsError(t *testing.T) {
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	store := &mockStore{
		candidates: []models.Tender{
			{ID: 1, TenderNo: "C-1", Status: models.StatusActive, OpeningDate: datePtr(2026, 8, 1)},
			{ID: 2, TenderNo: "C-2", Status: models.StatusActive, OpeningDate: datePtr(2026, 8, 2)},
		},
		deleteErr: map[int64]error{1: errors.New("fk violation")},
	}

	stats, err := NewSweeper(store, nil).Sweep(context.Background(), 7, false, now)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Deleted)
	require.Equal(t, 1, stats.Errors)
	require.Equal(t, []int64{2}, store.deleted)
}

func TestSweepRemovesAttachmentFiles(t *testing.T) {
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	store := &mockStore{
		candidates: []models.Tender{
			{ID: 1, TenderNo: "C-1", Status: models.StatusActive, OpeningDate: datePtr(2026, 8, 1)},
		},
		paths: map[int64][]string{1: {"/data/attachments/c1.hwp", "/data/attachments/c1.pdf"}},
	}

	var removed []string
	sw := NewSweeper(store, nil)
	sw.removeFile = func(path string) error {
		removed = append(removed, path)
		return nil
	}

	stats, err := sw.Sweep(context.Background(), 7, false, now)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Deleted)
	require.Equal(t, []string{"/data/attachments/c1.hwp", "/data/attachments/c1.pdf"}, removed)
}

func TestSweepFileRemovalFailureIsBestEffort(t *testing.T) {
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	store := &mockStore{
		candidates: []models.Tender{
			{ID: 1, TenderNo: "C-1", Status: models.StatusActive, OpeningDate: datePtr(2026, 8, 1)},
		},
		paths: map[int64][]string{1: {"/data/attachments/gone.hwp"}},
	}

	sw := NewSweeper(store, nil)
	sw.removeFile = func(path string) error { return errors.New("permission denied") }

	stats, err := sw.Sweep(context.Background(), 7, false, now)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Deleted)
	require.Equal(t, 0, stats.Errors)
}

func TestSweepCancellationStopsEarly(t *testing.T) {
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	store := &mockStore{
		candidates: []models.Tender{
			{ID: 1, TenderNo: "C-1", Status: models.StatusActive, OpeningDate: datePtr(2026, 8, 1)},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSweeper(store, nil).Sweep(ctx, 7, false, now)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, store.deleted)
}
