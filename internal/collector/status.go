package collector

import (
	"context"
	"log/slog"
	"time"

	"tenderwatch/models"
)

// EvaluateStatus derives the lifecycle state from up to three competing date
// signals at day granularity (time of day is discarded). Precedence:
//
//  1. an opening date on or before today closes the tender; opening wins
//     even on its own day;
//  2. a bid-close date strictly before today closes it; equal to today the
//     tender stays open through its closing day;
//  3. with neither of those present, an end date strictly before today
//     closes it;
//  4. otherwise the tender is active.
//
// Both the field mapper and the periodic sweep call this one function, so a
// freshly mapped record and a re-evaluated one always agree.
func EvaluateStatus(openingDate, bidCloseDate, endDate *time.Time, now time.Time) models.TenderStatus {
	today := models.DayOf(now)

	if openingDate != nil && !models.DayOf(*openingDate).After(today) {
		return models.StatusClosed
	}
	if bidCloseDate != nil && models.DayOf(*bidCloseDate).Before(today) {
		return models.StatusClosed
	}
	if openingDate == nil && bidCloseDate == nil &&
		endDate != nil && models.DayOf(*endDate).Before(today) {
		return models.StatusClosed
	}
	return models.StatusActive
}

// StatusSweeper re-evaluates every active tender against the current day.
// Closed tenders are never revisited; the transition is monotonic.
type StatusSweeper struct {
	store  Storage
	logger *slog.Logger
}

func NewStatusSweeper(store Storage, logger *slog.Logger) *StatusSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusSweeper{store: store, logger: logger}
}

// Run returns how many tenders were checked and how many it closed.
func (s *StatusSweeper) Run(ctx context.Context, now time.Time) (checked, closed int, err error) {
	tenders, err := s.store.ActiveTenders(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, t := range tenders {
		checked++
		status := EvaluateStatus(t.OpeningDate, t.BidCloseDate, t.EndDate, now)
		if status != models.StatusClosed {
			continue
		}
		if err := s.store.CloseTender(ctx, t.ID); err != nil {
			s.logger.Error("close tender failed", "tender_no", t.TenderNo, "error", err)
			continue
		}
		closed++
	}

	s.logger.Info("status sweep finished", "checked", checked, "closed", closed)
	return checked, closed, nil
}
