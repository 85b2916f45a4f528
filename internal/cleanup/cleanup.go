// Package cleanup removes expired tenders together with their dependent
// analyses, proposals and attachments.
package cleanup

import (
	"context"
	"log/slog"
	"os"
	"time"

	"tenderwatch/models"
)

// Storage is the persistence surface the sweeper needs.
type Storage interface {
	ExpiryCandidates(ctx context.Context, cutoff time.Time) ([]models.Tender, error)
	DeleteTenderCascade(ctx context.Context, id int64) (localPaths []string, err error)
}

// Stats summarizes one sweep. Dry runs return the same shape.
type Stats struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}

type Sweeper struct {
	store  Storage
	logger *slog.Logger

	// removeFile is swapped in tests; defaults to os.Remove.
	removeFile func(string) error
}

func NewSweeper(store Storage, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, logger: logger, removeFile: os.Remove}
}

// Sweep deletes every tender whose lifecycle-relevant dates fell out of the
// grace window. Each tender is deleted in its own transaction, so a
// cancelled run leaves committed deletions in place and the rest untouched.
func (s *Sweeper) Sweep(ctx context.Context, graceDays int, dryRun bool, now time.Time) (Stats, error) {
	var stats Stats

	cutoff := models.DayOf(now).AddDate(0, 0, -graceDays)
	candidates, err := s.store.ExpiryCandidates(ctx, cutoff)
	if err != nil {
		return stats, err
	}

	for _, t := range candidates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Scanned++

		// The candidate query can see stale rows; re-verify before the
		// destructive step. A tender already out of the active state is
		// deleted without further checks.
		if t.Status == models.StatusActive && !expired(t, cutoff) {
			continue
		}

		if dryRun {
			s.logger.Info("dry-run: would delete tender", "tender_no", t.TenderNo)
			stats.Deleted++
			continue
		}

		paths, err := s.store.DeleteTenderCascade(ctx, t.ID)
		if err != nil {
			s.logger.Error("delete tender failed", "tender_no", t.TenderNo, "error", err)
			stats.Errors++
			continue
		}
		stats.Deleted++

		for _, path := range paths {
			if err := s.removeFile(path); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("remove attachment file failed", "path", path, "error", err)
			}
		}
	}

	s.logger.Info("cleanup sweep finished",
		"scanned", stats.Scanned, "deleted", stats.Deleted, "errors", stats.Errors,
		"grace_days", graceDays, "dry_run", dryRun)
	return stats, nil
}

// expired reports whether any of the three date signals is on or before the
// cutoff day. One qualifying field is enough.
func expired(t models.Tender, cutoff time.Time) bool {
	for _, d := range []*time.Time{t.EndDate, t.BidCloseDate, t.OpeningDate} {
		if d != nil && !models.DayOf(*d).After(cutoff) {
			return true
		}
	}
	return false
}
