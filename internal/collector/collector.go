package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tenderwatch/internal/collab"
	"tenderwatch/internal/upstream"
	"tenderwatch/models"
)

// Fetcher is the upstream surface the collector drives, one page at a time.
type Fetcher interface {
	Fetch(ctx context.Context, startDate, endDate time.Time, pageNo, pageSize int, detailCode string) (*upstream.Page, error)
}

// Stats are the per-run counters.
type Stats struct {
	Found        int
	Created      int
	Updated      int
	Filtered     int
	Skipped      int
	Errors       int
	CollabErrors int
}

// Deps wires the collaborating components into the collector.
type Deps struct {
	Fetcher     Fetcher
	Store       Storage
	Attachments collab.AttachmentCollector
	Screener    collab.KeywordScreener
	Logger      *slog.Logger

	PageSize  int
	PageDelay time.Duration
	// SkipKnown short-circuits records whose tender_no is already stored,
	// instead of refreshing them. An optimization, not a correctness rule.
	SkipKnown bool
}

// Collector runs the full ingestion pass: per target classification code,
// page through the upstream service, filter, map, upsert, and trigger the
// downstream collaborators.
type Collector struct {
	fetcher     Fetcher
	store       Storage
	mapper      *Mapper
	attachments collab.AttachmentCollector
	screener    collab.KeywordScreener
	logger      *slog.Logger

	pageSize  int
	pageDelay time.Duration
	skipKnown bool
}

func New(deps Deps) *Collector {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Attachments == nil {
		deps.Attachments = collab.NoopAttachmentCollector{}
	}
	if deps.Screener == nil {
		deps.Screener = collab.NoopKeywordScreener{}
	}
	if deps.PageSize <= 0 {
		deps.PageSize = 100
	}
	return &Collector{
		fetcher:     deps.Fetcher,
		store:       deps.Store,
		mapper:      NewMapper(deps.Logger.With("component", "mapper")),
		attachments: deps.Attachments,
		screener:    deps.Screener,
		logger:      deps.Logger,
		pageSize:    deps.PageSize,
		pageDelay:   deps.PageDelay,
		skipKnown:   deps.SkipKnown,
	}
}

// Collect ingests every target classification code for the date range. A
// failed page or code is logged and skipped; the batch always moves on.
func (c *Collector) Collect(ctx context.Context, startDate, endDate time.Time) (Stats, error) {
	runID := uuid.NewString()
	if err := c.store.StartCollectionRun(ctx, runID); err != nil {
		c.logger.Warn("create collection run failed", "run_id", runID, "error", err)
		runID = ""
	}

	var stats Stats
	seen := map[string]bool{}

	failedCodes := 0
	for _, code := range TargetDetailCodes() {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := c.collectCode(ctx, code, startDate, endDate, seen, &stats); err != nil {
			c.logger.Error("classification code failed", "code", code, "error", err)
			stats.Errors++
			failedCodes++
		}
	}

	if runID != "" {
		run := &models.CollectionRun{
			RunID:    runID,
			Status:   "completed",
			Found:    stats.Found,
			Created:  stats.Created,
			Updated:  stats.Updated,
			Filtered: stats.Filtered,
			Errors:   stats.Errors,
		}
		// Only a run where every code query failed is a failed run;
		// partial failures still delivered data.
		if failedCodes == len(TargetDetailCodes()) {
			run.Status = "failed"
		}
		if err := c.store.FinishCollectionRun(ctx, run); err != nil {
			c.logger.Warn("finish collection run failed", "run_id", runID, "error", err)
		}
	}

	c.logger.Info("collection finished",
		"found", stats.Found, "created", stats.Created, "updated", stats.Updated,
		"classification_filtered", stats.Filtered, "skipped", stats.Skipped,
		"errors", stats.Errors, "collab_errors", stats.CollabErrors)
	return stats, ctx.Err()
}

func (c *Collector) collectCode(ctx context.Context, code DetailCode, startDate, endDate time.Time, seen map[string]bool, stats *Stats) error {
	for pageNo := 1; ; pageNo++ {
		page, err := c.fetcher.Fetch(ctx, startDate, endDate, pageNo, c.pageSize, string(code))
		if err != nil {
			return err
		}
		if len(page.Items) == 0 {
			return nil
		}

		known := map[string]bool{}
		if c.skipKnown {
			nos := make([]string, 0, len(page.Items))
			for _, item := range page.Items {
				if no := item.First(fieldTenderNo); no != "" {
					nos = append(nos, no)
				}
			}
			known, err = c.store.KnownTenderNos(ctx, nos)
			if err != nil {
				c.logger.Warn("known-tender lookup failed, refreshing all", "error", err)
				known = map[string]bool{}
			}
		}

		for _, item := range page.Items {
			c.processItem(ctx, item, seen, known, stats)
		}

		if pageNo*c.pageSize >= page.TotalCount {
			return nil
		}
		if err := c.sleep(ctx); err != nil {
			return err
		}
	}
}

func (c *Collector) processItem(ctx context.Context, item upstream.Item, seen, known map[string]bool, stats *Stats) {
	stats.Found++

	tenderNo := item.First(fieldTenderNo)
	if tenderNo == "" {
		c.logger.Warn("record without tender number, skipping")
		stats.Errors++
		return
	}
	// The shared software-development code means the same announcement can
	// surface under two code queries within one run.
	if seen[tenderNo] || known[tenderNo] {
		stats.Skipped++
		return
	}
	seen[tenderNo] = true

	result := AcceptRecord(item)
	if !result.Accepted {
		stats.Filtered++
		return
	}

	tender := c.mapper.Map(item, result.EmptyCode, time.Now())
	created, err := c.store.UpsertTender(ctx, &tender)
	if err != nil {
		c.logger.Error("upsert failed", "tender_no", tenderNo, "error", err)
		stats.Errors++
		return
	}
	if created {
		stats.Created++
	} else {
		stats.Updated++
	}

	c.notifyCollaborators(ctx, &tender, stats)
}

// notifyCollaborators triggers the downstream services once per sighting.
// Their failures are logged and counted; they never change the upsert
// outcome or stall the batch.
func (c *Collector) notifyCollaborators(ctx context.Context, t *models.Tender, stats *Stats) {
	if res := c.attachments.Collect(ctx, t.ID, t.TenderNo); !res.OK {
		c.logger.Warn("attachment collection failed",
			"tender_no", t.TenderNo, "reason", res.Reason)
		stats.CollabErrors++
	} else if res.FilesFound > 0 {
		c.logger.Debug("attachments collected", "tender_no", t.TenderNo, "files", res.FilesFound)
	}

	if res := c.screener.Screen(ctx, t.ID, t.TenderNo); !res.OK {
		c.logger.Warn("keyword screening failed",
			"tender_no", t.TenderNo, "reason", res.Reason)
		stats.CollabErrors++
	}
}

// sleep is the polite pause between page requests.
func (c *Collector) sleep(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.pageDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
