// Package collab defines the narrow contracts of downstream collaborators
// triggered by the ingestion pipeline. Their internals live elsewhere; the
// pipeline only hands over a persisted tender identity and records the
// outcome.
package collab

import (
	"context"

	"tenderwatch/models"
)

// Storage is the persistence slice the built-in collaborators use.
type Storage interface {
	GetTender(ctx context.Context, id int64) (*models.Tender, error)
	SetUnsuitable(ctx context.Context, id int64, unsuitable bool) error
	CreateAnalysis(ctx context.Context, a *models.Analysis) error
	GetAttachmentsByTender(ctx context.Context, tenderID int64) ([]models.Attachment, error)
	CreateAttachment(ctx context.Context, a *models.Attachment) error
}

// Result reports a collaborator call. Failures are observability data, not
// control flow: implementations must never panic through the pipeline.
type Result struct {
	OK         bool
	FilesFound int
	Reason     string
}

// AttachmentCollector crawls and stores announcement attachments.
type AttachmentCollector interface {
	Collect(ctx context.Context, tenderID int64, tenderNo string) Result
}

// KeywordScreener checks a tender against keyword/restriction rules and may
// flip its unsuitable flag as a side effect.
type KeywordScreener interface {
	Screen(ctx context.Context, tenderID int64, tenderNo string) Result
}

// NoopAttachmentCollector is used when no attachment service is configured.
type NoopAttachmentCollector struct{}

func (NoopAttachmentCollector) Collect(ctx context.Context, tenderID int64, tenderNo string) Result {
	return Result{OK: true}
}

// NoopKeywordScreener is used when no screening service is configured.
type NoopKeywordScreener struct{}

func (NoopKeywordScreener) Screen(ctx context.Context, tenderID int64, tenderNo string) Result {
	return Result{OK: true}
}
