package collector

import (
	"context"

	"tenderwatch/models"
)

// Storage is the persistence surface the collector and sweeps depend on.
type Storage interface {
	UpsertTender(ctx context.Context, t *models.Tender) (created bool, err error)
	KnownTenderNos(ctx context.Context, nos []string) (map[string]bool, error)

	ActiveTenders(ctx context.Context) ([]models.Tender, error)
	CloseTender(ctx context.Context, id int64) error

	StartCollectionRun(ctx context.Context, runID string) error
	FinishCollectionRun(ctx context.Context, run *models.CollectionRun) error
}
