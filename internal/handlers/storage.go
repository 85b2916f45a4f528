package handlers

import (
	"context"

	"tenderwatch/db"
	"tenderwatch/models"
)

type StorageInterface interface {
	GetStats(ctx context.Context) (*db.Stats, error)
	ListTenders(ctx context.Context, status models.TenderStatus, categoryID int, limit, offset int) ([]models.Tender, error)
	GetTenderByNo(ctx context.Context, tenderNo string) (*models.Tender, error)
}
