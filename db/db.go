package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tenderwatch/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("db: not found")

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// UpsertTender inserts a tender keyed by tender_no, or overwrites every
// mapped field when the tender_no already exists (last write wins). The
// returned flag reports whether a new row was created; xmax = 0 only holds
// for freshly inserted rows, so the same statement stays safe against a
// concurrent status sweep.
func (s *Storage) UpsertTender(ctx context.Context, t *models.Tender) (bool, error) {
	query := `
        INSERT INTO tenders
            (tender_no, title, content, agency, region, category_id, detail_code,
             allocated_budget, vat, total_budget,
             start_date, end_date, opening_date, bid_close_date, registration_date, change_date,
             status, unsuitable, raw_payload, collected_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7,
             $8, $9, $10,
             $11, $12, $13, $14, $15, $16,
             $17, $18, $19, $20)
        ON CONFLICT (tender_no) DO UPDATE SET
            title = EXCLUDED.title,
            content = EXCLUDED.content,
            agency = EXCLUDED.agency,
            region = EXCLUDED.region,
            category_id = EXCLUDED.category_id,
            detail_code = EXCLUDED.detail_code,
            allocated_budget = EXCLUDED.allocated_budget,
            vat = EXCLUDED.vat,
            total_budget = EXCLUDED.total_budget,
            start_date = EXCLUDED.start_date,
            end_date = EXCLUDED.end_date,
            opening_date = EXCLUDED.opening_date,
            bid_close_date = EXCLUDED.bid_close_date,
            registration_date = EXCLUDED.registration_date,
            change_date = EXCLUDED.change_date,
            status = EXCLUDED.status,
            raw_payload = EXCLUDED.raw_payload,
            collected_at = EXCLUDED.collected_at,
            updated_at = NOW()
        RETURNING id, created_at, (xmax = 0) AS inserted`

	var created bool
	err := s.db.QueryRowContext(ctx, query,
		t.TenderNo, t.Title, t.Content, t.Agency, t.Region, t.CategoryID, t.DetailCode,
		t.AllocatedBudget, t.VAT, t.TotalBudget,
		t.StartDate, t.EndDate, t.OpeningDate, t.BidCloseDate, t.RegistrationDate, t.ChangeDate,
		t.Status, t.Unsuitable, []byte(t.RawPayload), t.CollectedAt).
		Scan(&t.ID, &t.CreatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upsert tender %s: %w", t.TenderNo, err)
	}
	return created, nil
}

func (s *Storage) GetTender(ctx context.Context, id int64) (*models.Tender, error) {
	t := &models.Tender{}
	query := `SELECT * FROM tenders WHERE id=$1`
	err := s.db.GetContext(ctx, t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *Storage) GetTenderByNo(ctx context.Context, tenderNo string) (*models.Tender, error) {
	t := &models.Tender{}
	query := `SELECT * FROM tenders WHERE tender_no=$1`
	err := s.db.GetContext(ctx, t, query, tenderNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// KnownTenderNos reports which of the given identifiers already exist,
// letting the collector skip re-processing within a single batch run.
func (s *Storage) KnownTenderNos(ctx context.Context, nos []string) (map[string]bool, error) {
	known := map[string]bool{}
	if len(nos) == 0 {
		return known, nil
	}

	query := `SELECT tender_no FROM tenders WHERE tender_no = ANY($1)`
	var existing []string
	if err := s.db.SelectContext(ctx, &existing, query, pq.StringArray(nos)); err != nil {
		return nil, fmt.Errorf("query known tender nos: %w", err)
	}
	for _, no := range existing {
		known[no] = true
	}
	return known, nil
}

// ListTenders returns tenders with optional status and category filters.
func (s *Storage) ListTenders(ctx context.Context, status models.TenderStatus, categoryID int, limit, offset int) ([]models.Tender, error) {
	builder := psql.Select("*").From("tenders").OrderBy("collected_at DESC")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}
	if categoryID > 0 {
		builder = builder.Where(sq.Eq{"category_id": categoryID})
	}
	query, args, err := builder.Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tender list query: %w", err)
	}

	tenders := []models.Tender{}
	if err := s.db.SelectContext(ctx, &tenders, query, args...); err != nil {
		return nil, err
	}
	return tenders, nil
}

// ActiveTenders returns the date fields the status sweep needs.
func (s *Storage) ActiveTenders(ctx context.Context) ([]models.Tender, error) {
	query := `
        SELECT id, tender_no, opening_date, bid_close_date, end_date, status
        FROM tenders
        WHERE status = $1`
	tenders := []models.Tender{}
	err := s.db.SelectContext(ctx, &tenders, query, models.StatusActive)
	return tenders, err
}

// CloseTender flips an active tender to closed. The status guard keeps the
// transition monotonic even when a sweep overlaps a re-collection.
func (s *Storage) CloseTender(ctx context.Context, id int64) error {
	query := `UPDATE tenders SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	_, err := s.db.ExecContext(ctx, query, models.StatusClosed, id, models.StatusActive)
	return err
}

func (s *Storage) SetUnsuitable(ctx context.Context, id int64, unsuitable bool) error {
	query := `UPDATE tenders SET unsuitable=$1, updated_at=NOW() WHERE id=$2`
	_, err := s.db.ExecContext(ctx, query, unsuitable, id)
	return err
}

// expiryCandidateQuery compares at day granularity: stored dates carry a
// time of day, and a timestamp later on the cutoff day still counts as
// on-or-before. Keeps the SQL in agreement with the Go-side day check.
func expiryCandidateQuery(cutoff time.Time) (string, []any, error) {
	return psql.
		Select("*").From("tenders").
		Where(sq.Or{
			sq.LtOrEq{"end_date::date": cutoff},
			sq.LtOrEq{"bid_close_date::date": cutoff},
			sq.LtOrEq{"opening_date::date": cutoff},
		}).
		OrderBy("id ASC").
		ToSql()
}

// ExpiryCandidates selects tenders where any lifecycle-relevant date is on
// or before the cutoff day. One qualifying field is enough.
func (s *Storage) ExpiryCandidates(ctx context.Context, cutoff time.Time) ([]models.Tender, error) {
	query, args, err := expiryCandidateQuery(cutoff)
	if err != nil {
		return nil, fmt.Errorf("build expiry candidate query: %w", err)
	}

	tenders := []models.Tender{}
	if err := s.db.SelectContext(ctx, &tenders, query, args...); err != nil {
		return nil, err
	}
	return tenders, nil
}

// DeleteTenderCascade removes a tender together with its analyses, proposals
// and attachments in one transaction. It returns the local file paths of the
// deleted attachments so the caller can remove them after commit.
func (s *Storage) DeleteTenderCascade(ctx context.Context, id int64) ([]string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	var paths []string
	if err := tx.SelectContext(ctx, &paths,
		`SELECT local_path FROM attachments WHERE tender_id=$1 AND local_path IS NOT NULL`, id); err != nil {
		return nil, fmt.Errorf("collect attachment paths: %w", err)
	}

	for _, table := range []string{"analyses", "proposals", "attachments"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE tender_id=$1`, table), id); err != nil {
			return nil, fmt.Errorf("delete %s for tender %d: %w", table, id, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tenders WHERE id=$1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete tender %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete tx: %w", err)
	}
	return paths, nil
}

func (s *Storage) CreateAttachment(ctx context.Context, a *models.Attachment) error {
	query := `
        INSERT INTO attachments (tender_id, file_name, url, status, local_path)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query,
		a.TenderID, a.FileName, a.URL, a.Status, a.LocalPath).
		Scan(&a.ID, &a.CreatedAt)
}

func (s *Storage) GetAttachmentsByTender(ctx context.Context, tenderID int64) ([]models.Attachment, error) {
	var attachments []models.Attachment
	query := `SELECT * FROM attachments WHERE tender_id=$1 ORDER BY id ASC`
	err := s.db.SelectContext(ctx, &attachments, query, tenderID)
	return attachments, err
}

func (s *Storage) CreateAnalysis(ctx context.Context, a *models.Analysis) error {
	query := `
        INSERT INTO analyses (tender_id, content)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query, a.TenderID, a.Content).Scan(&a.ID, &a.CreatedAt)
}

// CollectionRun bookkeeping

func (s *Storage) StartCollectionRun(ctx context.Context, runID string) error {
	query := `INSERT INTO collection_runs (run_id, status) VALUES ($1, 'running')`
	_, err := s.db.ExecContext(ctx, query, runID)
	return err
}

func (s *Storage) FinishCollectionRun(ctx context.Context, run *models.CollectionRun) error {
	query := `
        UPDATE collection_runs
        SET status=$1, found=$2, created=$3, updated=$4, filtered=$5, errors=$6, completed_at=NOW()
        WHERE run_id=$7`
	_, err := s.db.ExecContext(ctx, query,
		run.Status, run.Found, run.Created, run.Updated, run.Filtered, run.Errors, run.RunID)
	return err
}

// Stats is the aggregate view exposed to operators.
type Stats struct {
	Total           int             `json:"total"`
	Active          int             `json:"active"`
	Closed          int             `json:"closed"`
	Today           int             `json:"today"`
	ByCategory      []CategoryCount `json:"byCategory"`
	LastCollectedAt *time.Time      `json:"lastCollectedAt"`
}

type CategoryCount struct {
	CategoryID int    `db:"category_id" json:"categoryId"`
	Name       string `db:"name" json:"name"`
	Count      int    `db:"count" json:"count"`
}

func (s *Storage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	query := `
        SELECT
            COUNT(*),
            COUNT(CASE WHEN status = 'active' THEN 1 END),
            COUNT(CASE WHEN status = 'closed' THEN 1 END),
            COUNT(CASE WHEN collected_at::date = CURRENT_DATE THEN 1 END),
            MAX(collected_at)
        FROM tenders`
	if err := s.db.QueryRowContext(ctx, query).
		Scan(&stats.Total, &stats.Active, &stats.Closed, &stats.Today, &stats.LastCollectedAt); err != nil {
		return nil, fmt.Errorf("aggregate counts: %w", err)
	}

	byCategory := `
        SELECT c.id AS category_id, c.name, COUNT(t.id) AS count
        FROM categories c
        LEFT JOIN tenders t ON t.category_id = c.id
        GROUP BY c.id, c.name
        ORDER BY c.id ASC`
	if err := s.db.SelectContext(ctx, &stats.ByCategory, byCategory); err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}

	return stats, nil
}
