package models

import (
	"encoding/json"
	"time"
)

// TenderStatus is the lifecycle state of a tender. The pipeline only moves
// active -> closed, never back.
type TenderStatus string

const (
	StatusActive TenderStatus = "active"
	StatusClosed TenderStatus = "closed"
)

// DayOf truncates a timestamp to UTC midnight. Every lifecycle comparison
// (status evaluation, expiry cutoffs) works at day granularity through this
// one helper.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Category ids of the static lookup table seeded by migration 00001.
const (
	CategoryServices     = 1
	CategoryConstruction = 2
	CategoryGoods        = 3
	CategoryOther        = 4
)

type Category struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Tender is one procurement announcement as stored after normalization.
type Tender struct {
	ID         int64  `db:"id" json:"id"`
	TenderNo   string `db:"tender_no" json:"tenderNo"`
	Title      string `db:"title" json:"title"`
	Content    string `db:"content" json:"content"`
	Agency     string `db:"agency" json:"agency"`
	Region     string `db:"region" json:"region"`
	CategoryID *int   `db:"category_id" json:"categoryId"`
	DetailCode string `db:"detail_code" json:"detailCode"`

	// Budget figures in KRW. VAT is derived as 10% of the allocated budget
	// when upstream omits it; total is allocated + vat whenever both resolve.
	AllocatedBudget *int64 `db:"allocated_budget" json:"allocatedBudget"`
	VAT             *int64 `db:"vat" json:"vat"`
	TotalBudget     *int64 `db:"total_budget" json:"totalBudget"`

	StartDate        *time.Time `db:"start_date" json:"startDate"`
	EndDate          *time.Time `db:"end_date" json:"endDate"`
	OpeningDate      *time.Time `db:"opening_date" json:"openingDate"`
	BidCloseDate     *time.Time `db:"bid_close_date" json:"bidCloseDate"`
	RegistrationDate *time.Time `db:"registration_date" json:"registrationDate"`
	ChangeDate       *time.Time `db:"change_date" json:"changeDate"`

	Status     TenderStatus `db:"status" json:"status"`
	Unsuitable bool         `db:"unsuitable" json:"unsuitable"`

	// RawPayload keeps the upstream record verbatim for audit and debugging.
	RawPayload  json.RawMessage `db:"raw_payload" json:"-"`
	CollectedAt time.Time       `db:"collected_at" json:"collectedAt"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"-"`
}

// AttachmentStatus tracks the download lifecycle of a tender attachment.
type AttachmentStatus string

const (
	AttachmentPending     AttachmentStatus = "pending"
	AttachmentDownloading AttachmentStatus = "downloading"
	AttachmentCompleted   AttachmentStatus = "completed"
	AttachmentFailed      AttachmentStatus = "failed"
	AttachmentNoLink      AttachmentStatus = "no-link"
)

// Attachment is file metadata owned by a tender; deleted with it.
type Attachment struct {
	ID        int64            `db:"id" json:"id"`
	TenderID  int64            `db:"tender_id" json:"tenderId"`
	FileName  string           `db:"file_name" json:"fileName"`
	URL       string           `db:"url" json:"url"`
	Status    AttachmentStatus `db:"status" json:"status"`
	LocalPath *string          `db:"local_path" json:"localPath"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}

// Analysis is produced by the downstream scoring collaborator.
type Analysis struct {
	ID        int64     `db:"id" json:"id"`
	TenderID  int64     `db:"tender_id" json:"tenderId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Proposal is produced by the downstream document collaborator.
type Proposal struct {
	ID        int64     `db:"id" json:"id"`
	TenderID  int64     `db:"tender_id" json:"tenderId"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CollectionRun records one collector execution for observability.
type CollectionRun struct {
	RunID       string     `db:"run_id" json:"runId"`
	Status      string     `db:"status" json:"status"`
	Found       int        `db:"found" json:"found"`
	Created     int        `db:"created" json:"created"`
	Updated     int        `db:"updated" json:"updated"`
	Filtered    int        `db:"filtered" json:"filtered"`
	Errors      int        `db:"errors" json:"errors"`
	StartedAt   time.Time  `db:"started_at" json:"startedAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt"`
}
