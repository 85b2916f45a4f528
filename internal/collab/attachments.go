package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tenderwatch/models"
)

// The announcement payload carries up to ten numbered spec-document slots.
const maxSpecDocs = 10

// MetadataCollector registers attachment metadata found in the raw upstream
// payload. It only creates rows; downloading is a separate worker's job, so
// new entries start out pending (or no-link when the slot has a file name
// but no URL).
type MetadataCollector struct {
	store Storage
}

var _ AttachmentCollector = (*MetadataCollector)(nil)

func NewMetadataCollector(store Storage) *MetadataCollector {
	return &MetadataCollector{store: store}
}

func (c *MetadataCollector) Collect(ctx context.Context, tenderID int64, tenderNo string) Result {
	t, err := c.store.GetTender(ctx, tenderID)
	if err != nil {
		return Result{Reason: fmt.Sprintf("load tender: %v", err)}
	}
	if len(t.RawPayload) == 0 {
		return Result{OK: true}
	}

	var payload map[string]any
	if err := json.Unmarshal(t.RawPayload, &payload); err != nil {
		return Result{Reason: fmt.Sprintf("decode payload: %v", err)}
	}

	existing, err := c.store.GetAttachmentsByTender(ctx, tenderID)
	if err != nil {
		return Result{Reason: fmt.Sprintf("list attachments: %v", err)}
	}
	seen := make(map[string]bool, len(existing))
	for _, a := range existing {
		seen[a.FileName] = true
	}

	found := 0
	for i := 1; i <= maxSpecDocs; i++ {
		name := stringField(payload, fmt.Sprintf("ntceSpecFileNm%d", i))
		url := stringField(payload, fmt.Sprintf("ntceSpecDocUrl%d", i))
		if name == "" && url == "" {
			continue
		}
		if name == "" {
			name = url
		}
		if seen[name] {
			continue
		}

		status := models.AttachmentPending
		if url == "" {
			status = models.AttachmentNoLink
		}
		a := &models.Attachment{TenderID: tenderID, FileName: name, URL: url, Status: status}
		if err := c.store.CreateAttachment(ctx, a); err != nil {
			return Result{FilesFound: found, Reason: fmt.Sprintf("register attachment: %v", err)}
		}
		seen[name] = true
		found++
	}

	return Result{OK: true, FilesFound: found}
}

func stringField(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return strings.TrimSpace(value)
}
