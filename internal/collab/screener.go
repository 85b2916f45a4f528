package collab

import (
	"context"
	"fmt"
	"strings"

	"tenderwatch/models"
)

// RuleScreener flags tenders whose title or content hits an exclusion
// keyword. A hit flips the unsuitable flag and records an analysis row
// naming the keyword; the tender itself is kept.
type RuleScreener struct {
	store    Storage
	keywords []string
}

var _ KeywordScreener = (*RuleScreener)(nil)

func NewRuleScreener(store Storage, keywords []string) *RuleScreener {
	return &RuleScreener{store: store, keywords: keywords}
}

func (s *RuleScreener) Screen(ctx context.Context, tenderID int64, tenderNo string) Result {
	if len(s.keywords) == 0 {
		return Result{OK: true}
	}

	t, err := s.store.GetTender(ctx, tenderID)
	if err != nil {
		return Result{Reason: fmt.Sprintf("load tender: %v", err)}
	}

	haystack := strings.ToLower(t.Title + " " + t.Content)
	for _, keyword := range s.keywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw == "" || !strings.Contains(haystack, kw) {
			continue
		}

		if err := s.store.SetUnsuitable(ctx, tenderID, true); err != nil {
			return Result{Reason: fmt.Sprintf("flag unsuitable: %v", err)}
		}
		analysis := &models.Analysis{
			TenderID: tenderID,
			Content:  fmt.Sprintf("excluded by keyword %q", strings.TrimSpace(keyword)),
		}
		if err := s.store.CreateAnalysis(ctx, analysis); err != nil {
			return Result{Reason: fmt.Sprintf("record screening: %v", err)}
		}
		return Result{OK: true}
	}

	return Result{OK: true}
}
