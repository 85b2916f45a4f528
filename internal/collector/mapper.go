package collector

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"tenderwatch/internal/upstream"
	"tenderwatch/models"
)

const vatRate = 0.10

// categoryByPrefix maps 3-digit classification families to categories.
// Every target code lives in the 811 service family.
var categoryByPrefix = map[string]int{
	"811": models.CategoryServices,
}

// categoryByBusinessDiv is the coarse fallback when no prefix rule matches.
var categoryByBusinessDiv = map[string]int{
	"용역": models.CategoryServices,
	"공사": models.CategoryConstruction,
	"물품": models.CategoryGoods,
}

var dateLayouts = []string{
	"200601021504",
	"20060102150405",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"20060102",
	"2006-01-02",
}

// Mapper converts raw upstream records into normalized tenders.
type Mapper struct {
	logger *slog.Logger
}

func NewMapper(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{logger: logger}
}

// Map builds a tender from a raw record. It never fails structurally: a
// field that cannot be parsed becomes null and is logged, nothing more.
func (m *Mapper) Map(item upstream.Item, emptyCode bool, now time.Time) models.Tender {
	t := models.Tender{
		TenderNo:    item.First(fieldTenderNo),
		Title:       item.First(fieldTitle),
		Content:     item.First(fieldContent),
		Agency:      item.First(fieldAgency),
		Region:      item.First(fieldRegion),
		DetailCode:  strings.TrimSpace(item.First(fieldDetailCode)),
		RawPayload:  item.Raw,
		CollectedAt: now,
	}
	if t.Agency == "" {
		t.Agency = item.First(fieldDemandAgency)
	}

	t.CategoryID = m.deriveCategory(item, emptyCode)

	t.AllocatedBudget = m.parseAmount(item, fieldEstimatedPrice)
	t.VAT = m.parseAmount(item, fieldVAT)
	if t.VAT == nil && t.AllocatedBudget != nil {
		vat := int64(math.Round(float64(*t.AllocatedBudget) * vatRate))
		t.VAT = &vat
	}
	if t.AllocatedBudget != nil && t.VAT != nil {
		total := *t.AllocatedBudget + *t.VAT
		t.TotalBudget = &total
	}
	// asignBdgtAmt is never used for the total: upstream folds a
	// participation fee into it.

	t.StartDate = m.parseDate(item, fieldNoticeBeginDate)
	t.EndDate = m.parseDate(item, fieldNoticeEndDate)
	t.OpeningDate = m.parseDate(item, fieldOpeningDate)
	t.BidCloseDate = m.parseDate(item, fieldBidCloseDate)
	t.RegistrationDate = m.parseDate(item, fieldRegistrationDate)
	t.ChangeDate = m.parseDate(item, fieldChangeDate)

	t.Status = EvaluateStatus(t.OpeningDate, t.BidCloseDate, t.EndDate, now)

	return t
}

// deriveCategory resolves the category id, or nil when nothing matches:
// empty code -> other; 3-digit prefix family; coarse business division.
func (m *Mapper) deriveCategory(item upstream.Item, emptyCode bool) *int {
	if emptyCode {
		return categoryPtr(models.CategoryOther)
	}

	code := strings.TrimSpace(item.First(fieldDetailCode))
	if len(code) >= 3 {
		if id, ok := categoryByPrefix[code[:3]]; ok {
			return categoryPtr(id)
		}
	}

	div := item.First(fieldBusinessDiv)
	if id, ok := categoryByBusinessDiv[div]; ok {
		return categoryPtr(id)
	}
	return nil
}

func (m *Mapper) parseAmount(item upstream.Item, field string) *int64 {
	raw := item.First(field)
	if raw == "" {
		return nil
	}

	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "원"))
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		m.logger.Warn("unparsable amount", "field", field, "value", raw)
		return nil
	}

	amount := int64(math.Round(value))
	return &amount
}

func (m *Mapper) parseDate(item upstream.Item, field string) *time.Time {
	raw := item.First(field)
	if raw == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed
		}
	}

	m.logger.Warn("unparsable date", "field", field, "value", raw)
	return nil
}

func categoryPtr(id int) *int {
	return &id
}
