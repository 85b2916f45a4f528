package collector

import (
	"strings"

	"tenderwatch/internal/upstream"
)

// serviceDivGeneral is the upstream marker for general-service announcements.
// Records carrying any other division (기술용역 etc.) are out of scope.
const serviceDivGeneral = "일반용역"

// DetailCode is a public-procurement service classification code.
type DetailCode string

// The canonical detail codes this pipeline collects. System-integration
// announcements arrive under the software-development code upstream, so the
// two names deliberately share one value.
const (
	CodeSoftwareDevelopment DetailCode = "8111189901"
	CodeSystemIntegration   DetailCode = "8111189901"
	CodeSystemMaintenance   DetailCode = "8111219901"
	CodeSystemOperation     DetailCode = "8111229901"
	CodeDataProcessing      DetailCode = "8111200001"
	CodeBigDataAnalysis     DetailCode = "8111200002"
	CodeSoftwareMaintenance DetailCode = "8111159801"
	CodeITConsulting        DetailCode = "8115169901"
	CodeEquipmentUpkeep     DetailCode = "8111249901"
)

var targetDetailCodes = map[DetailCode]struct{}{
	CodeSoftwareDevelopment: {},
	CodeSystemMaintenance:   {},
	CodeSystemOperation:     {},
	CodeDataProcessing:      {},
	CodeBigDataAnalysis:     {},
	CodeSoftwareMaintenance: {},
	CodeITConsulting:        {},
	CodeEquipmentUpkeep:     {},
}

// TargetDetailCodes returns the allow-list in stable order, used by the
// collector to drive per-code upstream queries.
func TargetDetailCodes() []DetailCode {
	return []DetailCode{
		CodeSoftwareDevelopment,
		CodeSystemMaintenance,
		CodeSystemOperation,
		CodeDataProcessing,
		CodeBigDataAnalysis,
		CodeSoftwareMaintenance,
		CodeITConsulting,
		CodeEquipmentUpkeep,
	}
}

// FilterResult reports the cheap pre-mapping accept/reject decision.
type FilterResult struct {
	Accepted  bool
	EmptyCode bool
}

// AcceptRecord applies the classification rules in order:
//  1. a present service division other than general service rejects;
//  2. an empty detail code passes through (categorized as "other" later);
//  3. otherwise the code must be an exact member of the allow-list.
//
// Matching is exact string equality only; a code that merely extends one of
// the targets is rejected.
func AcceptRecord(item upstream.Item) FilterResult {
	div := item.First(fieldServiceDiv)
	if div != "" && div != serviceDivGeneral {
		return FilterResult{}
	}

	code := strings.TrimSpace(item.First(fieldDetailCode))
	if code == "" {
		return FilterResult{Accepted: true, EmptyCode: true}
	}

	if _, ok := targetDetailCodes[DetailCode(code)]; ok {
		return FilterResult{Accepted: true}
	}
	return FilterResult{}
}
