package collector

// Upstream record field names. The API mixes abbreviated Korean romanization;
// these match the wire exactly.
const (
	fieldTenderNo         = "bidNtceNo"
	fieldTitle            = "bidNtceNm"
	fieldContent          = "ntceCont"
	fieldAgency           = "ntceInsttNm"
	fieldDemandAgency     = "dminsttNm"
	fieldRegion           = "prtcptLmtRgnNm"
	fieldEstimatedPrice   = "presmptPrce"
	fieldVAT              = "VAT"
	fieldAssignedBudget   = "asignBdgtAmt"
	fieldNoticeBeginDate  = "bidNtceBgnDt"
	fieldNoticeEndDate    = "bidNtceEndDt"
	fieldOpeningDate      = "opengDt"
	fieldBidCloseDate     = "bidClseDt"
	fieldRegistrationDate = "rgstDt"
	fieldChangeDate       = "chgDt"
	fieldDetailCode       = "pubPrcrmntClsfcNo"
	fieldServiceDiv       = "srvceDivNm"
	fieldBusinessDiv      = "bsnsDivNm"
)
