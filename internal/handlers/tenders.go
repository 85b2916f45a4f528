package handlers

import (
	"net/http"
	"strconv"

	"tenderwatch/models"
)

const (
	defaultLimit = 20
	maxLimit     = 50
)

type listParams struct {
	Status     models.TenderStatus
	CategoryID int
	Limit      int
	Offset     int
}

// parseListParams reads status/category/limit/offset query parameters.
// Invalid values fall back to defaults rather than failing the request.
func parseListParams(r *http.Request) listParams {
	params := listParams{Limit: defaultLimit}

	if s := models.TenderStatus(r.URL.Query().Get("status")); allowedStatuses[s] {
		params.Status = s
	}

	if c := r.URL.Query().Get("category"); c != "" {
		if id, err := strconv.Atoi(c); err == nil && id > 0 {
			params.CategoryID = id
		}
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if limit, err := strconv.Atoi(l); err == nil && limit > 0 {
			if limit > maxLimit {
				limit = maxLimit
			}
			params.Limit = limit
		}
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		if offset, err := strconv.Atoi(o); err == nil && offset > 0 {
			params.Offset = offset
		}
	}

	return params
}
