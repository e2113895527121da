// internal/models/query_types.go
package models

import "time"

// ApplicationSummary is one row of the paginated application listing.
type ApplicationSummary struct {
	ID                 int64     `json:"id"`
	StartupVideoLink   string    `json:"startupVideoLink"`
	MoaFile            *string   `json:"moaFile"`
	ReconstructionFile *string   `json:"reconstructionFile"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type Pagination struct {
	Total       int  `json:"total"`
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasMore     bool `json:"hasMore"`
	HasPrevious bool `json:"hasPrevious"`
}

// NewPagination derives the page metadata for a window over total rows.
func NewPagination(total, limit, offset int) Pagination {
	p := Pagination{Total: total, Limit: limit, Offset: offset}
	if limit > 0 {
		p.CurrentPage = offset/limit + 1
		p.TotalPages = (total + limit - 1) / limit
	}
	p.HasMore = offset+limit < total
	p.HasPrevious = offset > 0
	return p
}
