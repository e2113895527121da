// Package query serves paginated listings and single aggregates to readers.
package query

import (
	"context"
	stderrors "errors"
	"strings"

	"startup-intake/internal/common/errors"
	"startup-intake/internal/common/logger"
	"startup-intake/internal/intake/store"
	"startup-intake/internal/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListParams are the raw listing parameters. Page, when positive, takes
// precedence over Offset.
type ListParams struct {
	Limit  int
	Offset int
	Page   int
	Search string
}

// Normalize clamps the parameters and resolves Page into Offset.
func (p ListParams) Normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Page > 0 {
		p.Offset = (p.Page - 1) * p.Limit
	}
	p.Page = p.Offset/p.Limit + 1
	p.Search = strings.TrimSpace(p.Search)
	return p
}

type ListResult struct {
	Applications []models.ApplicationSummary `json:"applications"`
	Pagination   models.Pagination           `json:"pagination"`
}

type Service struct {
	repo   store.Repository
	logger logger.Logger
}

func NewService(repo store.Repository, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log.WithFields(map[string]interface{}{"component": "query"}),
	}
}

func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	p := params.Normalize()

	page, err := s.repo.ListPage(ctx, p.Limit, p.Offset, p.Search)
	if err != nil {
		s.logger.Error("list applications failed", map[string]interface{}{
			"limit":  p.Limit,
			"offset": p.Offset,
			"error":  err.Error(),
		})
		return nil, errors.NewQueryExecutionFailedError("list applications", err)
	}

	s.logger.Debug("applications listed", map[string]interface{}{
		"count":  len(page.Items),
		"total":  page.Total,
		"search": p.Search,
	})
	return &ListResult{
		Applications: page.Items,
		Pagination:   models.NewPagination(page.Total, p.Limit, p.Offset),
	}, nil
}

// Get returns the full aggregate with docRequired derived from the policy.
func (s *Service) Get(ctx context.Context, id int64) (*models.Application, error) {
	app, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return app, nil
	case stderrors.Is(err, store.ErrNotFound):
		return nil, errors.NewApplicationNotFoundError(id, err)
	default:
		return nil, errors.NewQueryExecutionFailedError("get application", err)
	}
}
