package query

import (
	"context"
	"errors"
	"testing"

	"startup-intake/internal/common/logger"
	"startup-intake/internal/intake/store"
	"startup-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	store.Repository

	page    *store.Page
	err     error
	limit   int
	offset  int
	search  string
	getByID func(id int64) (*models.Application, error)
}

func (r *stubRepository) ListPage(_ context.Context, limit, offset int, search string) (*store.Page, error) {
	r.limit, r.offset, r.search = limit, offset, search
	return r.page, r.err
}

func (r *stubRepository) GetByID(_ context.Context, id int64) (*models.Application, error) {
	return r.getByID(id)
}

func TestListParams_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListParams
		want ListParams
	}{
		{"defaults", ListParams{}, ListParams{Limit: 20, Offset: 0, Page: 1}},
		{"limit capped", ListParams{Limit: 500}, ListParams{Limit: 100, Page: 1}},
		{"negative offset clamped", ListParams{Limit: 10, Offset: -5}, ListParams{Limit: 10, Page: 1}},
		{"page overrides offset", ListParams{Limit: 10, Offset: 3, Page: 3}, ListParams{Limit: 10, Offset: 20, Page: 3}},
		{"offset derives page", ListParams{Limit: 10, Offset: 25}, ListParams{Limit: 10, Offset: 25, Page: 3}},
		{"search trimmed", ListParams{Search: "  pitch "}, ListParams{Limit: 20, Page: 1, Search: "pitch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestService_List(t *testing.T) {
	repo := &stubRepository{page: &store.Page{
		Items: []models.ApplicationSummary{{ID: 9}, {ID: 8}},
		Total: 12,
	}}
	svc := NewService(repo, logger.NewTestLogger(t))

	res, err := svc.List(context.Background(), ListParams{Limit: 2, Page: 2, Search: " youtu "})
	require.NoError(t, err)

	assert.Equal(t, 2, repo.limit)
	assert.Equal(t, 2, repo.offset)
	assert.Equal(t, "youtu", repo.search)
	assert.Len(t, res.Applications, 2)
	assert.Equal(t, models.Pagination{
		Total: 12, Limit: 2, Offset: 2,
		CurrentPage: 2, TotalPages: 6,
		HasMore: true, HasPrevious: true,
	}, res.Pagination)
}

func TestService_List_Error(t *testing.T) {
	repo := &stubRepository{err: store.ErrQueryFailed}
	svc := NewService(repo, logger.NewTestLogger(t))

	_, err := svc.List(context.Background(), ListParams{})
	assert.True(t, errors.Is(err, store.ErrQueryFailed))
}

func TestService_Get(t *testing.T) {
	repo := &stubRepository{getByID: func(id int64) (*models.Application, error) {
		if id == 1 {
			return &models.Application{ID: 1}, nil
		}
		return nil, store.ErrNotFound
	}}
	svc := NewService(repo, logger.NewTestLogger(t))

	app, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), app.ID)

	_, err = svc.Get(context.Background(), 2)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
