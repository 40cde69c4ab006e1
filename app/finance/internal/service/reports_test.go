package service

import (
	"context"
	"errors"
	"testing"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/storage"
)

type fakeRepo struct {
	page, pageSize int
	err            error
}

func (f *fakeRepo) ListReports(_ context.Context, page, pageSize int) ([]*storage.ReportSummary, int, error) {
	f.page, f.pageSize = page, pageSize
	if f.err != nil {
		return nil, 0, f.err
	}
	return []*storage.ReportSummary{{ID: 3, Epoch: "e3", TickerCount: 2, SummaryCount: 5}}, 1, nil
}

func (f *fakeRepo) GetReport(_ context.Context, id int) (*storage.Report, error) {
	if id != 3 {
		return nil, storage.ErrNotFound
	}
	return &storage.Report{ID: 3, Epoch: "e3", Content: "# Daily Market Pulse\n"}, nil
}

func TestArchive_ListReportsPaging(t *testing.T) {
	repo := &fakeRepo{}
	s := NewArchiveService(repo, log.DefaultLogger)

	reply, err := s.ListReports(context.Background(), 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, reply.Total)
	require.Len(t, reply.Reports, 1)
	assert.Equal(t, 1, repo.page)
	assert.Equal(t, maxPageSize, repo.pageSize)

	_, err = s.ListReports(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.page)
	assert.Equal(t, 10, repo.pageSize)
}

func TestArchive_ListReportsError(t *testing.T) {
	s := NewArchiveService(&fakeRepo{err: errors.New("connection refused")}, log.DefaultLogger)

	_, err := s.ListReports(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Equal(t, 500, kerrors.Code(err))
}

func TestArchive_GetReport(t *testing.T) {
	s := NewArchiveService(&fakeRepo{}, log.DefaultLogger)

	r, err := s.GetReport(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "e3", r.Epoch)

	_, err = s.GetReport(context.Background(), 4)
	require.Error(t, err)
	assert.Equal(t, 404, kerrors.Code(err))
	assert.Equal(t, "REPORT_NOT_FOUND", kerrors.Reason(err))
}

func TestArchive_Disabled(t *testing.T) {
	s := NewArchiveService(nil, log.DefaultLogger)

	_, err := s.ListReports(context.Background(), 1, 10)
	assert.Equal(t, 503, kerrors.Code(err))

	_, err = s.GetReport(context.Background(), 1)
	assert.Equal(t, "ARCHIVE_DISABLED", kerrors.Reason(err))
}
