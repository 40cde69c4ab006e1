package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/storage"
)

const maxPageSize = 100

// ReportRepo 归档报告的只读访问
type ReportRepo interface {
	ListReports(ctx context.Context, page, pageSize int) ([]*storage.ReportSummary, int, error)
	GetReport(ctx context.Context, id int) (*storage.Report, error)
}

// ListReportsReply 归档报告分页结果
type ListReportsReply struct {
	Reports []*storage.ReportSummary `json:"reports"`
	Total   int                      `json:"total"`
}

// ArchiveService 浏览已导出的历史报告，repo 为空表示未启用归档
type ArchiveService struct {
	repo ReportRepo
	log  *log.Helper
}

func NewArchiveService(repo ReportRepo, logger log.Logger) *ArchiveService {
	return &ArchiveService{repo: repo, log: log.NewHelper(logger)}
}

func (s *ArchiveService) ListReports(ctx context.Context, page, pageSize int) (*ListReportsReply, error) {
	if s.repo == nil {
		return nil, archiveDisabled()
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	reports, total, err := s.repo.ListReports(ctx, page, pageSize)
	if err != nil {
		s.log.WithContext(ctx).Errorf("list reports: %v", err)
		return nil, errors.InternalServer("ARCHIVE_ERROR", err.Error())
	}
	if reports == nil {
		reports = []*storage.ReportSummary{}
	}
	return &ListReportsReply{Reports: reports, Total: total}, nil
}

func (s *ArchiveService) GetReport(ctx context.Context, id int) (*storage.Report, error) {
	if s.repo == nil {
		return nil, archiveDisabled()
	}
	r, err := s.repo.GetReport(ctx, id)
	if stderrors.Is(err, storage.ErrNotFound) {
		return nil, errors.NotFound("REPORT_NOT_FOUND", fmt.Sprintf("report %d not found", id))
	}
	if err != nil {
		s.log.WithContext(ctx).Errorf("get report %d: %v", id, err)
		return nil, errors.InternalServer("ARCHIVE_ERROR", err.Error())
	}
	return r, nil
}

func archiveDisabled() error {
	return errors.ServiceUnavailable("ARCHIVE_DISABLED", "report archive is not configured")
}
