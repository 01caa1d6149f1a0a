package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/validator"
)

type reportService struct {
	proposalService ProposalService
	logger          *slog.Logger
}

// NewReportService builds a report service on an existing proposal service
// so exports apply the same visibility and display rules as the list API.
func NewReportService(proposalService ProposalService, logger *slog.Logger) ReportService {
	return &reportService{
		proposalService: proposalService,
		logger:          logger,
	}
}

var proposalReportHeaders = []string{
	"Plan Code", "Academic Year", "Semester", "Status",
	"Start Date", "End Date", "Owner", "Exam Sets",
}

// ExportProposals renders the filtered proposal list as an xlsx workbook.
// Teachers only export what they own; admins export everything matching the
// filters.
func (s *reportService) ExportProposals(ctx context.Context, filters repositories.ProposalFilters, actor Actor) ([]byte, error) {
	s.logger.Info("Exporting proposals report", "user_id", actor.UserID)

	// Walk every page rather than exporting a single one.
	filters.Page = 1
	filters.Size = 100

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Proposals"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, header := range proposalReportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := 2
	for {
		page, err := s.proposalService.List(ctx, filters, actor)
		if err != nil {
			return nil, fmt.Errorf("failed to list proposals for export: %w", err)
		}

		for _, p := range page.Proposals {
			values := []interface{}{
				p.PlanCode,
				p.AcademicYear,
				p.Semester,
				string(p.Status),
				formatReportDate(p.StartDate),
				formatReportDate(p.EndDate),
				p.OwnerDisplay,
				p.ExamSetCount,
			}
			for col, value := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return nil, fmt.Errorf("failed to build cell: %w", err)
				}
				if err := f.SetCellValue(sheet, cell, value); err != nil {
					return nil, fmt.Errorf("failed to write cell: %w", err)
				}
			}
			row++
		}

		if filters.Page >= page.TotalPages {
			break
		}
		filters.Page++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Proposals report exported", "rows", row-2)
	return buf.Bytes(), nil
}

func formatReportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(validator.DateLayout)
}
