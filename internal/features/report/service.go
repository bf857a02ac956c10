package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/features/approval"
	"go-shareguard/internal/features/link"
	"go-shareguard/internal/features/user"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type ReportService interface {
	// ExportShareLinks renders every link created in [start, end] with its
	// approval detail as an xlsx workbook.
	ExportShareLinks(ctx context.Context, start, end time.Time) ([]byte, string, error)
}

type ReportServiceImpl struct {
	Links     link.LinkRepository
	Statuses  approval.StatusRepository
	Directory user.Directory
	Logger    *zap.Logger
}

func NewReportService(links link.LinkRepository, statuses approval.StatusRepository,
	directory user.Directory, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		Links:     links,
		Statuses:  statuses,
		Directory: directory,
		Logger:    logger,
	}
}

var reportColumns = []string{
	"Token", "File", "Owner", "Created", "Expires",
	"Outcome", "Rejected By", "Approval Detail", "Downloads", "First Download",
}

const cellTimeLayout = "2006-01-02 15:04:05"

func (s *ReportServiceImpl) ExportShareLinks(ctx context.Context, start, end time.Time) ([]byte, string, error) {
	links, err := s.Links.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Share Links"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	for i, col := range reportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx := range links {
		l := &links[rowIdx]
		rows, err := s.Statuses.ListByLink(ctx, l.ID)
		if err != nil {
			return nil, "", err
		}
		outcome, attribution := approval.ComputeOutcome(rows)

		values := []interface{}{
			l.Token,
			l.FileName(),
			s.nameOf(ctx, l.Owner),
			l.Ctime.Format(cellTimeLayout),
			l.ExpireAt.Format(cellTimeLayout),
			outcome.String(),
			s.nameOf(ctx, attribution),
			s.approvalDetail(ctx, rows),
			l.DownloadCount,
			"",
		}
		if l.FirstDownloadAt != nil {
			values[9] = l.FirstDownloadAt.Format(cellTimeLayout)
		}

		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("share-links-%s-%s.xlsx",
		start.Format("20060102"), end.Format("20060102"))
	return buf.Bytes(), filename, nil
}

// approvalDetail renders the per-reviewer rows as one readable cell, DLP
// first, then human steps in chain order.
func (s *ReportServiceImpl) approvalDetail(ctx context.Context, rows []approval.ApprovalStatus) string {
	ordered := make([]approval.ApprovalStatus, len(rows))
	copy(ordered, rows)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StepIndex < ordered[j].StepIndex
	})

	parts := make([]string, 0, len(ordered))
	for _, row := range ordered {
		name := row.Identity
		if row.IsDLP() {
			name = "content scan"
		} else {
			name = s.nameOf(ctx, row.Identity)
		}
		entry := fmt.Sprintf("%s: %s", name, row.Status)
		if row.Vtime != nil {
			entry += " (" + row.Vtime.Format(cellTimeLayout) + ")"
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, "; ")
}

func (s *ReportServiceImpl) nameOf(ctx context.Context, identity string) string {
	if identity == "" {
		return ""
	}
	if identity == common_models.DLPIdentity {
		return "content scan"
	}
	if name := s.Directory.DisplayName(ctx, identity); name != "" {
		return name
	}
	return identity
}
