package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/teamdash/team-dashboard/internal/apiclient"
	"github.com/teamdash/team-dashboard/internal/listquery"
	"github.com/teamdash/team-dashboard/internal/models"
)

const (
	rosterSheet = "Team"
	// Upper bound on pages read for one export.
	maxExportPages = 200
)

var rosterHeader = []interface{}{"Name", "Email", "Position", "Department", "Risk Level", "Performance"}

type exportService struct {
	api    *apiclient.Client
	logger *slog.Logger
}

func NewExportService(api *apiclient.Client, logger *slog.Logger) ExportService {
	return &exportService{api: api, logger: logger}
}

// ExportTeamRoster writes every team member matching search to an XLSX workbook
func (s *exportService) ExportTeamRoster(ctx context.Context, search string) ([]byte, error) {
	members, err := s.collectMembers(ctx, search)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(rosterSheet, "A1", &rosterHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(rosterSheet, "A1", "F1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, m := range members {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{m.Name, m.Email, m.Position, m.Department, m.RiskLevel, ""}
		if m.PerformanceScore != nil {
			row[5] = *m.PerformanceScore
		}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(rosterSheet, "A", "F", 22); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	requestLogger(ctx, s.logger).InfoContext(ctx, "Team roster exported", "rows", len(members))
	return buf.Bytes(), nil
}

func (s *exportService) collectMembers(ctx context.Context, search string) ([]models.TeamMember, error) {
	const pageSize = 50

	var members []models.TeamMember
	q := listquery.Query{Search: search, Page: 1, PageSize: pageSize}
	for q.Page <= maxExportPages {
		res, err := s.api.TeamMembers.List(ctx, q)
		if err != nil {
			return nil, translateUpstream("team roster", "export", err)
		}
		members = append(members, res.Items...)

		want := res.TotalCount
		if q.SearchActive() {
			want = res.FilteredCount
		}
		if len(res.Items) == 0 || len(members) >= want {
			break
		}
		q.Page++
	}
	return members, nil
}
