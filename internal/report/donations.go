// Package report renders campaign donations as spreadsheets.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fundraiser/internal/campaign"
	"fundraiser/internal/domain"
	"fundraiser/internal/money"
)

const (
	SummarySheet   = "Summary"
	DonationsSheet = "Donations"
)

var DonationsHeader = []string{
	"Donation ID",
	"Version",
	"Timestamp",
	"Donor ID",
	"Donor Code",
	"Donor Name",
	"Amount (minor units)",
	"Amount",
	"Restoration ID",
	"Restoration Name",
	"Restoration Units",
}

var donationColumnWidths = []float64{22, 9, 22, 22, 14, 24, 20, 16, 18, 24, 24}

// DonationsWorkbook builds an .xlsx file with a summary sheet for the campaign
// and one row per donation lineage showing its latest version.
func DonationsWorkbook(snap campaign.Snapshot, donations []domain.Donation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	index, err := f.NewSheet(DonationsSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummary(f, snap, headerStyle); err != nil {
		return nil, err
	}

	if err := writeRow(f, DonationsSheet, 1, toAny(DonationsHeader)); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(DonationsHeader), 1)
	if err := f.SetCellStyle(DonationsSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("set header style: %w", err)
	}
	for i, w := range donationColumnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(DonationsSheet, col, col, w); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	scale := snap.Details.CurrencyScale
	for i, d := range donations {
		row := []any{
			d.ID.String(),
			int(d.Version),
			d.Timestamp.UTC().Format(time.RFC3339),
			d.DonorID.String(),
			d.DonorCode,
			d.DonorName,
			d.Amount.String(),
			money.Major(d.Amount, scale),
			d.Restoration.ID.String(),
			d.Restoration.Name,
			joinUnits(d.Restoration.Units),
		}
		if err := writeRow(f, DonationsSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(DonationsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	f.SetActiveSheet(index)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, snap campaign.Snapshot, headerStyle int) error {
	d := snap.Details
	status := "active"
	if snap.Archived {
		status = "archived"
	}
	rows := [][]any{
		{"Campaign", d.ID.String()},
		{"Registry", snap.Registry},
		{"Topic", d.Topic},
		{"Promoter", d.Promoter},
		{"Starts", d.StartAt.UTC().Format(time.RFC3339)},
		{"Ends", d.EndAt.UTC().Format(time.RFC3339)},
		{"Currency", d.Currency},
		{"Goal", money.Major(d.Goal, d.CurrencyScale)},
		{"Funds", money.Major(snap.TotalFunds, d.CurrencyScale)},
		{"Progress %", money.Progress(snap.TotalFunds, d.Goal).StringFixed(2)},
		{"Donations", snap.TotalDonations},
		{"Status", status},
	}
	for i, r := range rows {
		if err := writeRow(f, SummarySheet, i+1, r); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle); err != nil {
		return fmt.Errorf("set summary style: %w", err)
	}
	return f.SetColWidth(SummarySheet, "A", "B", 24)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func joinUnits(units []uint64) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = strconv.FormatUint(u, 10)
	}
	return strings.Join(parts, ",")
}
