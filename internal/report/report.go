// Package report renders the leaderboard as downloadable files.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xuri/excelize/v2"

	"github.com/gtourv/PLprediction/internal/league"
)

const (
	leaderboardSheet = "Leaderboard"
	detailsSheet     = "Details"
	standingsSheet   = "Standings"
)

// Workbook writes the leaderboard as an XLSX file with three sheets: the
// ranking, the per-team breakdown of every submission, and the table it was
// scored against.
func Workbook(board league.Leaderboard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", leaderboardSheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	for _, name := range []string{detailsSheet, standingsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	rows := [][]interface{}{{"Rank", "Name", "Total", "Submitted"}}
	for i, e := range board.Submissions {
		rows = append(rows, []interface{}{i + 1, e.Name, e.Score.Total, e.CreatedAt.UTC().Format(time.RFC3339)})
	}
	if err := writeRows(f, leaderboardSheet, rows); err != nil {
		return nil, err
	}

	rows = [][]interface{}{{"Name", "Team", "Predicted", "Actual", "Score"}}
	for _, e := range board.Submissions {
		for _, d := range e.Score.Details {
			rows = append(rows, []interface{}{e.Name, d.Team, d.Predicted, d.Actual, d.Score})
		}
	}
	if err := writeRows(f, detailsSheet, rows); err != nil {
		return nil, err
	}

	rows = [][]interface{}{{"Position", "Team"}}
	for i, team := range board.Standings {
		rows = append(rows, []interface{}{i + 1, team})
	}
	if err := writeRows(f, standingsSheet, rows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// Chart renders the leaderboard totals as a PNG bar chart, best first.
func Chart(board league.Leaderboard) ([]byte, error) {
	const barWidth, barSpacing = 40, 20

	bars := make([]chart.Value, 0, len(board.Submissions))
	maxTotal := 1
	for _, e := range board.Submissions {
		bars = append(bars, chart.Value{
			Label: e.Name,
			Value: float64(e.Score.Total),
			Style: chart.Style{FillColor: drawing.ColorFromHex("37003c"), StrokeColor: drawing.ColorFromHex("37003c")},
		})
		if e.Score.Total > maxTotal {
			maxTotal = e.Score.Total
		}
	}
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Label: "No submissions yet", Value: 0})
	}

	width := len(bars)*(barWidth+barSpacing) + 160
	if width < 480 {
		width = 480
	}

	graph := chart.BarChart{
		Title:      "Prediction leaderboard (total, lower is better)",
		Width:      width,
		Height:     480,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxTotal)},
		},
		Bars: bars,
	}

	buf := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}
	return buf.Bytes(), nil
}
