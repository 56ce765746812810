package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gtourv/PLprediction/internal/league"
	"github.com/gtourv/PLprediction/internal/league/leaguetest"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleBoard() league.Leaderboard {
	teams := league.Defaults()
	at := time.Date(2025, 8, 10, 9, 30, 0, 0, time.UTC)
	return league.Rank([]league.Submission{
		{ID: "b", Name: "Bob", Prediction: leaguetest.Reversed(teams), CreatedAt: at.Add(time.Hour)},
		{ID: "a", Name: "Alice", Prediction: teams, CreatedAt: at},
	}, teams)
}

func TestWorkbook(t *testing.T) {
	data, err := Workbook(sampleBoard())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(leaderboardSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Rank", "Name", "Total", "Submitted"}, rows[0])
	assert.Equal(t, []string{"1", "Alice", "0", "2025-08-10T09:30:00Z"}, rows[1])
	assert.Equal(t, []string{"2", "Bob", "200", "2025-08-10T10:30:00Z"}, rows[2])

	details, err := f.GetRows(detailsSheet)
	require.NoError(t, err)
	assert.Len(t, details, 1+2*league.Size)
	assert.Equal(t, []string{"Bob", "Wolverhampton Wanderers", "1", "20", "19"}, details[1+league.Size])

	standings, err := f.GetRows(standingsSheet)
	require.NoError(t, err)
	assert.Len(t, standings, 1+league.Size)
	assert.Equal(t, []string{"1", "Arsenal"}, standings[1])
}

func TestChart(t *testing.T) {
	tests := []struct {
		name  string
		board league.Leaderboard
	}{
		{"with submissions", sampleBoard()},
		{"all perfect", league.Rank([]league.Submission{{Name: "Alice", Prediction: league.Defaults()}}, league.Defaults())},
		{"empty", league.Leaderboard{Standings: league.Defaults()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			png, err := Chart(tt.board)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(png, pngMagic))
		})
	}
}
