package league

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtourv/PLprediction/internal/apperr"
)

func reversed(o Ordering) Ordering {
	out := make(Ordering, len(o))
	for i, t := range o {
		out[len(o)-1-i] = t
	}
	return out
}

func shuffled(o Ordering, seed int64) Ordering {
	out := make(Ordering, len(o))
	copy(out, o)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestScore_Identity(t *testing.T) {
	teams := Defaults()
	report := Score(teams, teams)

	assert.Equal(t, 0, report.Total)
	require.Len(t, report.Details, Size)
	for i, d := range report.Details {
		assert.Equal(t, teams[i], d.Team)
		assert.Equal(t, i+1, d.Predicted)
		assert.Equal(t, i+1, d.Actual)
		assert.Zero(t, d.Score)
	}
}

func TestScore_FourTeamReversal(t *testing.T) {
	current := Ordering{"A", "B", "C", "D"}
	report := Score(reversed(current), current)

	want := Report{
		Total: 8,
		Details: []Detail{
			{Team: "D", Predicted: 1, Actual: 4, Score: 3},
			{Team: "C", Predicted: 2, Actual: 3, Score: 1},
			{Team: "B", Predicted: 3, Actual: 2, Score: 1},
			{Team: "A", Predicted: 4, Actual: 1, Score: 3},
		},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("Score() mismatch (-want +got):\n%s", diff)
	}
}

func TestScore_ReversalIsWorst(t *testing.T) {
	current := Ordering{"A", "B", "C", "D"}
	worst := Score(reversed(current), current).Total

	perms := [][]string{
		{"A", "B", "C", "D"}, {"B", "A", "C", "D"}, {"D", "A", "B", "C"},
		{"C", "D", "A", "B"}, {"D", "C", "A", "B"}, {"B", "D", "A", "C"},
	}
	for _, p := range perms {
		assert.LessOrEqual(t, Score(Ordering(p), current).Total, worst, "permutation %v", p)
	}
}

func TestScore_FullReversal(t *testing.T) {
	teams := Defaults()
	assert.Equal(t, 200, Score(reversed(teams), teams).Total)
}

func TestScore_Symmetric(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		p := shuffled(DefaultTeams, seed)
		c := shuffled(DefaultTeams, seed*7919)
		assert.Equal(t, Score(p, c).Total, Score(c, p).Total, "seed %d", seed)
	}
}

func TestScore_MissingTeamUsesSentinel(t *testing.T) {
	current := Ordering{"A", "B", "C", "D"}
	prediction := Ordering{"A", "B", "X", "D"}

	report := Score(prediction, current)

	assert.Equal(t, Detail{Team: "X", Predicted: 3, Actual: 0, Score: 3}, report.Details[2])
	assert.Equal(t, 3, report.Total)
}

func TestNewOrdering(t *testing.T) {
	t.Run("valid and trimmed", func(t *testing.T) {
		in := Defaults()
		in[0] = "  Arsenal "
		got, err := NewOrdering(in)
		require.NoError(t, err)
		assert.Equal(t, DefaultTeams, got)
	})

	tests := []struct {
		name  string
		teams []string
	}{
		{"too short", DefaultTeams[:19]},
		{"too long", append(Defaults(), "Leicester City")},
		{"empty", nil},
		{"blank name", func() []string { o := Defaults(); o[5] = "  "; return o }()},
		{"duplicate", func() []string { o := Defaults(); o[19] = o[0]; return o }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrdering(tt.teams)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestRank(t *testing.T) {
	teams := Defaults()
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	subs := []Submission{
		{ID: "3", Name: "Bob", Prediction: reversed(teams), CreatedAt: now},
		{ID: "2", Name: "Carol", Prediction: teams, CreatedAt: now.Add(time.Minute)},
		{ID: "1", Name: "Alice", Prediction: teams, CreatedAt: now},
	}

	board := Rank(subs, teams)

	require.Len(t, board.Submissions, 3)
	assert.Equal(t, teams, board.Standings)
	assert.Equal(t, []string{"Alice", "Carol", "Bob"}, []string{
		board.Submissions[0].Name, board.Submissions[1].Name, board.Submissions[2].Name,
	})
	assert.Equal(t, 0, board.Submissions[0].Score.Total)
	assert.Equal(t, 200, board.Submissions[2].Score.Total)
}

func TestOrdering_Position(t *testing.T) {
	o := Ordering{"A", "B", "C"}
	assert.Equal(t, 1, o.Position("A"))
	assert.Equal(t, 3, o.Position("C"))
	assert.Equal(t, 0, o.Position("Z"))
}

func TestScore_ActualMatchesPosition(t *testing.T) {
	current := shuffled(Defaults(), 7)
	prediction := shuffled(Defaults(), 11)
	prediction[0] = "Sunderland AFC"

	for _, d := range Score(prediction, current).Details {
		assert.Equal(t, current.Position(d.Team), d.Actual, d.Team)
	}
}
