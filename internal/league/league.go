package league

import (
	"fmt"
	"strings"
	"time"

	"github.com/gtourv/PLprediction/internal/apperr"
)

// Size is the number of clubs in the league table.
const Size = 20

// Ordering is a ranked list of club names, position 1 first.
type Ordering []string

// NewOrdering validates teams and returns them as an Ordering.
// Names are trimmed; the list must hold exactly Size distinct, non-empty names.
func NewOrdering(teams []string) (Ordering, error) {
	if len(teams) != Size {
		return nil, apperr.InvalidInput(fmt.Sprintf("expected %d teams, got %d", Size, len(teams)))
	}
	seen := make(map[string]struct{}, len(teams))
	out := make(Ordering, len(teams))
	for i, t := range teams {
		name := strings.TrimSpace(t)
		if name == "" {
			return nil, apperr.InvalidInput(fmt.Sprintf("team at position %d is empty", i+1))
		}
		if _, dup := seen[name]; dup {
			return nil, apperr.InvalidInput(fmt.Sprintf("team %q listed more than once", name))
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out, nil
}

// Position returns the 1-indexed position of team, or 0 when it is not listed.
func (o Ordering) Position(team string) int {
	for i, t := range o {
		if t == team {
			return i + 1
		}
	}
	return 0
}

// Standings is the current league table snapshot. UpdatedAt is nil until the
// first successful refresh.
type Standings struct {
	Teams     Ordering   `json:"teams"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Submission is one named prediction.
type Submission struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Prediction Ordering  `json:"prediction"`
	CreatedAt  time.Time `json:"created_at"`
}

// Detail holds the scoring of a single team within a prediction.
type Detail struct {
	Team      string `json:"team"`
	Predicted int    `json:"predicted"`
	Actual    int    `json:"actual"`
	Score     int    `json:"score"`
}

// Report is the score of a prediction against the current table. Lower is better.
type Report struct {
	Total   int      `json:"total"`
	Details []Detail `json:"details"`
}

// Entry is a submission paired with its score.
type Entry struct {
	Submission
	Score Report `json:"score"`
}

// Leaderboard is the scored view of all submissions.
type Leaderboard struct {
	Standings   Ordering `json:"standings"`
	Submissions []Entry  `json:"submissions"`
}
