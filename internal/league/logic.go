// internal/league/logic.go
package league

import (
	"sort"
)

// DefaultTeams is the 2025-26 Premier League in alphabetical order. It seeds the
// standings row before any refresh has happened.
var DefaultTeams = Ordering{
	"Arsenal", "Aston Villa", "Bournemouth", "Brentford", "Brighton and Hove Albion",
	"Burnley", "Chelsea", "Crystal Palace", "Everton", "Fulham",
	"Leeds United", "Liverpool", "Manchester City", "Manchester United", "Newcastle United",
	"Nottingham Forest", "Sunderland", "Tottenham Hotspur", "West Ham United", "Wolverhampton Wanderers",
}

// Defaults returns a copy of DefaultTeams safe for the caller to modify.
func Defaults() Ordering {
	out := make(Ordering, len(DefaultTeams))
	copy(out, DefaultTeams)
	return out
}

// Score compares prediction against current. Each team scores the absolute
// difference between its predicted and actual position.
//
// A team missing from current gets actual position 0, so it scores its
// predicted position. Both lists are expected to hold the same clubs; a
// mismatch means the stored data is inconsistent.
func Score(prediction, current Ordering) Report {
	report := Report{Details: make([]Detail, 0, len(prediction))}
	for i, team := range prediction {
		predicted := i + 1
		a := current.Position(team)
		diff := a - predicted
		if diff < 0 {
			diff = -diff
		}
		report.Total += diff
		report.Details = append(report.Details, Detail{
			Team:      team,
			Predicted: predicted,
			Actual:    a,
			Score:     diff,
		})
	}
	return report
}

// Rank scores every submission against current and orders them best first.
// Ties on total go to the earlier submission, then by name.
func Rank(submissions []Submission, current Ordering) Leaderboard {
	entries := make([]Entry, 0, len(submissions))
	for _, s := range submissions {
		entries = append(entries, Entry{Submission: s, Score: Score(s.Prediction, current)})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score.Total != b.Score.Total {
			return a.Score.Total < b.Score.Total
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Name < b.Name
	})

	return Leaderboard{Standings: current, Submissions: entries}
}
