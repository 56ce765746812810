// Package leaguetest provides orderings for tests.
package leaguetest

import "github.com/gtourv/PLprediction/internal/league"

// Reversed returns a copy of o, last place first.
func Reversed(o league.Ordering) league.Ordering {
	out := make(league.Ordering, len(o))
	for i, t := range o {
		out[len(o)-1-i] = t
	}
	return out
}
