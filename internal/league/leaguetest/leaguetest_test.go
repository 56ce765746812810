package leaguetest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gtourv/PLprediction/internal/league"
)

func TestReversed(t *testing.T) {
	teams := league.Defaults()
	got := Reversed(teams)

	assert.Equal(t, teams[league.Size-1], got[0])
	assert.Equal(t, teams[0], got[league.Size-1])
	assert.Equal(t, league.DefaultTeams, teams, "input is not modified")
	assert.Equal(t, teams, Reversed(got))
}
