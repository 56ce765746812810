package api

import (
	"context"

	"github.com/gtourv/PLprediction/internal/league"
	"github.com/gtourv/PLprediction/internal/refresh"
)

// ------------------------
// Fake Service
// ------------------------

type FakeService struct {
	StandingsFunc   func(ctx context.Context) (league.Standings, error)
	LeaderboardFunc func(ctx context.Context) (league.Leaderboard, error)
	SubmitFunc      func(ctx context.Context, name string, prediction []string) (league.Submission, error)
	RefreshFunc     func(ctx context.Context) (refresh.Result, error)
	PingFunc        func(ctx context.Context) error
}

func (f *FakeService) Standings(ctx context.Context) (league.Standings, error) {
	if f.StandingsFunc != nil {
		return f.StandingsFunc(ctx)
	}
	return league.Standings{Teams: league.Defaults()}, nil
}

func (f *FakeService) Leaderboard(ctx context.Context) (league.Leaderboard, error) {
	if f.LeaderboardFunc != nil {
		return f.LeaderboardFunc(ctx)
	}
	return league.Leaderboard{Standings: league.Defaults()}, nil
}

func (f *FakeService) Submit(ctx context.Context, name string, prediction []string) (league.Submission, error) {
	if f.SubmitFunc != nil {
		return f.SubmitFunc(ctx, name, prediction)
	}
	return league.Submission{ID: "fake-id", Name: name, Prediction: prediction}, nil
}

func (f *FakeService) Refresh(ctx context.Context) (refresh.Result, error) {
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx)
	}
	return refresh.Result{Teams: league.Defaults(), Updated: true}, nil
}

func (f *FakeService) Ping(ctx context.Context) error {
	if f.PingFunc != nil {
		return f.PingFunc(ctx)
	}
	return nil
}
