package service

import (
	"context"

	"github.com/gtourv/PLprediction/internal/league"
	"github.com/gtourv/PLprediction/internal/refresh"
	"github.com/gtourv/PLprediction/internal/store"
)

// ------------------------
// Fake Refresher
// ------------------------

type FakeRefresher struct {
	RefreshFunc func(ctx context.Context) (refresh.Result, error)
}

func (f *FakeRefresher) Refresh(ctx context.Context) (refresh.Result, error) {
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx)
	}
	return refresh.Result{Teams: league.Defaults()}, nil
}

// ------------------------
// Fake Cache
// ------------------------

type FakeCache struct {
	board       *league.Leaderboard
	gen         int64
	GetErr      error
	GenErr      error
	SetErr      error
	Sets        int
	Invalidated int
}

func (f *FakeCache) Get(context.Context) (league.Leaderboard, bool, error) {
	if f.GetErr != nil {
		return league.Leaderboard{}, false, f.GetErr
	}
	if f.board == nil {
		return league.Leaderboard{}, false, nil
	}
	return *f.board, true, nil
}

func (f *FakeCache) Generation(context.Context) (int64, error) {
	if f.GenErr != nil {
		return 0, f.GenErr
	}
	return f.gen, nil
}

func (f *FakeCache) Set(_ context.Context, gen int64, board league.Leaderboard) error {
	f.Sets++
	if f.SetErr != nil {
		return f.SetErr
	}
	if gen != f.gen {
		return nil
	}
	f.board = &board
	return nil
}

func (f *FakeCache) Invalidate(context.Context) error {
	f.Invalidated++
	f.gen++
	f.board = nil
	return nil
}

// ------------------------
// Fake Store
// ------------------------

// FakeStore delegates to an in-memory store unless a Func override is set.
type FakeStore struct {
	*store.Memory
	ListSubmissionsFunc func(ctx context.Context) ([]league.Submission, error)
	GetStandingsFunc    func(ctx context.Context) (league.Standings, error)
	ListCalls           int
}

func (f *FakeStore) ListSubmissions(ctx context.Context) ([]league.Submission, error) {
	f.ListCalls++
	if f.ListSubmissionsFunc != nil {
		return f.ListSubmissionsFunc(ctx)
	}
	return f.Memory.ListSubmissions(ctx)
}

func (f *FakeStore) GetStandings(ctx context.Context) (league.Standings, error) {
	if f.GetStandingsFunc != nil {
		return f.GetStandingsFunc(ctx)
	}
	return f.Memory.GetStandings(ctx)
}
