package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gtourv/PLprediction/internal/league"
)

// Memory keeps everything in process memory. It is used when no database is
// configured and in tests; contents are lost on restart.
type Memory struct {
	mu          sync.RWMutex
	standings   *league.Standings
	submissions []league.Submission
	names       map[string]struct{}
	now         func() time.Time
}

func NewMemory(logger *slog.Logger) *Memory {
	if logger != nil {
		logger.Warn("No database configured, submissions and standings are kept in memory only")
	}
	return &Memory{
		names: make(map[string]struct{}),
		now:   time.Now,
	}
}

// Migrate seeds the standings with the defaults if they are unset.
func (m *Memory) Migrate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.standings == nil {
		m.standings = &league.Standings{Teams: league.Defaults()}
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) GetStandings(context.Context) (league.Standings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.standings == nil {
		return league.Standings{Teams: league.Defaults()}, nil
	}
	return copyStandings(*m.standings), nil
}

func (m *Memory) SetStandings(_ context.Context, teams league.Ordering) (league.Standings, error) {
	teams, err := league.NewOrdering(teams)
	if err != nil {
		return league.Standings{}, err
	}
	at := m.now().UTC()
	st := league.Standings{Teams: teams, UpdatedAt: &at}

	m.mu.Lock()
	m.standings = &st
	m.mu.Unlock()
	return copyStandings(st), nil
}

func (m *Memory) ListSubmissions(context.Context) ([]league.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]league.Submission, len(m.submissions))
	for i, s := range m.submissions {
		s.Prediction = append(league.Ordering(nil), s.Prediction...)
		out[i] = s
	}
	return out, nil
}

func (m *Memory) CreateSubmission(_ context.Context, name string, prediction league.Ordering) (league.Submission, error) {
	sub, err := newSubmission(name, prediction)
	if err != nil {
		return league.Submission{}, err
	}
	key := nameKey(sub.Name)

	// check and insert under one lock
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.names[key]; taken {
		return league.Submission{}, errDuplicate()
	}
	m.names[key] = struct{}{}
	m.submissions = append(m.submissions, sub)
	return sub, nil
}

func copyStandings(st league.Standings) league.Standings {
	out := league.Standings{Teams: append(league.Ordering(nil), st.Teams...)}
	if st.UpdatedAt != nil {
		t := *st.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}
