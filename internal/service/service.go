package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gtourv/PLprediction/internal/apperr"
	"github.com/gtourv/PLprediction/internal/cache"
	"github.com/gtourv/PLprediction/internal/league"
	"github.com/gtourv/PLprediction/internal/metrics"
	"github.com/gtourv/PLprediction/internal/refresh"
	"github.com/gtourv/PLprediction/internal/store"
)

const tracerName = "github.com/gtourv/PLprediction/internal/service"

// Refresher fetches and stores a new league table.
type Refresher interface {
	Refresh(ctx context.Context) (refresh.Result, error)
}

// Service implements the prediction game on top of the stores.
type Service struct {
	store     store.Store
	refresher Refresher
	cache     cache.Leaderboard
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates a Service. cache, metrics, logger and tracer may be nil.
func New(
	st store.Store,
	refresher Refresher,
	c cache.Leaderboard,
	m *metrics.Metrics,
	logger *slog.Logger,
	tracer trace.Tracer,
) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Service{
		store:     st,
		refresher: refresher,
		cache:     c,
		metrics:   m,
		logger:    logger,
		tracer:    tracer,
	}
}

// Standings returns the current league table.
func (s *Service) Standings(ctx context.Context) (league.Standings, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Standings")
	defer span.End()

	st, err := s.store.GetStandings(ctx)
	if err != nil {
		return league.Standings{}, fail(span, fmt.Errorf("getting standings: %w", err))
	}
	return st, nil
}

// Leaderboard scores every submission against the current table, best first.
func (s *Service) Leaderboard(ctx context.Context) (league.Leaderboard, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Leaderboard")
	defer span.End()

	if board, ok, err := s.cache.Get(ctx); err != nil {
		s.logger.WarnContext(ctx, "Leaderboard cache read failed", "error", err)
	} else if ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return board, nil
	}

	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.WarnContext(ctx, "Leaderboard cache generation read failed", "error", genErr)
	}

	st, err := s.store.GetStandings(ctx)
	if err != nil {
		return league.Leaderboard{}, fail(span, fmt.Errorf("getting standings: %w", err))
	}
	subs, err := s.store.ListSubmissions(ctx)
	if err != nil {
		return league.Leaderboard{}, fail(span, fmt.Errorf("listing submissions: %w", err))
	}

	board := league.Rank(subs, st.Teams)
	span.SetAttributes(attribute.Int("submissions", len(board.Submissions)))

	if genErr == nil {
		if err := s.cache.Set(ctx, gen, board); err != nil {
			s.logger.WarnContext(ctx, "Leaderboard cache write failed", "error", err)
		}
	}
	return board, nil
}

// Submit stores a named prediction. It fails with InvalidInput for an empty
// name or a malformed ordering and with Conflict when the name is taken.
func (s *Service) Submit(ctx context.Context, name string, prediction []string) (league.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Submit")
	defer span.End()

	teams, err := league.NewOrdering(prediction)
	if err != nil {
		s.metrics.Submission("invalid")
		return league.Submission{}, fail(span, err)
	}

	sub, err := s.store.CreateSubmission(ctx, name, teams)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindConflict:
			s.metrics.Submission("conflict")
		case apperr.KindInvalidInput:
			s.metrics.Submission("invalid")
		default:
			s.metrics.Submission("error")
		}
		return league.Submission{}, fail(span, fmt.Errorf("creating submission: %w", err))
	}

	s.metrics.Submission("created")
	span.SetAttributes(attribute.String("submission.id", sub.ID))
	s.logger.InfoContext(ctx, "Submission created", "id", sub.ID, "name", sub.Name)
	s.invalidate(ctx)
	return sub, nil
}

// Refresh pulls a new table from the configured source. An unreachable or
// confused source is not an error: the result then carries the stored table
// and a Warning.
func (s *Service) Refresh(ctx context.Context) (refresh.Result, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Refresh")
	defer span.End()

	res, err := s.refresher.Refresh(ctx)
	if err != nil {
		s.metrics.Refresh("error")
		return refresh.Result{}, fail(span, fmt.Errorf("refreshing standings: %w", err))
	}

	span.SetAttributes(attribute.Bool("refresh.updated", res.Updated))
	if !res.Updated {
		s.metrics.Refresh("fallback")
		if res.Warning != nil {
			span.AddEvent("fallback", trace.WithAttributes(attribute.String("warning", res.Warning.Error())))
		}
		return res, nil
	}

	s.metrics.Refresh("updated")
	s.invalidate(ctx)
	return res, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "Leaderboard cache invalidation failed", "error", err)
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, apperr.KindOf(err).String())
	return err
}
