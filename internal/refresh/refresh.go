// Package refresh pulls the live league table from an external source and
// stores it, keeping the previous table whenever the source lets us down.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gtourv/PLprediction/internal/apperr"
	"github.com/gtourv/PLprediction/internal/league"
	"github.com/gtourv/PLprediction/internal/store"
)

const (
	// Prompt asks for the table as bare JSON so it can be parsed without prose.
	Prompt = `Extract the current English Premier League 2025-26 table (positions 1 to 20) as of today from authoritative sources. ` +
		`Respond ONLY with JSON of the form {"teams": string[]} listing exactly 20 club names in table order. Do not include any prose.`

	maxCitations  = 3
	snippetLength = 240
)

// Response is the raw answer of a Source.
type Response struct {
	Text      string
	Citations []string
}

// Source answers a standings query. Implementations should return citation
// URIs in relevance order without duplicates.
type Source interface {
	Fetch(ctx context.Context, prompt string) (Response, error)
}

// Result is the outcome of one refresh. Teams is always a valid table: the new
// one when Updated, otherwise whatever was stored before.
type Result struct {
	Teams     league.Ordering
	UpdatedAt *time.Time
	Snippets  []string
	Updated   bool
	// Warning describes why the stored table was kept. Nil when Updated.
	Warning error
}

type Refresher struct {
	source Source
	store  store.StandingsStore
	logger *slog.Logger
}

// New returns a Refresher. A nil source means no credential was configured;
// Refresh then fails with a configuration error.
func New(source Source, st store.StandingsStore, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{source: source, store: st, logger: logger}
}

// Refresh queries the source and stores the table it returns. Upstream
// failures never fail the call: the stored table is left untouched and
// returned along with a Warning. Storage failures are returned as errors.
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	if r.source == nil {
		return Result{}, apperr.Config("GEMINI_API_KEY not set")
	}

	resp, err := r.source.Fetch(ctx, Prompt)
	if err != nil {
		return r.fallback(ctx, resp, apperr.Upstream("standings source unavailable", err))
	}

	teams, err := ParseTeams(resp.Text)
	if err != nil {
		return r.fallback(ctx, resp, err)
	}

	st, err := r.store.SetStandings(ctx, teams)
	if err != nil {
		return Result{}, fmt.Errorf("storing refreshed standings: %w", err)
	}

	r.logger.InfoContext(ctx, "Standings refreshed",
		"leader", st.Teams[0],
		"citations", len(resp.Citations),
	)
	return Result{
		Teams:     st.Teams,
		UpdatedAt: st.UpdatedAt,
		Snippets:  Snippets(resp),
		Updated:   true,
	}, nil
}

func (r *Refresher) fallback(ctx context.Context, resp Response, cause error) (Result, error) {
	r.logger.WarnContext(ctx, "Standings refresh failed, keeping stored table", "error", cause)

	st, err := r.store.GetStandings(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading stored standings: %w", err)
	}
	return Result{
		Teams:     st.Teams,
		UpdatedAt: st.UpdatedAt,
		Snippets:  Snippets(resp),
		Warning:   cause,
	}, nil
}

// ParseTeams extracts the team list from a model answer. Anything before the
// first '{' is skipped, and so is anything after the JSON object.
func ParseTeams(text string) (league.Ordering, error) {
	body := text
	if i := strings.IndexByte(text, '{'); i >= 0 {
		body = text[i:]
	}

	var payload struct {
		Teams []string `json:"teams"`
	}
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&payload); err != nil {
		return nil, apperr.Upstream("unparsable standings response", err)
	}
	if len(payload.Teams) != league.Size {
		return nil, apperr.Upstream(
			fmt.Sprintf("standings response listed %d teams, want %d", len(payload.Teams), league.Size), nil)
	}

	teams, err := league.NewOrdering(payload.Teams)
	if err != nil {
		return nil, apperr.Upstream("invalid standings response", err)
	}
	return teams, nil
}

// Snippets builds the informational lines shown after a refresh: a preview of
// the raw answer followed by up to three numbered sources.
func Snippets(resp Response) []string {
	snippets := []string{}
	if preview := truncate(resp.Text, snippetLength); preview != "" {
		snippets = append(snippets, preview)
	}

	seen := map[string]struct{}{}
	n := 0
	for _, uri := range resp.Citations {
		if uri == "" {
			continue
		}
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		n++
		snippets = append(snippets, fmt.Sprintf("Source %d: %s", n, uri))
		if n == maxCitations {
			break
		}
	}
	return snippets
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
