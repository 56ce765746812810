package refresh

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/gtourv/PLprediction/internal/apperr"
)

const DefaultModel = "gemini-2.5-flash"

// GeminiSource asks Gemini, grounded with Google Search, for the table.
type GeminiSource struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiSource builds a source for apiKey. An empty key is a configuration
// error.
func NewGeminiSource(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiSource, error) {
	if apiKey == "" {
		return nil, apperr.Config("GEMINI_API_KEY not set")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiSource{client: client, model: model, timeout: timeout}, nil
}

func (g *GeminiSource) Fetch(ctx context.Context, prompt string) (Response, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return Response{}, fmt.Errorf("generating content with %s: %w", g.model, err)
	}
	return Response{Text: resp.Text(), Citations: citations(resp)}, nil
}

// citations collects web URIs referenced by grounding supports, falling back
// to every grounding chunk when no support points at one.
func citations(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	md := resp.Candidates[0].GroundingMetadata

	var links []string
	seen := map[string]struct{}{}
	add := func(c *genai.GroundingChunk) {
		if c == nil || c.Web == nil || c.Web.URI == "" {
			return
		}
		if _, ok := seen[c.Web.URI]; ok {
			return
		}
		seen[c.Web.URI] = struct{}{}
		links = append(links, c.Web.URI)
	}

	for _, support := range md.GroundingSupports {
		if support == nil {
			continue
		}
		for _, i := range support.GroundingChunkIndices {
			if int(i) >= 0 && int(i) < len(md.GroundingChunks) {
				add(md.GroundingChunks[i])
			}
		}
	}
	if len(links) == 0 {
		for _, c := range md.GroundingChunks {
			add(c)
		}
	}
	if len(links) > maxCitations {
		links = links[:maxCitations]
	}
	return links
}
