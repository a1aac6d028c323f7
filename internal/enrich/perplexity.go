package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/crm/internal/config"
	"github.com/sells-group/crm/pkg/perplexity"
)

const perplexityMaxTokens = 2048

// perplexityProvider uses Perplexity's search-grounded chat models. Each
// request runs its own web search, so batches are sequential.
type perplexityProvider struct {
	client perplexity.Client
	model  string
	run    runner
}

func newPerplexity(cfg config.PerplexityConfig, r runner) *perplexityProvider {
	return &perplexityProvider{
		client: perplexity.NewClient(cfg.Key, perplexity.WithBaseURL(cfg.BaseURL), perplexity.WithModel(cfg.Model)),
		model:  cfg.Model,
		run:    r.withRetry(),
	}
}

func (p *perplexityProvider) Kind() Kind { return KindPerplexity }

// complete streams when there is a listener and makes a plain completion
// otherwise. It also returns the search citations behind the answer.
func (p *perplexityProvider) complete(ctx context.Context, op, prompt string, events chan<- Event) (string, []string, error) {
	maxTokens := perplexityMaxTokens
	temperature := extractionTemperature
	req := perplexity.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Messages: []perplexity.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	var citations []string
	text, err := p.run.streamText(ctx, op, reasoning(ctx, events), func(ctx context.Context, onText func(string)) (string, error) {
		var (
			resp *perplexity.ChatCompletionResponse
			err  error
		)
		if onText == nil {
			resp, err = p.client.ChatCompletion(ctx, req)
		} else {
			resp, err = p.client.StreamChatCompletion(ctx, req, onText)
		}
		if err != nil {
			return "", err
		}
		citations = resp.Citations
		return resp.Content(), nil
	})
	if err != nil {
		return "", nil, err
	}
	zap.L().Debug("enrich: perplexity answer",
		zap.String("operation", op),
		zap.Int("citations", len(citations)),
	)
	return text, citations, nil
}

func (p *perplexityProvider) EnrichPerson(ctx context.Context, hints PersonHints, events chan<- Event) (*PersonResult, error) {
	text, citations, err := p.complete(ctx, "person", PersonPrompt(hints), events)
	if err != nil {
		return nil, err
	}
	res := personFromMap(ExtractJSON(text))
	if res.LinkedInURL == "" {
		res.LinkedInURL = linkedInCitation(citations, personLIRe)
	}
	return res, nil
}

func (p *perplexityProvider) EnrichCompany(ctx context.Context, hints CompanyHints, events chan<- Event) (*CompanyResult, error) {
	text, citations, err := p.complete(ctx, "company", CompanyPrompt(hints), events)
	if err != nil {
		return nil, err
	}
	res := companyFromMap(ExtractJSON(text))
	if res.LinkedInURL == "" {
		res.LinkedInURL = linkedInCitation(citations, companyLIRe)
	}
	return res, nil
}

func (p *perplexityProvider) EnrichCompaniesBatch(ctx context.Context, items []CompanyInput, events chan<- Event, item ItemFunc) (map[string]*CompanyResult, error) {
	return sequentialBatch(ctx, p, p.Kind(), items, events, item, false)
}
