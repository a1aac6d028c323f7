package enrich

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sells-group/crm/internal/config"
	"github.com/sells-group/crm/pkg/anthropic"
)

const anthropicMaxSearches = 5

// anthropicProvider uses Claude with the server-side web search tool. Search
// does not combine well with multi-company prompts, so batches run one
// company at a time.
type anthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	run       runner
}

func newAnthropic(cfg config.AnthropicConfig, r runner) *anthropicProvider {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &anthropicProvider{
		client:    anthropic.NewClient(cfg.Key, opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
		run:       r,
	}
}

func (p *anthropicProvider) Kind() Kind { return KindAnthropic }

// complete streams the answer when there is a listener and makes a single
// message call otherwise. The system prompt is identical on every call, so
// it is marked cacheable.
func (p *anthropicProvider) complete(ctx context.Context, op, prompt string, events chan<- Event) (string, error) {
	temperature := extractionTemperature
	req := anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		System:      []anthropic.SystemBlock{{Text: systemPrompt, CacheControl: &anthropic.CacheControl{TTL: "5m"}}},
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temperature,
		WebSearch:   true,
		MaxSearches: anthropicMaxSearches,
	}
	return p.run.streamText(ctx, op, reasoning(ctx, events), func(ctx context.Context, onText func(string)) (string, error) {
		var (
			resp *anthropic.MessageResponse
			err  error
		)
		if onText == nil {
			resp, err = p.client.CreateMessage(ctx, req)
		} else {
			resp, err = p.client.StreamMessage(ctx, req, onText)
		}
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	})
}

func (p *anthropicProvider) EnrichPerson(ctx context.Context, hints PersonHints, events chan<- Event) (*PersonResult, error) {
	text, err := p.complete(ctx, "person", PersonPrompt(hints), events)
	if err != nil {
		return nil, err
	}
	return personFromMap(ExtractJSON(text)), nil
}

func (p *anthropicProvider) EnrichCompany(ctx context.Context, hints CompanyHints, events chan<- Event) (*CompanyResult, error) {
	text, err := p.complete(ctx, "company", CompanyPrompt(hints), events)
	if err != nil {
		return nil, err
	}
	return companyFromMap(ExtractJSON(text)), nil
}

func (p *anthropicProvider) EnrichCompaniesBatch(ctx context.Context, items []CompanyInput, events chan<- Event, item ItemFunc) (map[string]*CompanyResult, error) {
	return sequentialBatch(ctx, p, p.Kind(), items, events, item, false)
}
