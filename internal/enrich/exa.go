package enrich

import (
	"context"

	"github.com/sells-group/crm/internal/config"
	"github.com/sells-group/crm/pkg/exa"
)

// exaProvider asks Exa's answer endpoint a plain question. The answer is
// not streamed; it arrives as one reasoning chunk. Answers are usually
// prose, so the regex extractor backs up JSON extraction.
type exaProvider struct {
	client exa.Client
	run    runner
}

func newExa(cfg config.ExaConfig, r runner) *exaProvider {
	return &exaProvider{
		client: exa.NewClient(cfg.Key, exa.WithBaseURL(cfg.BaseURL)),
		run:    r.withRetry(),
	}
}

func (p *exaProvider) Kind() Kind { return KindExa }

func (p *exaProvider) answer(ctx context.Context, op, query string, events chan<- Event) (string, error) {
	text, err := p.run.text(ctx, op, func(ctx context.Context) (string, error) {
		resp, err := p.client.Answer(ctx, exa.AnswerRequest{Query: query})
		if err != nil {
			return "", err
		}
		return resp.Answer, nil
	})
	if err != nil {
		return "", err
	}
	if text != "" {
		send(ctx, events, Event{Type: EventReasoning, Text: text})
	}
	return text, nil
}

func (p *exaProvider) EnrichPerson(ctx context.Context, hints PersonHints, events chan<- Event) (*PersonResult, error) {
	text, err := p.answer(ctx, "person", ExaPersonQuery(hints), events)
	if err != nil {
		return nil, err
	}
	if m := ExtractJSON(text); len(m) > 0 {
		return personFromMap(m), nil
	}
	return ParsePersonText(text), nil
}

func (p *exaProvider) EnrichCompany(ctx context.Context, hints CompanyHints, events chan<- Event) (*CompanyResult, error) {
	text, err := p.answer(ctx, "company", ExaCompanyQuery(hints), events)
	if err != nil {
		return nil, err
	}
	if m := ExtractJSON(text); len(m) > 0 {
		return companyFromMap(m), nil
	}
	return ParseCompanyText(text), nil
}

// EnrichCompaniesBatch asks about each company in turn. A failed company
// yields an empty result.
func (p *exaProvider) EnrichCompaniesBatch(ctx context.Context, items []CompanyInput, events chan<- Event, item ItemFunc) (map[string]*CompanyResult, error) {
	return sequentialBatch(ctx, p, p.Kind(), items, events, item, true)
}
