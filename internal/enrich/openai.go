package enrich

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sells-group/crm/internal/config"
)

const openAIMaxTokens = 2048

// openAIProvider answers from model knowledge alone and supports native
// multi-company requests.
type openAIProvider struct {
	client *openai.Client
	model  string
	run    runner
}

func newOpenAI(cfg config.OpenAIConfig, r runner) *openAIProvider {
	oc := openai.DefaultConfig(cfg.Key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openAIProvider{client: openai.NewClientWithConfig(oc), model: model, run: r}
}

func (p *openAIProvider) Kind() Kind { return KindOpenAI }

func (p *openAIProvider) stream(ctx context.Context, op, prompt string, events chan<- Event) (string, error) {
	onText := reasoning(ctx, events)
	return p.run.text(ctx, op, func(ctx context.Context) (string, error) {
		stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:     p.model,
			MaxTokens: openAIMaxTokens,
			Stream:    true,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return "", eris.Wrap(err, "openai: create stream")
		}
		defer stream.Close() //nolint:errcheck

		var sb strings.Builder
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return "", eris.Wrap(err, "openai: read stream")
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if d := resp.Choices[0].Delta.Content; d != "" {
				sb.WriteString(d)
				if onText != nil {
					onText(d)
				}
			}
		}
		return sb.String(), nil
	})
}

func (p *openAIProvider) EnrichPerson(ctx context.Context, hints PersonHints, events chan<- Event) (*PersonResult, error) {
	text, err := p.stream(ctx, "person", PersonPrompt(hints), events)
	if err != nil {
		return nil, err
	}
	return personFromMap(ExtractJSON(text)), nil
}

func (p *openAIProvider) EnrichCompany(ctx context.Context, hints CompanyHints, events chan<- Event) (*CompanyResult, error) {
	text, err := p.stream(ctx, "company", CompanyPrompt(hints), events)
	if err != nil {
		return nil, err
	}
	return companyFromMap(ExtractJSON(text)), nil
}

// EnrichCompaniesBatch sends every company in one prompt and matches the
// returned array back by id. Unknown and repeated ids are ignored.
func (p *openAIProvider) EnrichCompaniesBatch(ctx context.Context, items []CompanyInput, events chan<- Event, item ItemFunc) (map[string]*CompanyResult, error) {
	text, err := p.stream(ctx, "batch", BatchCompanyPrompt(items), events)
	if err != nil {
		return nil, err
	}
	return matchBatch(items, ExtractJSONArray(text), item), nil
}

func matchBatch(items []CompanyInput, parsed []map[string]any, item ItemFunc) map[string]*CompanyResult {
	want := make(map[string]bool, len(items))
	for _, it := range items {
		want[it.ID] = true
	}
	results := make(map[string]*CompanyResult, len(items))
	for _, obj := range parsed {
		id := stringField(obj, "id")
		if !want[id] {
			continue
		}
		if _, dup := results[id]; dup {
			continue
		}
		res := companyFromMap(obj)
		results[id] = res
		if item != nil {
			item(id, res)
		}
	}
	return results
}
