package enrich

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// --- Provider Mock ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Kind() Kind { return KindOpenAI }

func (m *mockProvider) EnrichPerson(ctx context.Context, hints PersonHints, _ chan<- Event) (*PersonResult, error) {
	args := m.Called(ctx, hints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PersonResult), args.Error(1)
}

func (m *mockProvider) EnrichCompany(ctx context.Context, hints CompanyHints, _ chan<- Event) (*CompanyResult, error) {
	args := m.Called(ctx, hints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CompanyResult), args.Error(1)
}

// EnrichCompaniesBatch reports every returned result through item, as a
// streaming provider would.
func (m *mockProvider) EnrichCompaniesBatch(ctx context.Context, items []CompanyInput, _ chan<- Event, item ItemFunc) (map[string]*CompanyResult, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	results := args.Get(0).(map[string]*CompanyResult)
	if item != nil {
		for _, it := range items {
			if res, ok := results[it.ID]; ok {
				item(it.ID, res)
			}
		}
	}
	return results, args.Error(1)
}

// --- Source Stub ---

type staticSource struct {
	p   Provider
	err error
}

func (s staticSource) Provider(Kind) (Provider, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.p, nil
}
