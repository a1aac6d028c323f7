package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/crm/internal/config"
	"github.com/sells-group/crm/internal/resilience"
)

// Kind names a provider backend.
type Kind string

const (
	KindOpenAI     Kind = config.ProviderOpenAI
	KindAnthropic  Kind = config.ProviderAnthropic
	KindPerplexity Kind = config.ProviderPerplexity
	KindExa        Kind = config.ProviderExa
)

// Kinds lists every supported provider.
var Kinds = []Kind{KindOpenAI, KindAnthropic, KindPerplexity, KindExa}

var (
	// ErrUnknownProvider is returned for a provider name outside Kinds.
	ErrUnknownProvider = eris.New("enrich: unknown provider")
	// ErrMissingKey is returned when the selected provider has no credential.
	ErrMissingKey = eris.New("enrich: provider key not configured")
)

// ParseKind validates a provider name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownProvider, "enrich: provider %q", s)
}

// Provider enriches people and companies. Implementations stream partial
// output as reasoning events on events, which may be nil.
type Provider interface {
	Kind() Kind
	EnrichPerson(ctx context.Context, hints PersonHints, events chan<- Event) (*PersonResult, error)
	EnrichCompany(ctx context.Context, hints CompanyHints, events chan<- Event) (*CompanyResult, error)
	// EnrichCompaniesBatch resolves several companies. item is called for
	// each id as its result becomes available; ids missing from the
	// returned map were not resolved.
	EnrichCompaniesBatch(ctx context.Context, items []CompanyInput, events chan<- Event, item ItemFunc) (map[string]*CompanyResult, error)
}

// Source returns providers by kind.
type Source interface {
	Provider(kind Kind) (Provider, error)
}

// Factory builds providers from configuration. Rate limiters and breakers
// are shared per kind across every provider it returns.
type Factory struct {
	cfg *config.Config

	mu       sync.Mutex
	limiters map[Kind]*rate.Limiter
	breakers map[Kind]*resilience.Breaker
}

// NewFactory returns a Factory over cfg.
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		cfg:      cfg,
		limiters: make(map[Kind]*rate.Limiter),
		breakers: make(map[Kind]*resilience.Breaker),
	}
}

// New builds a single provider without shared throttling state.
func New(cfg *config.Config, kind Kind) (Provider, error) {
	return NewFactory(cfg).Provider(kind)
}

// Provider returns the provider for kind. An empty kind selects the
// configured default. A missing credential is reported here, at request
// time, rather than at startup.
func (f *Factory) Provider(kind Kind) (Provider, error) {
	name := string(kind)
	if name == "" {
		name = f.cfg.Enrich.Provider
	}
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	if !f.cfg.KeyStatus()[string(kind)] {
		return nil, eris.Wrapf(ErrMissingKey, "enrich: %s.key is not configured", kind)
	}

	r := f.runner(kind)
	switch kind {
	case KindOpenAI:
		return newOpenAI(f.cfg.OpenAI, r), nil
	case KindAnthropic:
		return newAnthropic(f.cfg.Anthropic, r), nil
	case KindPerplexity:
		return newPerplexity(f.cfg.Perplexity, r), nil
	default:
		return newExa(f.cfg.Exa, r), nil
	}
}

func (f *Factory) runner(kind Kind) runner {
	f.mu.Lock()
	defer f.mu.Unlock()

	lim, ok := f.limiters[kind]
	if !ok {
		rps := f.cfg.Enrich.RequestsPerSecond
		if rps <= 0 {
			lim = rate.NewLimiter(rate.Inf, 1)
		} else {
			lim = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
		}
		f.limiters[kind] = lim
	}
	br, ok := f.breakers[kind]
	if !ok {
		br = resilience.NewBreaker(5, 30*time.Second)
		f.breakers[kind] = br
	}

	timeout := time.Duration(f.cfg.Enrich.CallTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return runner{name: string(kind), limiter: lim, breaker: br, timeout: timeout}
}

// runner applies throttling, a per-call deadline, the breaker and, when
// retry is set, transient-error retries around one vendor call.
type runner struct {
	name    string
	limiter *rate.Limiter
	breaker *resilience.Breaker
	timeout time.Duration
	retry   bool
}

func (r runner) withRetry() runner {
	r.retry = true
	return r
}

func (r runner) text(ctx context.Context, op string, fn func(ctx context.Context) (string, error)) (string, error) {
	return r.call(ctx, op, nil, fn)
}

// streamText is text for calls that forward output through onText as it
// arrives. Once any chunk has reached onText a failed attempt is no longer
// retried, so a listener never sees the same output twice.
func (r runner) streamText(ctx context.Context, op string, onText func(string), fn func(ctx context.Context, onText func(string)) (string, error)) (string, error) {
	emitted := false
	forward := onText
	if onText != nil {
		forward = func(chunk string) {
			emitted = true
			onText(chunk)
		}
	}
	canRetry := func() bool {
		if emitted {
			zap.L().Warn("enrich: not retrying after partial output",
				zap.String("provider", r.name), zap.String("operation", op))
		}
		return !emitted
	}
	return r.call(ctx, op, canRetry, func(ctx context.Context) (string, error) {
		return fn(ctx, forward)
	})
}

func (r runner) call(ctx context.Context, op string, canRetry func() bool, fn func(ctx context.Context) (string, error)) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", eris.Wrapf(err, "enrich: %s %s: rate limit wait", r.name, op)
		}
	}

	call := func(ctx context.Context) (string, error) {
		return resilience.Call(ctx, r.breaker, fn)
	}
	var (
		out string
		err error
	)
	if r.retry {
		p := resilience.DefaultPolicy()
		p.OnRetry = resilience.LogRetries(r.name, op)
		if canRetry != nil {
			p.Retryable = func(err error) bool {
				return resilience.IsTransient(err) && canRetry()
			}
		}
		out, err = resilience.Retry(ctx, p, call)
	} else {
		out, err = call(ctx)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", eris.Wrapf(err, "enrich: %s %s timed out after %s", r.name, op, r.timeout)
		}
		return "", eris.Wrapf(err, "enrich: %s %s", r.name, op)
	}
	return out, nil
}

// single is the per-company half of a provider, used by sequentialBatch.
type single interface {
	EnrichCompany(ctx context.Context, hints CompanyHints, events chan<- Event) (*CompanyResult, error)
}

// sequentialBatch resolves items one call at a time for providers without a
// multi-item request. With emptyOnError a failed item still yields an empty
// result; otherwise it is left out of the map.
func sequentialBatch(ctx context.Context, p single, kind Kind, items []CompanyInput, events chan<- Event, item ItemFunc, emptyOnError bool) (map[string]*CompanyResult, error) {
	results := make(map[string]*CompanyResult, len(items))
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return results, eris.Wrap(err, "enrich: batch cancelled")
		}
		res, err := p.EnrichCompany(ctx, it.Hints, events)
		if err != nil {
			zap.L().Warn("enrich: batch item failed",
				zap.String("provider", string(kind)),
				zap.String("company_id", it.ID),
				zap.Error(err),
			)
			if !emptyOnError {
				continue
			}
			res = &CompanyResult{}
		}
		results[it.ID] = res
		if item != nil {
			item(it.ID, res)
		}
	}
	return results, nil
}
