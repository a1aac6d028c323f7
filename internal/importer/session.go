package importer

import (
	"context"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// State is a step of the import flow.
type State string

const (
	StateUpload     State = "upload"
	StateMapping    State = "mapping"
	StateValidating State = "validating"
	StatePreview    State = "preview"
	StateExecuting  State = "executing"
	StateDone       State = "done"
)

var (
	// ErrInvalidTransition is returned when a step is called out of order.
	ErrInvalidTransition = eris.New("importer: invalid state transition")
	// ErrUnknownField is returned for a mapping target outside Fields.
	ErrUnknownField = eris.New("importer: unknown field")
)

// Session drives one file through upload, mapping, preview and execution.
// Callers advance it explicitly; Reset returns it to upload from any state.
type Session struct {
	ID      string
	Owner   string
	Created time.Time

	mu          sync.Mutex
	validator   Validator
	state       State
	filename    string
	parsed      *ParseResult
	mapping     map[string]string
	validations []RowValidation
	result      *Result
}

// NewSession returns a session in the upload state.
func NewSession(owner string, v Validator) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Owner:     owner,
		Created:   time.Now(),
		validator: v,
		state:     StateUpload,
	}
}

// State returns the current step.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) expect(want State) error {
	if s.state != want {
		return eris.Wrapf(ErrInvalidTransition, "importer: session is %s, want %s", s.state, want)
	}
	return nil
}

// Load parses the file and seeds the column mapping.
func (s *Session) Load(filename string, r io.Reader) (*ParseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateUpload); err != nil {
		return nil, err
	}

	parsed, err := Parse(filename, r)
	if err != nil {
		return nil, err
	}
	s.filename = filename
	s.parsed = parsed
	s.mapping = AutoMapColumns(parsed.Headers)
	s.state = StateMapping
	return parsed, nil
}

// Mapping returns a copy of the current column mapping.
func (s *Session) Mapping() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.mapping)
}

// SetMapping replaces the column mapping. Targets must be canonical fields
// or SkipField.
func (s *Session) SetMapping(mapping map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateMapping); err != nil {
		return err
	}
	for header, field := range mapping {
		if field != SkipField && !slices.Contains(Fields, field) {
			return eris.Wrapf(ErrUnknownField, "importer: column %q maps to %q", header, field)
		}
	}
	s.mapping = maps.Clone(mapping)
	return nil
}

// ConfirmMapping validates and dedups every row and moves to preview.
func (s *Session) ConfirmMapping() ([]RowValidation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateMapping); err != nil {
		return nil, err
	}
	s.state = StateValidating

	out := make([]RowValidation, len(s.parsed.Rows))
	for i, row := range s.parsed.Rows {
		out[i] = s.validator.Validate(row, s.mapping, i)
	}
	DedupRows(out)

	s.validations = out
	s.state = StatePreview
	return out, nil
}

// Validations returns the preview rows.
func (s *Session) Validations() []RowValidation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validations
}

// Execute writes the previewed rows for owner. On a storage failure the
// session returns to preview so the run can be retried.
func (s *Session) Execute(ctx context.Context, exec *Executor, owner string) (*Result, error) {
	s.mu.Lock()
	if err := s.expect(StatePreview); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if owner == "" {
		s.mu.Unlock()
		return nil, ErrNoOwner
	}
	s.state = StateExecuting
	job := Job{
		Owner:    owner,
		Filename: s.filename,
		FileType: s.parsed.FileType,
		Mapping:  maps.Clone(s.mapping),
		Rows:     s.validations,
	}
	s.mu.Unlock()

	res, err := exec.Run(ctx, job)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StatePreview
		return nil, err
	}
	s.result = res
	s.state = StateDone
	return res, nil
}

// Result returns the outcome of Execute once done.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Reset discards all progress.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUpload
	s.filename = ""
	s.parsed = nil
	s.mapping = nil
	s.validations = nil
	s.result = nil
}

// Sessions holds in-flight sessions by id.
type Sessions struct {
	mu        sync.Mutex
	validator Validator
	ttl       time.Duration
	byID      map[string]*Session
}

// NewSessions returns a registry. Sessions older than ttl are dropped when a
// new one is created; ttl <= 0 keeps them until deleted.
func NewSessions(v Validator, ttl time.Duration) *Sessions {
	return &Sessions{validator: v, ttl: ttl, byID: make(map[string]*Session)}
}

// New registers a fresh session for owner.
func (r *Sessions) New(owner string) *Session {
	s := NewSession(owner, r.validator)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ttl > 0 {
		cutoff := time.Now().Add(-r.ttl)
		for id, old := range r.byID {
			if old.Created.Before(cutoff) {
				delete(r.byID, id)
			}
		}
	}
	r.byID[s.ID] = s
	return s
}

// Get returns the owner's session with id.
func (r *Sessions) Get(owner, id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.Owner != owner {
		return nil, false
	}
	return s, true
}

// Delete forgets a session.
func (r *Sessions) Delete(owner, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.Owner != owner {
		return false
	}
	delete(r.byID, id)
	return true
}
