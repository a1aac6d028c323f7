// Package enrich fills missing person and company attributes using LLM and
// search providers, streaming partial output as events.
package enrich

import (
	"context"
	"encoding/json"

	"github.com/sells-group/crm/internal/model"
)

// PersonHints is what we already know about a person.
type PersonHints struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email,omitempty"`
	CurrentTitle   string `json:"current_title,omitempty"`
	CurrentCompany string `json:"current_company,omitempty"`
	LinkedInURL    string `json:"linkedin_url,omitempty"`
}

// PersonResult holds provider-supplied person attributes. Empty fields are
// unknown.
type PersonResult struct {
	CurrentTitle   string `json:"current_title,omitempty"`
	CurrentCompany string `json:"current_company,omitempty"`
	LinkedInURL    string `json:"linkedin_url,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// RosterEntry is a known employee used to disambiguate a company.
type RosterEntry struct {
	Name           string `json:"name"`
	Title          string `json:"title,omitempty"`
	Email          string `json:"email,omitempty"`
	LinkedInURL    string `json:"linkedin_url,omitempty"`
	CurrentCompany string `json:"current_company,omitempty"`
}

// CompanyHints is what we already know about a company.
type CompanyHints struct {
	Name    string        `json:"name"`
	Domain  string        `json:"domain,omitempty"`
	Website string        `json:"website,omitempty"`
	People  []RosterEntry `json:"people,omitempty"`
}

// CompanyResult holds provider-supplied company attributes.
type CompanyResult struct {
	Industry         string         `json:"industry,omitempty"`
	Description      string         `json:"description,omitempty"`
	Website          string         `json:"website,omitempty"`
	Domain           string         `json:"domain,omitempty"`
	LinkedInURL      string         `json:"linkedin_url,omitempty"`
	EmployeeCount    *int           `json:"employee_count,omitempty"`
	EstimatedRevenue *float64       `json:"estimated_revenue,omitempty"`
	SizeTier         model.SizeTier `json:"size_tier,omitempty"`
}

// HasHeadline reports whether r carries any of the fields that make a
// company result worth keeping.
func (r *CompanyResult) HasHeadline() bool {
	if r == nil {
		return false
	}
	return r.Industry != "" ||
		r.Description != "" ||
		(r.EmployeeCount != nil && *r.EmployeeCount > 0) ||
		(r.EstimatedRevenue != nil && *r.EstimatedRevenue > 0) ||
		r.SizeTier != ""
}

// CompanyInput is one entry of a batch request.
type CompanyInput struct {
	ID    string
	Hints CompanyHints
}

// ItemFunc is called once for each batch entry a provider resolves.
type ItemFunc func(id string, result *CompanyResult)

// EventType tags an Event.
type EventType string

const (
	EventReasoning EventType = "reasoning"
	EventResult    EventType = "result"
	EventBatchItem EventType = "batch_item"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Event is one message on an enrichment stream. Enriched is the provider's
// raw result; Record is the stored row after merging, when there is one.
type Event struct {
	Type      EventType
	Text      string
	ID        string
	Success   bool
	Enriched  any
	Record    any
	Succeeded int
	Failed    int
	Message   string
}

// MarshalJSON writes only the fields that belong to the event type.
func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": e.Type}
	switch e.Type {
	case EventReasoning:
		out["text"] = e.Text
	case EventResult:
		out["success"] = e.Success
		out["enriched"] = e.Enriched
		if e.Record != nil {
			out["record"] = e.Record
		}
	case EventBatchItem:
		out["id"] = e.ID
		out["success"] = e.Success
		out["enriched"] = e.Enriched
		if e.Record != nil {
			out["record"] = e.Record
		}
	case EventDone:
		out["succeeded"] = e.Succeeded
		out["failed"] = e.Failed
	case EventError:
		out["message"] = e.Message
	}
	return json.Marshal(out)
}

// send delivers ev unless events is nil or ctx is done.
func send(ctx context.Context, events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// reasoning returns a callback that forwards text chunks as reasoning events.
func reasoning(ctx context.Context, events chan<- Event) func(string) {
	if events == nil {
		return nil
	}
	return func(chunk string) {
		send(ctx, events, Event{Type: EventReasoning, Text: chunk})
	}
}
