package enrich

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm/internal/model"
)

func TestEvent_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"reasoning", Event{Type: EventReasoning, Text: "thinking"}, `{"type":"reasoning","text":"thinking"}`},
		{
			"result without record",
			Event{Type: EventResult, Success: true, Enriched: &PersonResult{CurrentTitle: "CTO"}},
			`{"type":"result","success":true,"enriched":{"current_title":"CTO"}}`,
		},
		{
			"result with record",
			Event{Type: EventResult, Success: true, Enriched: &CompanyResult{Industry: "Software"}, Record: map[string]string{"industry": "Manufacturing"}},
			`{"type":"result","success":true,"enriched":{"industry":"Software"},"record":{"industry":"Manufacturing"}}`,
		},
		{
			"failed batch item",
			Event{Type: EventBatchItem, ID: "c1", Enriched: map[string]any{}},
			`{"type":"batch_item","id":"c1","success":false,"enriched":{}}`,
		},
		{"done", Event{Type: EventDone, Succeeded: 2, Failed: 1}, `{"type":"done","succeeded":2,"failed":1}`},
		{"error", Event{Type: EventError, Message: "boom"}, `{"type":"error","message":"boom"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.ev)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestEvent_RecordIsStoredRow(t *testing.T) {
	ev := Event{
		Type:     EventBatchItem,
		ID:       "c1",
		Success:  true,
		Enriched: &CompanyResult{Industry: "Software"},
		Record:   &model.Company{ID: "c1", Name: "Acme", Industry: "Manufacturing"},
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Software", got["enriched"].(map[string]any)["industry"])
	assert.Equal(t, "Manufacturing", got["record"].(map[string]any)["industry"])
}
