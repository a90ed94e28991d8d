package chat

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"chandler/pkg/llm"
)

func TestValidationPassed(t *testing.T) {
	cases := []struct {
		name    string
		verdict Validation
		want    bool
	}{
		{"all favorable", Validation{IsAppropriate: true, StaysInScope: true}, true},
		{"inappropriate", Validation{StaysInScope: true}, false},
		{"out of scope", Validation{IsAppropriate: true}, false},
		{"hallucinated", Validation{IsAppropriate: true, StaysInScope: true, Hallucination: true}, false},
	}
	for _, tc := range cases {
		if got := tc.verdict.Passed(); got != tc.want {
			t.Errorf("%s: Passed() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestValidationDecodesModelVerdict(t *testing.T) {
	raw := `{"is_appropriate": true, "stays_in_scope": true, "hallucination": true, "feedback": "the part number is invented"}`
	var verdict Validation
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.Passed() {
		t.Fatal("hallucinated verdict must not pass")
	}
	if verdict.Feedback != "the part number is invented" {
		t.Fatalf("unexpected feedback %q", verdict.Feedback)
	}
}

type recordingStructured struct {
	prompt string
}

func (r *recordingStructured) CompleteStructured(ctx context.Context, messages []llm.Message, schema llm.ResponseSchema, out interface{}) error {
	r.prompt = messages[len(messages)-1].Content
	*out.(*Validation) = Validation{IsAppropriate: true, StaysInScope: true}
	return nil
}

func TestValidateWithoutResultsSaysNoData(t *testing.T) {
	rec := &recordingStructured{}
	validator := NewValidator(rec)

	if _, err := validator.Validate(context.Background(), "ice maker", "try the valve", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.prompt, noDataText) {
		t.Fatalf("empty retrieval must surface %q in the prompt, got %q", noDataText, rec.prompt)
	}
}
