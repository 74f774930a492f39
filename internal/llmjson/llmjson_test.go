package llmjson

import (
	"strings"
	"testing"
)

func TestExtractIgnoresSurroundingProse(t *testing.T) {
	raw := "Here is your quiz:\n{\"title\": \"Algebra\"}\nEnjoy!"
	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != `{"title": "Algebra"}` {
		t.Fatalf("unexpected payload: %s", got)
	}
}

func TestExtractHandlesBracesInStrings(t *testing.T) {
	raw := `prefix {"prompt": "what does {x} mean?", "nested": {"a": 1}} suffix {"second": true}`
	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(got, `"nested"`) || strings.Contains(got, "second") {
		t.Fatalf("expected first balanced object only, got %s", got)
	}
}

func TestExtractHandlesEscapedQuotes(t *testing.T) {
	raw := `{"prompt": "she said \"hi\" {once}"}`
	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != raw {
		t.Fatalf("expected whole object, got %s", got)
	}
}

func TestExtractFailsWithoutObject(t *testing.T) {
	if _, err := Extract("no json here"); err == nil {
		t.Fatalf("expected error for missing object")
	}
	if _, err := Extract(`{"unbalanced": true`); err == nil {
		t.Fatalf("expected error for unbalanced object")
	}
}

func TestNormalizeRepairsNewlinesInStrings(t *testing.T) {
	raw := "{\"title\": \"line one\nline two\"}"
	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !strings.Contains(got, "line one line two") {
		t.Fatalf("expected collapsed newline, got %s", got)
	}
}

func TestNormalizePassesThroughValidJSON(t *testing.T) {
	raw := `text {"a": [1, 2, 3]} trailing`
	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != `{"a": [1, 2, 3]}` {
		t.Fatalf("unexpected payload: %s", got)
	}
}

func TestUnmarshalDecodesEmbeddedObject(t *testing.T) {
	var v struct {
		Correct bool `json:"correct"`
		Score   int  `json:"score"`
	}
	raw := "The verdict follows.\n{\"correct\": true, \"score\": 85}\nDone."
	if err := Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.Correct || v.Score != 85 {
		t.Fatalf("unexpected decode: %+v", v)
	}
}
