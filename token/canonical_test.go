package token

import (
	"testing"
)

func TestContentID_KeyOrderIrrelevant(t *testing.T) {
	tok := NewTokenizer(nil)

	v1 := map[string]any{
		"name":  "widget",
		"count": 3,
		"nested": map[string]any{
			"b": true,
			"a": []any{1, 2, 3},
		},
	}
	v2 := map[string]any{
		"nested": map[string]any{
			"a": []any{1, 2, 3},
			"b": true,
		},
		"count": 3,
		"name":  "widget",
	}

	id1, err := tok.ContentID(v1)
	if err != nil {
		t.Fatalf("ContentID failed: %v", err)
	}
	id2, err := tok.ContentID(v2)
	if err != nil {
		t.Fatalf("ContentID failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("structurally equal values produced %s and %s", id1, id2)
	}
}

func TestContentID_DifferingFieldChangesID(t *testing.T) {
	tok := NewTokenizer(nil)

	base := map[string]any{"name": "widget", "count": 3}
	changed := map[string]any{"name": "widget", "count": 4}

	id1, err := tok.ContentID(base)
	if err != nil {
		t.Fatalf("ContentID failed: %v", err)
	}
	id2, err := tok.ContentID(changed)
	if err != nil {
		t.Fatalf("ContentID failed: %v", err)
	}
	if id1 == id2 {
		t.Error("values differing in one field produced identical ids")
	}
}

func TestContentID_StableAcrossCalls(t *testing.T) {
	tok := NewTokenizer(nil)

	v := map[string]any{"a": []any{"x", map[string]any{"k": 1.5}}, "b": nil}

	first, err := tok.ContentID(v)
	if err != nil {
		t.Fatalf("ContentID failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		got, err := tok.ContentID(v)
		if err != nil {
			t.Fatalf("ContentID failed: %v", err)
		}
		if got != first {
			t.Fatalf("ContentID not stable: call %d produced %s, want %s", i, got, first)
		}
	}
}

func TestContentID_NilAndScalars(t *testing.T) {
	tok := NewTokenizer(nil)

	for _, v := range []any{nil, "plain string", 42, true} {
		id, err := tok.ContentID(v)
		if err != nil {
			t.Fatalf("ContentID(%v) failed: %v", v, err)
		}
		if id == "" {
			t.Errorf("ContentID(%v) returned empty id", v)
		}
	}
}

func TestContentID_UnencodableValue(t *testing.T) {
	tok := NewTokenizer(nil)

	if _, err := tok.ContentID(map[string]any{"fn": func() {}}); err == nil {
		t.Error("ContentID of an unencodable value should fail")
	}
}

func TestCanonicalize_NestedOrdering(t *testing.T) {
	got, err := canonicalize(map[string]any{
		"z": map[string]any{"b": 2, "a": 1},
		"a": []any{map[string]any{"y": 0, "x": 0}},
	})
	if err != nil {
		t.Fatalf("canonicalize failed: %v", err)
	}
	want := `{"a":[{"x":0,"y":0}],"z":{"a":1,"b":2}}`
	if string(got) != want {
		t.Errorf("canonicalize produced %s, want %s", got, want)
	}
}
