package offline

import (
	"strings"
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	k := NewDefaultKeyer()

	params := map[string]any{"user": "alice", "page": 2, "filters": []any{"active", "admin"}}
	first, err := k.Key("users.list", params)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := k.Key("users.list", params)
		if err != nil {
			t.Fatalf("Key() error = %v", err)
		}
		if again != first {
			t.Fatalf("Key() = %q on iteration %d, want %q", again, i, first)
		}
	}
}

func TestKeyFormat(t *testing.T) {
	k := NewDefaultKeyer()
	key, err := k.Key("users.get", map[string]any{"id": 7})
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if !strings.HasPrefix(key, "users.get:") {
		t.Errorf("Key() = %q, want prefix %q", key, "users.get:")
	}
	hash := strings.TrimPrefix(key, "users.get:")
	if len(hash) != 16 {
		t.Errorf("hash length = %d, want 16", len(hash))
	}
}

func TestKeyDistinguishesInputs(t *testing.T) {
	k := NewDefaultKeyer()

	tests := []struct {
		name          string
		nameA, nameB  string
		paramA, paramB any
	}{
		{"different params", "op", "op", map[string]any{"id": 1}, map[string]any{"id": 2}},
		{"different names", "a", "b", nil, nil},
		{"nil vs empty map", "op", "op", nil, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyA, err := k.Key(tt.nameA, tt.paramA)
			if err != nil {
				t.Fatalf("Key() error = %v", err)
			}
			keyB, err := k.Key(tt.nameB, tt.paramB)
			if err != nil {
				t.Fatalf("Key() error = %v", err)
			}
			if keyA == keyB {
				t.Errorf("keys collide: %q", keyA)
			}
		})
	}
}

func TestKeyNestedMapOrder(t *testing.T) {
	k := NewDefaultKeyer()

	a, err := k.Key("op", map[string]any{"outer": map[string]any{"b": 2, "a": 1}})
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	b, err := k.Key("op", map[string]any{"outer": map[string]any{"a": 1, "b": 2}})
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if a != b {
		t.Errorf("nested maps with same content produced %q and %q", a, b)
	}
}

func TestKeyStructAndMapEquivalent(t *testing.T) {
	k := NewDefaultKeyer()

	type params struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	fromStruct, err := k.Key("op", params{ID: 7, Name: "alice"})
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	fromMap, err := k.Key("op", map[string]any{"name": "alice", "id": 7})
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if fromStruct != fromMap {
		t.Errorf("struct key %q != map key %q for equal content", fromStruct, fromMap)
	}
}

func TestKeyUnmarshalableParams(t *testing.T) {
	k := NewDefaultKeyer()
	if _, err := k.Key("op", func() {}); err == nil {
		t.Error("Key() with a func param succeeded, want error")
	}
}
