package store

import (
	"path/filepath"
	"testing"
)

// openTestStore creates an ephemeral store.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetAbsentKey(t *testing.T) {
	s := openTestStore(t)

	value, ok, err := s.Get("missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Errorf("expected absent key, got value %q", value)
	}
}

func TestSetGet(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"simple", "articles", `[{"id":"1"}]`},
		{"empty value", "ticker", ""},
		{"unicode", "files", "اردو مواد"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, ok, err := s.Get(tt.key)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !ok {
				t.Fatal("key not found after Set")
			}
			if got != tt.value {
				t.Errorf("Get = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestSetOverwrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set("k", "first"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("k", "second"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, _, err := s.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "second" {
		t.Errorf("Get = %q, want %q", got, "second")
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Error("key still present after Delete")
	}

	// Deleting an absent key is not an error.
	if err := s.Delete("never-set"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
}

func TestGeneration(t *testing.T) {
	s := openTestStore(t)

	if gen := s.Generation(); gen != 0 {
		t.Errorf("default generation = %d, want 0", gen)
	}

	if err := s.SetGeneration(1756000000000); err != nil {
		t.Fatalf("SetGeneration failed: %v", err)
	}
	if gen := s.Generation(); gen != 1756000000000 {
		t.Errorf("Generation = %d, want 1756000000000", gen)
	}

	// Corrupt marker falls back to 0.
	if err := s.Set(KeyGeneration, "not-a-number"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if gen := s.Generation(); gen != 0 {
		t.Errorf("Generation with corrupt marker = %d, want 0", gen)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if err := s.Set("articles", `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Get("articles")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || got != `[{"id":"1"}]` {
		t.Errorf("value did not survive reopen: %q (found=%v)", got, ok)
	}
}
