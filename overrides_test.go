package geoweather

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestOverrideStore_LoadMissingOrMalformed(t *testing.T) {
	dir := t.TempDir()

	s := NewOverrideStore(WithOverridesFile(filepath.Join(dir, "missing.json")))
	if got := s.Load(); len(got) != 0 {
		t.Errorf("Load() of missing file = %v, want empty", got)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`["not", "a", "map"]`), 0644); err != nil {
		t.Fatal(err)
	}
	s = NewOverrideStore(WithOverridesFile(bad))
	if got := s.Load(); len(got) != 0 {
		t.Errorf("Load() of malformed file = %v, want empty", got)
	}
}

func TestOverrideStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_entries.json")

	s := NewOverrideStore(WithOverridesFile(path))
	s.Load()
	s.Set("SPRINGFIELD", "US")
	s.Set("PARIS", "FR")
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    \"PARIS\": \"FR\",\n    \"SPRINGFIELD\": \"US\"\n}"
	if string(data) != want {
		t.Errorf("document =\n%s\nwant\n%s", data, want)
	}

	other := NewOverrideStore(WithOverridesFile(path))
	got := other.Load()
	if !reflect.DeepEqual(got, map[string]string{"PARIS": "FR", "SPRINGFIELD": "US"}) {
		t.Errorf("Load() = %v", got)
	}
	if v, ok := other.Get("PARIS"); !ok || v != "FR" {
		t.Errorf("Get(PARIS) = %q, %v", v, ok)
	}
	if names := other.Locations(); !reflect.DeepEqual(names, []string{"PARIS", "SPRINGFIELD"}) {
		t.Errorf("Locations() = %v", names)
	}
}

func TestOverrideStore_ClearIsInMemoryUntilSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_entries.json")
	if err := os.WriteFile(path, []byte(`{"PARIS": "FR"}`), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewOverrideStore(WithOverridesFile(path))
	s.Load()
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", s.Len())
	}

	// The file is untouched until the next save.
	if got := NewOverrideStore(WithOverridesFile(path)).Load(); len(got) != 1 {
		t.Errorf("file changed before Save: %v", got)
	}

	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	if got := NewOverrideStore(WithOverridesFile(path)).Load(); len(got) != 0 {
		t.Errorf("file after Save = %v, want empty", got)
	}
}

func TestOverrideStore_EntriesIsCopy(t *testing.T) {
	s := NewOverrideStore(WithOverridesFile(filepath.Join(t.TempDir(), "o.json")))
	s.Set("PARIS", "FR")

	e := s.Entries()
	e["PARIS"] = "US"
	if v, _ := s.Get("PARIS"); v != "FR" {
		t.Errorf("Entries() leaked internal map: PARIS = %q", v)
	}
}
