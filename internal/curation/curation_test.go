package curation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultData(t *testing.T) {
	d := Default()

	if d.Region != "India" {
		t.Errorf("region = %q, want %q", d.Region, "India")
	}
	if len(d.Categories) == 0 {
		t.Fatal("expected categories")
	}
	if d.Categories[0] != "dal" {
		t.Errorf("first category = %q, want %q", d.Categories[0], "dal")
	}
	if len(d.PreferredBrands) == 0 {
		t.Error("expected preferred brands")
	}
	if len(d.PopularItems) == 0 {
		t.Fatal("expected popular items")
	}
	for _, p := range d.PopularItems {
		if p.HealthRating != "" {
			t.Errorf("%s: curated items should not carry a precomputed rating", p.ID)
		}
	}
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	a := Default()
	a.Categories[0] = "changed"
	b := Default()
	if b.Categories[0] != "dal" {
		t.Errorf("category = %q, want %q", b.Categories[0], "dal")
	}
}

func TestExpandQuery(t *testing.T) {
	d := Default()
	tests := []struct {
		in   string
		want string
	}{
		{"Aashirvaad Atta", "wheat flour atta"},
		{"toor dal", "lentils dal"},
		{"masala chai", "spice masala mix"},
		{"amul milk", "amul milk"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := d.ExpandQuery(tt.in); got != tt.want {
			t.Errorf("ExpandQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	d, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(d.Categories) != len(Default().Categories) {
		t.Errorf("categories = %d, want %d", len(d.Categories), len(Default().Categories))
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curation.json")
	body := `{
		"region": "UK",
		"categories": ["crisps", "beans"],
		"preferred_brands": ["heinz"],
		"popular_items": [{"id": "1", "product_name": "Baked Beans"}]
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Region != "UK" || len(d.Categories) != 2 || d.PreferredBrands[0] != "heinz" {
		t.Errorf("unexpected data: %+v", d)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"blank category":  `{"categories": [" "]}`,
		"blank brand":     `{"preferred_brands": [""]}`,
		"bad expansion":   `{"query_expansions": [{"term": "dal"}]}`,
		"unnamed popular": `{"popular_items": [{"id": "1"}]}`,
		"malformed json":  `{"categories": [`,
	}
	for name, body := range tests {
		path := filepath.Join(t.TempDir(), "curation.json")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
