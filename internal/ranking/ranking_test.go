package ranking

import (
	"slices"
	"testing"

	"github.com/dukerupert/platescore/internal/model"
)

func product(id, name, brand string) model.FoodProduct {
	p := model.FoodProduct{ID: id, ProductName: name}
	if brand != "" {
		p.Brand = model.Ptr(brand)
	}
	return p
}

func ids(products []model.FoodProduct) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

var indianBrands = []string{"amul", "britannia", "parle", "haldiram", "tata"}
var categories = []string{"dal", "rice", "milk", "gulab jamun", "jam", "curd"}

func TestRankAmulMilk(t *testing.T) {
	r := New([]string{"Amul"}, categories)
	in := []model.FoodProduct{
		product("1", "Mother Dairy Toned Milk", "Mother Dairy"),
		product("2", "Amul Gold Full Cream Milk", "Amul"),
		product("3", "Nestle a+ Slim Milk", "Nestle"),
		product("4", "Amul Taaza", "AMUL, Gujarat Co-op"),
		product("5", "Milky Mist Paneer", "Milky Mist"),
		product("6", "Amul Masti Dahi", "amul"),
	}

	got := ids(r.Rank(in, "amul milk"))
	want := []string{"2", "4", "6", "1", "3", "5"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRankCategoryTieBreak(t *testing.T) {
	r := New(indianBrands, categories)
	in := []model.FoodProduct{
		product("a", "Organic Quinoa", "Tru Earth"),
		product("b", "Toor Dal Unpolished", "24 Mantra"),
		product("c", "Moong Dal", "Tata Sampann"),
		product("d", "Basmati Rice", "India Gate"),
		product("e", "Masoor Dal", "Local"),
	}

	got := ids(r.Rank(in, "dal"))
	want := []string{"c", "b", "e", "a", "d"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRankCategoryMustMatchQuery(t *testing.T) {
	r := New(nil, categories)
	in := []model.FoodProduct{
		product("a", "Chocolate Bar", ""),
		product("b", "Basmati Rice", ""),
		product("c", "Cadbury Chocolate Milk", ""),
	}

	// "rice" is a category but the query asks for milk.
	got := ids(r.Rank(in, "chocolate milk"))
	want := []string{"c", "a", "b"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRankNoPreferencesIsNoOp(t *testing.T) {
	in := []model.FoodProduct{
		product("1", "Amul Butter", "Amul"),
		product("2", "Dal Makhani", "Haldiram's"),
		product("3", "Plain Rice", ""),
	}

	for _, r := range []*Ranker{New(nil, nil), New([]string{}, []string{" "})} {
		got := ids(r.Rank(in, "dal rice"))
		if !slices.Equal(got, ids(in)) {
			t.Errorf("order = %v, want input order %v", got, ids(in))
		}
	}
}

func TestRankNoMatchesIsNoOp(t *testing.T) {
	r := New(indianBrands, categories)
	in := []model.FoodProduct{
		product("1", "Kellogg's Corn Flakes", "Kellogg's"),
		product("2", "Quaker Oats", "Quaker"),
		product("3", "Muesli", ""),
	}
	got := ids(r.Rank(in, "cereal"))
	if !slices.Equal(got, ids(in)) {
		t.Errorf("order = %v, want %v", got, ids(in))
	}
}

func TestRankIsStablePermutation(t *testing.T) {
	r := New(indianBrands, categories)
	var in []model.FoodProduct
	brands := []string{"Amul", "", "Nestle", "Parle", "", "Tata", "Local"}
	names := []string{"Milk", "Rice Bran Oil", "Dal Tadka", "Biscuits", "Curd", "Salt", "Jam"}
	for i := 0; i < 35; i++ {
		in = append(in, product(string(rune('A'+i)), names[i%len(names)], brands[i%len(brands)]))
	}
	snapshot := slices.Clone(in)

	out := r.Rank(in, "milk rice curd")

	// Same set of ids.
	gotIDs, wantIDs := ids(out), ids(in)
	slices.Sort(gotIDs)
	slices.Sort(wantIDs)
	if !slices.Equal(gotIDs, wantIDs) {
		t.Fatalf("ranked ids %v differ from input ids %v", gotIDs, wantIDs)
	}

	// Input untouched.
	if !slices.Equal(ids(in), ids(snapshot)) {
		t.Fatal("input slice was reordered")
	}

	// Within a group the input order is kept.
	kw := r.keywordsIn("milk rice curd")
	pos := make(map[string]int, len(in))
	for i, p := range in {
		pos[p.ID] = i
	}
	for i := 1; i < len(out); i++ {
		ga, gb := r.group(out[i-1], kw), r.group(out[i], kw)
		if ga > gb {
			t.Fatalf("group order violated at %d: %d before %d", i, ga, gb)
		}
		if ga == gb && pos[out[i-1].ID] > pos[out[i].ID] {
			t.Fatalf("stability violated: %s before %s", out[i-1].ID, out[i].ID)
		}
	}
}

func TestRankEmptyAndSingle(t *testing.T) {
	r := New(indianBrands, categories)
	if got := r.Rank(nil, "milk"); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	one := []model.FoodProduct{product("1", "Milk", "Amul")}
	if got := r.Rank(one, "milk"); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("unexpected result %v", got)
	}
}

func TestIsPreferredBrand(t *testing.T) {
	r := New([]string{"nestle india", "Haldiram"}, nil)
	tests := []struct {
		brand string
		want  bool
	}{
		{"Haldiram's", true},
		{"HALDIRAM", true},
		{"Nestle India Ltd", true},
		{"Nestle", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := r.IsPreferredBrand(tt.brand); got != tt.want {
			t.Errorf("IsPreferredBrand(%q) = %v, want %v", tt.brand, got, tt.want)
		}
	}
}

func TestCategorize(t *testing.T) {
	r := New(nil, categories)
	tests := []struct {
		name string
		want string
	}{
		{"Haldiram's Gulab Jamun Tin", "gulab jamun"},
		{"Kissan Mixed Fruit Jam", "jam"},
		{"MOONG DAL", "dal"},
		{"Amul Masti Curd", "curd"},
		{"Potato Chips", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := r.Categorize(tt.name); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
