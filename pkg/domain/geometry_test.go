package domain

import "testing"

func TestRegionContainsEveryPlotCell(t *testing.T) {
	plot := Plot{Rows: 2, Cols: 3}
	region := plot.Region(Position{Row: 4, Col: 5})
	for r := 0; r < 10; r++ {
		for c := 0; c < 12; c++ {
			inside := r >= 4 && r < 6 && c >= 5 && c < 8
			if got := region.Contains(r, c); got != inside {
				t.Fatalf("Contains(%d,%d) = %v want %v", r, c, got, inside)
			}
		}
	}
}

func TestRectOverlaps(t *testing.T) {
	a := Rect{Row: 0, Col: 0, Rows: 2, Cols: 2}
	cases := []struct {
		name string
		b    Rect
		want bool
	}{
		{"same", a, true},
		{"corner touch", Rect{Row: 1, Col: 1, Rows: 2, Cols: 2}, true},
		{"adjacent right", Rect{Row: 0, Col: 2, Rows: 2, Cols: 2}, false},
		{"below", Rect{Row: 2, Col: 0, Rows: 1, Cols: 1}, false},
		{"empty", Rect{Row: 0, Col: 0}, false},
	}
	for _, tc := range cases {
		if got := a.Overlaps(tc.b); got != tc.want {
			t.Errorf("%s: Overlaps = %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestRectWithinGarden(t *testing.T) {
	g := Garden{Rows: 5, Cols: 5}
	if !(Rect{Row: 3, Col: 3, Rows: 2, Cols: 2}).Within(g) {
		t.Fatalf("expected region to fit")
	}
	if (Rect{Row: 4, Col: 0, Rows: 2, Cols: 1}).Within(g) {
		t.Fatalf("expected region to overflow")
	}
	if (Rect{Row: -1, Col: 0, Rows: 1, Cols: 1}).Within(g) {
		t.Fatalf("expected negative anchor to be outside")
	}
}

func TestPositionForDefaultsToOrigin(t *testing.T) {
	positions := map[string]Position{"a": {PlotID: "a", Row: 2, Col: 3}}
	if got := PositionFor(positions, "a"); got.Row != 2 || got.Col != 3 {
		t.Fatalf("unexpected position %+v", got)
	}
	if got := PositionFor(positions, "b"); got.Row != 0 || got.Col != 0 || got.PlotID != "b" {
		t.Fatalf("expected origin default, got %+v", got)
	}
}

func TestVersionCloneIsDeep(t *testing.T) {
	v := Version{
		ID:        "v1",
		Plots:     []PlotRef{{ID: "a", Rows: 1, Cols: 1}},
		Positions: map[string]Position{"a": {PlotID: "a"}},
		Cells:     map[string]Grid{"a": {&CellAssignment{Emoji: "🍅"}}},
	}
	c := v.Clone()
	c.Plots[0].Name = "changed"
	c.Positions["a"] = Position{PlotID: "a", Row: 9}
	c.Cells["a"][0].Emoji = "🥕"
	if v.Plots[0].Name != "" || v.Positions["a"].Row != 0 || v.Cells["a"][0].Emoji != "🍅" {
		t.Fatalf("clone shares storage with original: %+v", v)
	}
}
