package planner

import (
	"testing"

	"potager/pkg/domain"
)

func plot(id string, rows, cols int) domain.Plot {
	return domain.Plot{Base: domain.Base{ID: id}, Name: id, Rows: rows, Cols: cols, Grid: domain.NewGrid(rows, cols)}
}

func TestResolveCoversRegion(t *testing.T) {
	plots := []domain.Plot{plot("a", 2, 3), plot("b", 1, 1)}
	positions := map[string]domain.Position{
		"a": {PlotID: "a", Row: 4, Col: 5},
		"b": {PlotID: "b", Row: 0, Col: 0},
	}
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			got, _, ok := Resolve(plots, positions, r, c)
			inA := r >= 4 && r < 6 && c >= 5 && c < 8
			inB := r == 0 && c == 0
			switch {
			case inA:
				if !ok || got.ID != "a" {
					t.Fatalf("(%d,%d): want a, got %v %v", r, c, got.ID, ok)
				}
			case inB:
				if !ok || got.ID != "b" {
					t.Fatalf("(%d,%d): want b, got %v %v", r, c, got.ID, ok)
				}
			default:
				if ok {
					t.Fatalf("(%d,%d): want none, got %s", r, c, got.ID)
				}
			}
		}
	}
}

func TestResolveFirstMatchWinsAndDefaultsAnchor(t *testing.T) {
	plots := []domain.Plot{plot("first", 2, 2), plot("second", 3, 3)}
	got, pos, ok := Resolve(plots, nil, 1, 1)
	if !ok || got.ID != "first" || pos != (domain.Position{PlotID: "first"}) {
		t.Fatalf("expected first plot at default anchor, got %s %+v", got.ID, pos)
	}
	got, _, ok = Resolve(plots, nil, 2, 2)
	if !ok || got.ID != "second" {
		t.Fatalf("expected second plot outside first's region, got %s", got.ID)
	}
}

func TestRelativeIndexRoundTrip(t *testing.T) {
	p := plot("a", 3, 4)
	pos := domain.Position{PlotID: "a", Row: 2, Col: 7}
	seen := map[int]bool{}
	for r := pos.Row; r < pos.Row+p.Rows; r++ {
		for c := pos.Col; c < pos.Col+p.Cols; c++ {
			idx := RelativeIndex(p, pos, r, c)
			if idx < 0 || idx >= p.Size() {
				t.Fatalf("index %d out of range", idx)
			}
			lr, lc := domain.CellCoord(idx, p.Cols)
			if lr != r-pos.Row || lc != c-pos.Col {
				t.Fatalf("round trip mismatch for (%d,%d)", r, c)
			}
			seen[idx] = true
		}
	}
	if len(seen) != p.Size() {
		t.Fatalf("expected %d distinct indices, got %d", p.Size(), len(seen))
	}
}

func TestRelativeIndexPanicsOutsidePlot(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	RelativeIndex(plot("a", 2, 2), domain.Position{Row: 1, Col: 1}, 0, 0)
}
