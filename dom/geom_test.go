package dom

import "testing"

func TestRect_InsetOutset(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 50}
	e := Edges{Top: 1, Right: 2, Bottom: 3, Left: 4}

	in := r.Inset(e)
	if in != (Rect{X: 14, Y: 21, Width: 94, Height: 46}) {
		t.Fatalf("Inset = %+v", in)
	}
	if back := in.Outset(e); back != r {
		t.Fatalf("Outset(Inset) = %+v, want %+v", back, r)
	}
}

func TestRect_Contains_HalfOpen(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	if !r.Contains(Point{X: 0, Y: 0}) {
		t.Error("top-left corner should be inside")
	}
	if r.Contains(Point{X: 10, Y: 5}) {
		t.Error("right edge should be outside")
	}
	if r.Contains(Point{X: 5, Y: 10}) {
		t.Error("bottom edge should be outside")
	}
}

func TestRect_EmptyArea(t *testing.T) {
	if (Rect{Width: 0, Height: 10}).Area() != 0 {
		t.Error("zero-width area should be 0")
	}
	if (Rect{Width: -5, Height: 10}).Area() != 0 {
		t.Error("inverted area should be 0")
	}
	if got := (Rect{Width: 4, Height: 5}).Area(); got != 20 {
		t.Errorf("Area = %v, want 20", got)
	}
}

func TestNormalize(t *testing.T) {
	r := Normalize(Point{X: 30, Y: 5}, Point{X: 10, Y: 25})
	if r != (Rect{X: 10, Y: 5, Width: 20, Height: 20}) {
		t.Fatalf("Normalize = %+v", r)
	}
}

func TestParsePx(t *testing.T) {
	cases := map[string]float64{
		"12px":     12,
		"12.5px":   12.5,
		"-4px":     -4,
		".5em":     0.5,
		"auto":     0,
		"":         0,
		"normal":   0,
		" 3px ":    3,
		"1e2px":    100,
		"0px 2px":  0,
		"16":       16,
		"100%":     100,
		"+2.25rem": 2.25,
	}
	for in, want := range cases {
		if got := ParsePx(in); got != want {
			t.Errorf("ParsePx(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStyle_Edges(t *testing.T) {
	s := Style{
		"border-top-width":    "1px",
		"border-right-width":  "2px",
		"border-bottom-width": "3px",
		"border-left-width":   "4px",
	}
	got := s.Edges("border-", "-width")
	if got != (Edges{Top: 1, Right: 2, Bottom: 3, Left: 4}) {
		t.Fatalf("Edges = %+v", got)
	}
}
