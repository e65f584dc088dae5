package geom

import "testing"

func TestSideOpposite(t *testing.T) {
	cases := []struct {
		s, want Side
	}{
		{East, West},
		{West, East},
		{Top, Bottom},
		{Bottom, Top},
		{South, North},
		{North, South},
	}
	for _, c := range cases {
		if got := c.s.Opposite(); got != c.want {
			t.Errorf("%v.Opposite() = %v, want %v", c.s, got, c.want)
		}
		if sum := c.s.Dir().Add(c.want.Dir()); sum != (Vec3i{}) {
			t.Errorf("%v and %v directions do not cancel: %v", c.s, c.want, sum)
		}
	}
}

func TestParseSide(t *testing.T) {
	for _, s := range Sides {
		got, ok := ParseSide(s.String())
		if !ok || got != s {
			t.Errorf("ParseSide(%q) = %v,%v", s.String(), got, ok)
		}
		got, ok = ParseSide(s.String()[:1])
		if !ok || got != s {
			t.Errorf("ParseSide(%q) = %v,%v", s.String()[:1], got, ok)
		}
	}
	if _, ok := ParseSide("Up"); ok {
		t.Error("ParseSide(Up) should fail")
	}
}

func TestSideFromDir(t *testing.T) {
	for _, s := range Sides {
		got, ok := SideFromDir(s.Dir())
		if !ok || got != s {
			t.Errorf("SideFromDir(%v) = %v,%v want %v", s.Dir(), got, ok, s)
		}
	}
	if _, ok := SideFromDir(Vec3i{1, 1, 0}); ok {
		t.Error("diagonal offset must not map to a side")
	}
}

func TestChebyshev(t *testing.T) {
	if d := Chebyshev(Vec3i{0, 0, 0}, Vec3i{3, -5, 2}); d != 5 {
		t.Errorf("got %d, want 5", d)
	}
	if d := Chebyshev(Vec3i{-2, 7, 1}, Vec3i{-2, 7, 1}); d != 0 {
		t.Errorf("got %d, want 0", d)
	}
}

func TestFloorDivMod(t *testing.T) {
	cases := []struct{ a, b, div, mod int }{
		{0, 32, 0, 0},
		{31, 32, 0, 31},
		{32, 32, 1, 0},
		{-1, 32, -1, 31},
		{-32, 32, -1, 0},
		{-33, 32, -2, 31},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.div {
			t.Errorf("FloorDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.div)
		}
		if got := Mod(c.a, c.b); got != c.mod {
			t.Errorf("Mod(%d,%d) = %d, want %d", c.a, c.b, got, c.mod)
		}
	}
}
